// Package markup turns the HTML fragments found in program info and
// description fields into plain text with light Markdown emphasis.
package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Strict understands only anchors, bold, paragraphs and line breaks.
// Every other element contributes its children's text.
type Strict struct {
	logger zerolog.Logger
}

// NewStrict creates a Strict converter that reports unexpected nodes to logger.
func NewStrict(logger zerolog.Logger) *Strict {
	return &Strict{logger: logger}
}

// ConvertFragment parses fragment as body content and converts the result.
func (c *Strict) ConvertFragment(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + fragment + "</body>"))
	if err != nil {
		c.logger.Warn().Err(err).Msg("markup fragment did not parse, keeping raw text")
		return fragment
	}
	return c.Convert(doc.Get(0))
}

// Convert renders the tree rooted at n. A nil node renders as "".
func (c *Strict) Convert(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	c.render(&b, n)
	return b.String()
}

func (c *Strict) render(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.DocumentNode:
		c.children(b, n)
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		c.element(b, n)
	case html.CommentNode:
	default:
		c.logger.Warn().
			Str("node_type", nodeTypeName(n.Type)).
			Str("data", n.Data).
			Msg("unexpected markup node")
	}
}

func (c *Strict) element(b *strings.Builder, n *html.Node) {
	switch strings.ToLower(n.Data) {
	case "a":
		href, ok := firstAttr(n, "href")
		if !ok {
			c.children(b, n)
			return
		}
		b.WriteByte('[')
		c.children(b, n)
		b.WriteString("](")
		b.WriteString(href)
		b.WriteByte(')')
	case "b", "strong":
		b.WriteString("**")
		c.children(b, n)
		b.WriteString("**")
	case "p":
		c.children(b, n)
		b.WriteByte('\n')
	case "br":
		b.WriteString("\n\n")
		c.children(b, n)
	default:
		c.children(b, n)
	}
}

func (c *Strict) children(b *strings.Builder, n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.render(b, child)
	}
}

func firstAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func nodeTypeName(t html.NodeType) string {
	switch t {
	case html.ErrorNode:
		return "error"
	case html.DoctypeNode:
		return "doctype"
	case html.RawNode:
		return "raw"
	default:
		return "unknown"
	}
}
