// Package render — JSON renderer.
// Emits the stored program document alongside the listening links and the
// links and plain text recovered from the converted info and description.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// Link is a Markdown link found in program text.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Document is the JSON output for one match.
type Document struct {
	Artist      string             `json:"artist"`
	Program     core.ProgramRecord `json:"program"`
	DeepLink    string             `json:"deep_link"`
	TimeFreeURL string             `json:"timefree_url"`
	PlainInfo   string             `json:"plain_info"`
	PlainDesc   string             `json:"plain_desc"`
	Links       []Link             `json:"links"`
}

// JSONRenderer produces structured JSON output.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render builds the Document for m.
func (r *JSONRenderer) Render(m core.Match) ([]byte, error) {
	p := m.Program
	doc := Document{
		Artist:      m.Artist,
		Program:     p,
		DeepLink:    p.DeepLink(),
		TimeFreeURL: p.TimeFreeURL(),
		PlainInfo:   stripMarkdown(deref(p.Info)),
		PlainDesc:   stripMarkdown(deref(p.Description)),
		Links:       append(extractLinks(deref(p.Info)), extractLinks(deref(p.Description))...),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// linkRegex matches Markdown links [text](url).
var linkRegex = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)

func extractLinks(md string) []Link {
	matches := linkRegex.FindAllStringSubmatch(md, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{Text: m[1], Href: m[2]})
	}
	return links
}

var (
	boldRegex     = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	blankRunRegex = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes the emphasis and link syntax the converter emits.
func stripMarkdown(md string) string {
	text := boldRegex.ReplaceAllString(md, "$1")
	text = linkRegex.ReplaceAllString(text, "$1")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
