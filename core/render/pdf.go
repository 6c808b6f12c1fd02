// Package render — PDF renderer.
// Lays the Markdown program sheet out with gofpdf: headings, list items and
// paragraphs. Japanese text needs a UTF-8 TrueType font; without one the
// built-in Helvetica is used and characters outside cp1252 are lost.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/radiopipe/core"
)

const utf8Family = "sheet"

// PDFRenderer renders the program sheet as a PDF document.
type PDFRenderer struct {
	fontPath string
}

// NewPDFRenderer creates a PDFRenderer. fontPath may name a TTF file with
// CJK coverage; empty selects Helvetica.
func NewPDFRenderer(fontPath string) *PDFRenderer {
	return &PDFRenderer{fontPath: fontPath}
}

type typesetter struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (t *typesetter) font(style string, size float64) {
	if t.family == utf8Family && style == "I" {
		style = ""
	}
	t.pdf.SetFont(t.family, style, size)
}

func (t *typesetter) text(h float64, s string) {
	t.pdf.MultiCell(0, h, t.tr(s), "", "L", false)
}

// Render converts the program sheet for m into PDF bytes.
func (r *PDFRenderer) Render(m core.Match) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)

	ts := &typesetter{pdf: pdf, family: "Helvetica", tr: func(s string) string { return s }}
	if r.fontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", r.fontPath)
		pdf.AddUTF8Font(utf8Family, "B", r.fontPath)
		ts.family = utf8Family
	} else {
		ts.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()

	// Source line.
	ts.font("I", 9)
	pdf.SetTextColor(100, 100, 100)
	ts.text(5, "Source: "+m.Program.TimeFreeURL())
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	for _, line := range strings.Split(Sheet(m), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(line, "#"):
			level := len(line) - len(strings.TrimLeft(line, "#"))
			renderHeading(ts, strings.TrimSpace(strings.TrimLeft(line, "# ")), level)
		case strings.HasPrefix(trimmed, "- "):
			ts.font("", 10)
			ts.text(5, "- "+cleanInlineMarkdown(trimmed[2:]))
		case numberedItem.MatchString(trimmed):
			ts.font("", 10)
			ts.text(5, cleanInlineMarkdown(trimmed))
		default:
			ts.font("", 10)
			ts.text(5, cleanInlineMarkdown(line))
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("laying out PDF: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

var numberedItem = regexp.MustCompile(`^\d+\.\s`)

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(ts *typesetter, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 14, 3: 12}
	size, ok := sizes[level]
	if !ok {
		size = 11
	}
	ts.pdf.Ln(3)
	ts.font("B", size)
	ts.text(size*0.6, cleanInlineMarkdown(text))
	ts.pdf.Ln(2)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = linkRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
