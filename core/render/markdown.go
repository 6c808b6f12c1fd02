// Package render provides per-match document renderers.
// This file implements the Markdown program sheet, which the PDF renderer
// also lays out.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// MarkdownRenderer writes a program sheet as Markdown.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the program sheet for m.
func (r *MarkdownRenderer) Render(m core.Match) ([]byte, error) {
	return []byte(Sheet(m)), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// Sheet builds the Markdown program sheet for one match.
func Sheet(m core.Match) string {
	p := m.Program
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	fmt.Fprintf(&b, "- Artist: %s\n", m.Artist)
	fmt.Fprintf(&b, "- Station: %s (%s)\n", p.Station.Name, p.Station.ID)
	fmt.Fprintf(&b, "- Air: %s\n", airTime(p))
	if p.Performers != nil && *p.Performers != "" {
		fmt.Fprintf(&b, "- Performers: %s\n", *p.Performers)
	}
	fmt.Fprintf(&b, "- Listen: [radiko](%s)\n", p.TimeFreeURL())
	fmt.Fprintf(&b, "- App: [open](%s)\n", p.DeepLink())

	section(&b, "Info", p.Info)
	section(&b, "Description", p.Description)

	if len(p.OnAirTracks) > 0 {
		b.WriteString("\n## On-air tracks\n\n")
		for i, t := range p.OnAirTracks {
			fmt.Fprintf(&b, "%d. %s **%s** / %s\n", i+1, offset(t.OffsetFromStart.Duration()), t.MusicTitle, t.ArtistName)
		}
	}
	return b.String()
}

func section(b *strings.Builder, heading string, body *string) {
	if body == nil {
		return
	}
	text := strings.TrimSpace(*body)
	if text == "" {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n%s\n", heading, text)
}

func airTime(p core.ProgramRecord) string {
	start := p.StartTime.In(core.StationZone)
	end := p.EndTime.In(core.StationZone)
	return fmt.Sprintf("%s-%s JST (%d min)",
		start.Format("2006-01-02 15:04"), end.Format("15:04"), int(p.Duration.Duration()/time.Minute))
}

// offset formats a track position as +MM:SS (or -MM:SS before the start).
func offset(d time.Duration) string {
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%s%02d:%02d", sign, secs/60, secs%60)
}
