// Package output handles file naming and writing for rendered matches.
// Files land under <dir>/<artist>/<station>_<start>_<id><ext>, where start is
// the JST air time, so one artist's programs sort chronologically per station.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Path returns where the document for m is written.
func (w *Writer) Path(m core.Match, ext string) string {
	p := m.Program
	name := fmt.Sprintf("%s_%s_%s",
		sanitize(p.Station.ID),
		p.StartTime.In(core.StationZone).Format(core.StationTimeLayout),
		strconv.FormatUint(p.ID, 10))
	return filepath.Join(w.OutputDir, sanitize(m.Artist), name+ext)
}

// Write atomically replaces the document for m with data.
func (w *Writer) Write(m core.Match, data []byte, ext string, logger zerolog.Logger) (string, error) {
	path := w.Path(m, ext)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0644))
	if err != nil {
		return "", fmt.Errorf("create pending file %s: %w", path, err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("cleanup pending file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return path, nil
}

// sanitize keeps letters and digits of any script and replaces everything
// else with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '-' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// FileSink renders each match and writes it through a Writer.
type FileSink struct {
	renderer core.Renderer
	writer   *Writer
	logger   zerolog.Logger
}

// NewFileSink creates a FileSink.
func NewFileSink(renderer core.Renderer, writer *Writer, logger zerolog.Logger) *FileSink {
	return &FileSink{renderer: renderer, writer: writer, logger: logger}
}

// Put implements core.Sink.
func (s *FileSink) Put(_ context.Context, m core.Match) error {
	data, err := s.renderer.Render(m)
	if err != nil {
		return fmt.Errorf("rendering %s/%d for %s: %w", m.Program.Station.ID, m.Program.ID, m.Artist, err)
	}
	path, err := s.writer.Write(m, data, s.renderer.Extension(), s.logger)
	if err != nil {
		return err
	}
	s.logger.Debug().Str("path", path).Str("artist", m.Artist).Msg("wrote program sheet")
	return nil
}
