package markup

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// Converter names accepted by New.
const (
	ConverterStrict     = "strict"
	ConverterCommonMark = "commonmark"
)

// CommonMark converts fragments with a full HTML-to-Markdown engine and
// falls back to Strict when the engine fails.
type CommonMark struct {
	fallback *Strict
	logger   zerolog.Logger
}

// NewCommonMark creates a CommonMark converter.
func NewCommonMark(logger zerolog.Logger) *CommonMark {
	return &CommonMark{fallback: NewStrict(logger), logger: logger}
}

// ConvertFragment converts fragment into CommonMark.
func (c *CommonMark) ConvertFragment(fragment string) string {
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		c.logger.Warn().Err(err).Msg("commonmark conversion failed, using strict converter")
		return c.fallback.ConvertFragment(fragment)
	}
	return md
}

// New returns the converter registered under name.
func New(name string, logger zerolog.Logger) (core.Converter, error) {
	switch name {
	case "", ConverterStrict:
		return NewStrict(logger), nil
	case ConverterCommonMark:
		return NewCommonMark(logger), nil
	default:
		return nil, fmt.Errorf("unknown markup converter %q (use %s or %s)", name, ConverterStrict, ConverterCommonMark)
	}
}
