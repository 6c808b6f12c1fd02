package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/gaurav-prasanna/radiopipe/crawl"
)

type nopProgress struct{}

func (nopProgress) Add(int) error { return nil }

// newProgress draws a bar on stderr when it is a terminal.
func newProgress(step string, total int) crawl.Progress {
	fd := os.Stderr.Fd()
	if total <= 0 || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) {
		return nopProgress{}
	}
	return progressbar.Default(int64(total), step)
}
