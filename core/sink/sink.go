// Package sink fans matches out to every configured destination.
package sink

import (
	"context"
	"errors"

	"github.com/gaurav-prasanna/radiopipe/core"
)

// Multi delivers each match to every sink in order and joins their errors.
type Multi []core.Sink

// Put implements core.Sink.
func (m Multi) Put(ctx context.Context, match core.Match) error {
	var errs []error
	for _, s := range m {
		if err := s.Put(ctx, match); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
