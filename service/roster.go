package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/core/match"
)

const rosterDebounce = 500 * time.Millisecond

// RosterWatcher reloads the roster into a match.Holder whenever the file
// changes. A roster that fails to load leaves the previous matcher in place.
type RosterWatcher struct {
	path     string
	holder   *match.Holder
	tracker  *Tracker
	debounce time.Duration
	logger   zerolog.Logger
}

// NewRosterWatcher creates a RosterWatcher.
func NewRosterWatcher(path string, holder *match.Holder, tracker *Tracker, logger zerolog.Logger) *RosterWatcher {
	return &RosterWatcher{
		path:     path,
		holder:   holder,
		tracker:  tracker,
		debounce: rosterDebounce,
		logger:   logger,
	}
}

// Reload reads the roster and swaps it in.
func (w *RosterWatcher) Reload() error {
	roster, err := match.LoadRoster(w.path)
	if err != nil {
		return err
	}
	w.holder.Store(match.NewMatcher(roster))
	w.tracker.RosterLoaded(len(roster.Artists()), time.Now())
	w.logger.Info().
		Int("groups", len(roster.Groups)).
		Int("members", roster.MemberCount()).
		Msg("roster loaded")
	return nil
}

// Serve implements suture.Service. The directory is watched rather than the
// file so editors that replace the file by rename are picked up.
func (w *RosterWatcher) Serve(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch roster directory: %w", err)
	}
	name := filepath.Base(w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("roster watcher closed")
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug().Str("op", event.Op.String()).Msg("roster file changed")
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			if err := w.Reload(); err != nil {
				w.logger.Error().Err(err).Msg("roster reload failed, keeping previous roster")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("roster watcher closed")
			}
			w.logger.Warn().Err(err).Msg("roster watcher error")
		}
	}
}

func (w *RosterWatcher) String() string { return "roster-watcher" }
