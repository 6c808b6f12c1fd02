package crawl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/match"
)

type recordingSink struct {
	mu      sync.Mutex
	matches []core.Match
	fail    bool
}

func (s *recordingSink) Put(_ context.Context, m core.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("sink down")
	}
	s.matches = append(s.matches, m)
	return nil
}

func roster() *match.Holder {
	return match.NewHolder(match.NewMatcher(match.NewRoster(map[string]map[string][]string{
		"GroupA": {"Mem1": {"M1"}},
		"Other":  {"Nobody": {"zzz"}},
	})))
}

func TestCycleRun(t *testing.T) {
	f := newFixture(t)
	sink := &recordingSink{}
	now := jan1.Add(12 * time.Hour)

	var steps []string
	cycle := NewCycle(f.crawler("TBS"), roster(), sink, CycleConfig{
		DaysBack:   0,
		Days:       1,
		StaleAfter: 4 * time.Hour,
		Enrich:     true,
	}, zerolog.Nop()).
		WithClock(func() time.Time { return now }).
		WithProgress(func(step string, total int) Progress {
			steps = append(steps, step)
			return nopProgress{}
		})

	sum, err := cycle.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 1, sum.Stations)
	assert.Equal(t, 1, sum.Schedules)
	assert.Equal(t, 1, sum.Programs)
	assert.Equal(t, 1, sum.Stale, "the 05:00-06:00 show ended six hours ago")
	assert.Equal(t, 2, sum.Matches)
	assert.Equal(t, 0, sum.SinkFailures)
	assert.Equal(t, []string{"schedules", "on-air"}, steps)

	require.Len(t, sink.matches, 2)
	assert.Equal(t, "GroupA", sink.matches[0].Artist)
	assert.Equal(t, "Mem1", sink.matches[1].Artist)
	assert.Equal(t, uint64(1), sink.matches[0].Program.ID)
	require.Len(t, sink.matches[0].Program.OnAirTracks, 1)
}

func TestCycleCountsSinkFailures(t *testing.T) {
	f := newFixture(t)
	now := jan1.Add(12 * time.Hour)

	sum, err := NewCycle(f.crawler("TBS"), roster(), &recordingSink{fail: true}, CycleConfig{Days: 1}, zerolog.Nop()).
		WithClock(func() time.Time { return now }).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Stale, "stale filter disabled")
	assert.Equal(t, 2, sum.Programs)
	assert.Equal(t, 2, sum.Matches)
	assert.Equal(t, 2, sum.SinkFailures)
	assert.Equal(t, int32(0), f.onairHit.Load(), "enrichment disabled")
}

func TestCycleFailsWithoutStations(t *testing.T) {
	f := newFixture(t)
	c := f.crawler()
	c.cfg.StationListURL = f.srv.URL + "/missing.xml"

	_, err := NewCycle(c, roster(), nil, CycleConfig{}, zerolog.Nop()).Run(context.Background())
	assert.ErrorContains(t, err, "listing stations")
}
