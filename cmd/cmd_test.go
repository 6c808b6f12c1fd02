package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/radiopipe/config"
	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/ledger"
	"github.com/gaurav-prasanna/radiopipe/core/render"
	"github.com/gaurav-prasanna/radiopipe/core/store"
)

func TestSelectRenderer(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"markdown", ".md"},
		{"md", ".md"},
		{"json", ".json"},
		{"pdf", ".pdf"},
	}
	for _, tt := range tests {
		r, err := selectRenderer(tt.format, "")
		require.NoError(t, err, tt.format)
		assert.Equal(t, tt.ext, r.Extension())
	}

	r, err := selectRenderer("pdf", "/fonts/ipag.ttf")
	require.NoError(t, err)
	assert.IsType(t, &render.PDFRenderer{}, r)

	_, err = selectRenderer("embeddings", "")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil, nil))

	out := renderTable([]string{"A", "B"}, [][]string{{"x"}, {"longer", "12"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "longer")
	assert.Contains(t, out, "12")
	assert.Len(t, strings.Split(out, "\n"), 6)
}

func TestTriggerDate(t *testing.T) {
	now := time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC) // 01:00 JST on the 16th

	d, err := triggerDate("", now)
	require.NoError(t, err)
	assert.Equal(t, "20240115", d.Format("20060102"))

	d, err = triggerDate("20240101", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, core.StationZone), d)

	_, err = triggerDate("2024-01-01", now)
	assert.ErrorContains(t, err, "YYYYMMDD")
}

func program(id uint64, start time.Time) core.ProgramRecord {
	return core.ProgramRecord{
		Station:   core.StationChannel{ID: "TBS"},
		ID:        id,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Duration:  core.Seconds(time.Hour),
		Title:     "show",
	}
}

func TestGroupByProgram(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, b := program(1, start), program(2, start)

	programs, artists := groupByProgram([]core.Match{
		{Artist: "GroupA", Program: a},
		{Artist: "GroupB", Program: b},
		{Artist: "Alice", Program: a},
	})
	require.Len(t, programs, 2)
	assert.Equal(t, uint64(1), programs[0].ID)
	assert.Equal(t, []string{"GroupA", "Alice"}, artists[programKey(a)])
	assert.Equal(t, []string{"GroupB"}, artists[programKey(b)])
}

func TestEmitTriggers(t *testing.T) {
	led, err := ledger.OpenInMemory()
	require.NoError(t, err)
	defer led.Close()

	now := time.Now()
	done := program(1, now.Add(-3*time.Hour))
	live := program(2, now.Add(-30*time.Minute))
	artists := map[string][]string{
		programKey(done): {"GroupA"},
		programKey(live): {"GroupB"},
	}

	var buf bytes.Buffer
	n, err := emitTriggers(&buf, led, []core.ProgramRecord{done, live}, artists, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var line triggerLine
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, []string{"GroupA"}, line.Artists)
	assert.Equal(t, uint64(1), line.ProgramID)
	assert.Equal(t, done.TimeFreeURL(), line.TimeFreeURL)
	assert.Equal(t, done.DeepLink(), line.DeepLink)

	buf.Reset()
	n, err = emitTriggers(&buf, led, []core.ProgramRecord{done}, artists, now)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())
}

func TestNewSinkWritesFiles(t *testing.T) {
	dir := t.TempDir()
	c := config.Default()
	c.Output.Dir = filepath.Join(dir, "out")
	c.Output.Format = "json"

	st, err := store.Open(filepath.Join(dir, "radiopipe.db"), "")
	require.NoError(t, err)
	defer st.Close()

	s, release, err := newSink(t.Context(), c, st)
	require.NoError(t, err)
	defer release()

	m := core.Match{Artist: "GroupA", Program: program(9, time.Now().Add(-2*time.Hour))}
	require.NoError(t, s.Put(t.Context(), m))

	entries, err := st.List(t.Context(), store.Query{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	matches, err := filepath.Glob(filepath.Join(c.Output.Dir, "GroupA", "TBS_*_9.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestArtistTable(t *testing.T) {
	out := artistTable([]store.ArtistCount{{Artist: "GroupA", Programs: 1200}, {Artist: "Alice", Programs: 3}})
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "1203")
}

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiopipe.lock")
	unlock, err := acquireLock(path)
	require.NoError(t, err)
	_, err = acquireLock(path)
	assert.ErrorContains(t, err, "another radiopipe instance")
	unlock()

	unlock, err = acquireLock(path)
	require.NoError(t, err)
	unlock()
}
