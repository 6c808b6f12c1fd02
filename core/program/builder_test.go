package program

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/markup"
	"github.com/gaurav-prasanna/radiopipe/core/schedule"
)

var station = core.StationChannel{ID: "TBS", Name: "TBSラジオ", BannerURL: "b", AreaID: "JP13"}

// spyConverter records every fragment it is asked to convert.
type spyConverter struct {
	mu    sync.Mutex
	calls []string
}

func (s *spyConverter) ConvertFragment(fragment string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fragment)
	return "converted:" + fragment
}

func baseFields() schedule.Fields {
	f := schedule.Fields{}
	f.Set("id", "1")
	f.Set("ft", "20240101090000")
	f.Set("to", "20240101093000")
	f.Set("dur", "1800")
	f.Set("title", "Morning")
	return f
}

func strPtr(s string) *string { return &s }

func TestBuildMinimal(t *testing.T) {
	rec, err := NewBuilder(&spyConverter{}).Build(baseFields(), station)
	require.NoError(t, err)

	want := &core.ProgramRecord{
		Station:     station,
		ID:          1,
		StartTime:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC),
		Duration:    core.Seconds(30 * time.Minute),
		Title:       "Morning",
		OnAirTracks: []core.OnAirTrack{},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 30*time.Minute, rec.Duration.Duration())
	assert.Equal(t, time.Date(2024, 1, 15, 0, 30, 0, 0, time.UTC), rec.ExpireAt())
}

func TestBuildOptionalFields(t *testing.T) {
	f := baseFields()
	f.Set("img", "https://example.com/a.png")
	f.Set("info", "<b>ｉｎｆｏ</b>")
	f.Set("pfm", "ＤＪ")
	f["desc"] = nil

	spy := &spyConverter{}
	rec, err := NewBuilder(spy).Build(f, station)
	require.NoError(t, err)

	assert.Equal(t, strPtr("https://example.com/a.png"), rec.ImageURL)
	assert.Equal(t, strPtr("converted:<b>info</b>"), rec.Info)
	assert.Equal(t, strPtr("DJ"), rec.Performers)
	assert.Nil(t, rec.Description)
	assert.Equal(t, []string{"<b>ｉｎｆｏ</b>"}, spy.calls, "absent desc must not be converted")
}

func TestBuildAbsentInfoIsNeverConverted(t *testing.T) {
	spy := &spyConverter{}
	rec, err := NewBuilder(spy).Build(baseFields(), station)
	require.NoError(t, err)
	assert.Nil(t, rec.Info)
	assert.Nil(t, rec.Description)
	assert.Empty(t, spy.calls)
}

func TestBuildWithStrictConverter(t *testing.T) {
	f := baseFields()
	f.Set("info", "<p>ゲスト</p><p><a href=\"https://x\">ｓｉｔｅ</a></p>")
	rec, err := NewBuilder(markup.NewStrict(zerolog.Nop())).Build(f, station)
	require.NoError(t, err)
	assert.Equal(t, strPtr("ゲスト\n[site](https://x)\n"), rec.Info)
}

func TestBuildMissingFields(t *testing.T) {
	for _, key := range []string{"id", "ft", "to", "dur", "title"} {
		t.Run("absent "+key, func(t *testing.T) {
			f := baseFields()
			delete(f, key)
			rec, err := NewBuilder(&spyConverter{}).Build(f, station)
			assert.Nil(t, rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrMissingField))

			var fe *core.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, key, fe.Field)
		})
		t.Run("empty "+key, func(t *testing.T) {
			f := baseFields()
			f[key] = nil
			_, err := NewBuilder(&spyConverter{}).Build(f, station)
			assert.True(t, errors.Is(err, core.ErrMissingField))
		})
	}
}

func TestBuildParseFailures(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"id", "abc"},
		{"id", "-1"},
		{"ft", "2024-01-01"},
		{"to", "20241301000000"},
		{"dur", "30m"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			f := baseFields()
			f.Set(tt.key, tt.value)
			rec, err := NewBuilder(&spyConverter{}).Build(f, station)
			assert.Nil(t, rec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrParseFailure))
			assert.False(t, errors.Is(err, core.ErrMissingField))

			var fe *core.FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.key, fe.Field)
		})
	}
}

func TestBuildNegativeDuration(t *testing.T) {
	f := baseFields()
	f.Set("dur", "-60")
	rec, err := NewBuilder(&spyConverter{}).Build(f, station)
	require.NoError(t, err)
	assert.Equal(t, -time.Minute, rec.Duration.Duration())
}

func TestParseStationTime(t *testing.T) {
	got, err := ParseStationTime("20240101050000")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 31, 20, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	_, err = ParseStationTime("")
	assert.Error(t, err)
}
