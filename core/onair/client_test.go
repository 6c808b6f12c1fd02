package onair

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/radiopipe/core"
)

type stubFetcher struct {
	body []byte
	err  error
	urls []string
}

func (s *stubFetcher) Fetch(_ context.Context, u string) (*core.FetchResult, error) {
	s.urls = append(s.urls, u)
	if s.err != nil {
		return nil, s.err
	}
	return &core.FetchResult{URL: u, StatusCode: 200, Body: s.body}, nil
}

var program = core.ProgramRecord{
	Station:   core.StationChannel{ID: "TBS"},
	ID:        7,
	StartTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	EndTime:   time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
}

const tracksJSON = `{"data":[
 {"artist_name":"ﾓｰﾆﾝｸﾞ娘。","title":"Ｌｏｖｅ","displayed_start_time":"2024-01-01T09:05:30+09:00","music":{"image":{"large":"https://img/l.jpg"}}},
 {"artist_name":"NoImage","title":"t","displayed_start_time":"2024-01-01T08:59:00+09:00","music":null},
 {"artist_name":"Broken","title":"t","displayed_start_time":"yesterday"},
 {"title":"no artist","displayed_start_time":"2024-01-01T09:10:00+09:00"}
]}`

func TestTracks(t *testing.T) {
	f := &stubFetcher{body: []byte(tracksJSON)}
	tracks, err := NewClient(f, "https://api.example.com/v1/", zerolog.Nop()).Tracks(context.Background(), program)
	require.NoError(t, err)

	require.Len(t, tracks, 2)
	assert.Equal(t, core.OnAirTrack{
		ArtistName:      "モーニング娘。",
		ArtworkURL:      "https://img/l.jpg",
		OffsetFromStart: core.Seconds(5*time.Minute + 30*time.Second),
		MusicTitle:      "Love",
	}, tracks[0])
	assert.Equal(t, "", tracks[1].ArtworkURL)
	assert.Equal(t, -time.Minute, tracks[1].OffsetFromStart.Duration())

	require.Len(t, f.urls, 1)
	u, err := url.Parse(f.urls[0])
	require.NoError(t, err)
	assert.Equal(t, "/v1/noas/TBS", u.Path)
	assert.Equal(t, "2024-01-01T09:00:00+09:00", u.Query().Get("start_time_gte"))
	assert.Equal(t, "2024-01-01T10:00:00+09:00", u.Query().Get("end_time_lt"))
}

func TestTracksFetchError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewClient(&stubFetcher{err: boom}, "", zerolog.Nop()).Tracks(context.Background(), program)
	assert.ErrorIs(t, err, boom)
}

func TestDecodeBadJSON(t *testing.T) {
	_, err := Decode([]byte("<html>"), program.StartTime, zerolog.Nop())
	assert.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	tracks, err := Decode([]byte(`{"data":[]}`), program.StartTime, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(program, program.EndTime.Add(time.Second)))
	assert.False(t, Eligible(program, program.EndTime))
	assert.False(t, Eligible(program, program.StartTime))
}

func TestDefaultBaseURL(t *testing.T) {
	f := &stubFetcher{body: []byte(`{"data":[]}`)}
	_, err := NewClient(f, "", zerolog.Nop()).Tracks(context.Background(), program)
	require.NoError(t, err)
	assert.Contains(t, f.urls[0], DefaultBaseURL+"/noas/TBS?")
}
