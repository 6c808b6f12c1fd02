// Package onair fetches the list of songs played during a finished program.
package onair

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/logging"
	"github.com/gaurav-prasanna/radiopipe/core/normalize"
)

// DefaultBaseURL is the music API root.
const DefaultBaseURL = "https://api.radiko.jp/music/api/v1"

// Eligible reports whether p has finished airing by now, which is when its
// track list becomes available.
func Eligible(p core.ProgramRecord, now time.Time) bool {
	return p.EndTime.Before(now)
}

// Client queries the on-air music endpoint.
type Client struct {
	fetcher core.Fetcher
	baseURL string
	logger  zerolog.Logger
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(fetcher core.Fetcher, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/"), logger: logger}
}

// URL builds the track-list request for a station and time window.
func URL(baseURL, stationID string, start, end time.Time) string {
	q := url.Values{}
	q.Set("start_time_gte", start.In(core.StationZone).Format(time.RFC3339))
	q.Set("end_time_lt", end.In(core.StationZone).Format(time.RFC3339))
	return fmt.Sprintf("%s/noas/%s?%s", baseURL, url.PathEscape(stationID), q.Encode())
}

// Tracks returns the songs played during p.
func (c *Client) Tracks(ctx context.Context, p core.ProgramRecord) ([]core.OnAirTrack, error) {
	res, err := c.fetcher.Fetch(ctx, URL(c.baseURL, p.Station.ID, p.StartTime, p.EndTime))
	if err != nil {
		return nil, fmt.Errorf("fetching on-air tracks for %s/%d: %w", p.Station.ID, p.ID, err)
	}
	logger := logging.WithContext(ctx, c.logger).With().
		Str(logging.FieldStationID, p.Station.ID).
		Uint64(logging.FieldProgramID, p.ID).
		Logger()
	return Decode(res.Body, p.StartTime, logger)
}

type response struct {
	Data []entry `json:"data"`
}

type entry struct {
	ArtistName         *string `json:"artist_name"`
	Title              *string `json:"title"`
	DisplayedStartTime *string `json:"displayed_start_time"`
	Music              *struct {
		Image *struct {
			Large string `json:"large"`
		} `json:"image"`
	} `json:"music"`
}

// Decode parses a track-list response. Entries without an artist, title or
// parseable start time are skipped.
func Decode(body []byte, programStart time.Time, logger zerolog.Logger) ([]core.OnAirTrack, error) {
	var res response
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decoding on-air tracks: %w", err)
	}

	tracks := make([]core.OnAirTrack, 0, len(res.Data))
	for i, e := range res.Data {
		if e.ArtistName == nil || e.Title == nil || e.DisplayedStartTime == nil {
			logger.Debug().Int("index", i).Msg("skipping incomplete on-air entry")
			continue
		}
		played, err := time.Parse(time.RFC3339, *e.DisplayedStartTime)
		if err != nil {
			logger.Debug().Err(err).Int("index", i).Msg("skipping on-air entry with bad start time")
			continue
		}
		var artwork string
		if e.Music != nil && e.Music.Image != nil {
			artwork = e.Music.Image.Large
		}
		tracks = append(tracks, core.OnAirTrack{
			ArtistName:      normalize.Text(*e.ArtistName),
			ArtworkURL:      artwork,
			OffsetFromStart: core.Seconds(played.Sub(programStart)),
			MusicTitle:      normalize.Text(*e.Title),
		})
	}
	return tracks, nil
}
