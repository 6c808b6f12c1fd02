// Package crawl — endpoint and planning rules.
// Builds upstream URLs, validates station ids and lays out the days to fetch.
package crawl

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gaurav-prasanna/radiopipe/core"
)

const (
	// DefaultStationListURL lists every station in every region.
	DefaultStationListURL = "https://radiko.jp/v3/station/region/full.xml"
	// DefaultScheduleURLTemplate takes a YYYYMMDD date and a station id.
	DefaultScheduleURLTemplate = "https://radiko.jp/v3/program/station/date/%s/%s.xml"
)

var stationIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidStationID reports whether id is safe to splice into a URL path.
func ValidStationID(id string) bool {
	return stationIDPattern.MatchString(id)
}

// ScheduleURL fills tmpl with the station-local date and the station id.
func ScheduleURL(tmpl string, date time.Time, stationID string) string {
	return fmt.Sprintf(tmpl, date.In(core.StationZone).Format("20060102"), url.PathEscape(stationID))
}

// Dates returns days consecutive station-local calendar days starting with
// the day that contains from.
func Dates(from time.Time, days int) []time.Time {
	local := from.In(core.StationZone)
	first := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, core.StationZone)
	out := make([]time.Time, 0, max(days, 0))
	for i := 0; i < days; i++ {
		out = append(out, first.AddDate(0, 0, i))
	}
	return out
}

// FilterStations keeps the stations whose ids appear in allow. An empty
// allow list keeps everything.
func FilterStations(stations []core.StationChannel, allow []string) []core.StationChannel {
	if len(allow) == 0 {
		return stations
	}
	keep := make(map[string]bool, len(allow))
	for _, id := range allow {
		keep[strings.TrimSpace(id)] = true
	}
	out := make([]core.StationChannel, 0, len(allow))
	for _, st := range stations {
		if keep[st.ID] {
			out = append(out, st)
		}
	}
	return out
}

// IsStale reports whether p ended more than staleAfter before now. A zero
// staleAfter disables the check.
func IsStale(p core.ProgramRecord, now time.Time, staleAfter time.Duration) bool {
	if staleAfter <= 0 {
		return false
	}
	return p.EndTime.Before(now.Add(-staleAfter))
}
