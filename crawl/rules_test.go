package crawl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gaurav-prasanna/radiopipe/core"
)

func TestValidStationID(t *testing.T) {
	for _, id := range []string{"TBS", "FMT", "HOUSOU-DAIGAKU", "RN1", "JOAK_FM"} {
		assert.True(t, ValidStationID(id), id)
	}
	for _, id := range []string{"", "A B", "../etc", "-X", "TBS/xml"} {
		assert.False(t, ValidStationID(id), id)
	}
}

func TestScheduleURLUsesStationDate(t *testing.T) {
	// 16:00 UTC on Jan 1 is already Jan 2 in station time.
	d := time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC)
	assert.Equal(t,
		"https://radiko.jp/v3/program/station/date/20240102/TBS.xml",
		ScheduleURL(DefaultScheduleURLTemplate, d, "TBS"))
}

func TestDates(t *testing.T) {
	from := time.Date(2024, 2, 28, 20, 0, 0, 0, time.UTC) // Feb 29 05:00 JST
	got := Dates(from, 3)
	var days []string
	for _, d := range got {
		days = append(days, d.Format("2006-01-02 15:04 MST"))
	}
	assert.Equal(t, []string{"2024-02-29 00:00 JST", "2024-03-01 00:00 JST", "2024-03-02 00:00 JST"}, days)

	assert.Empty(t, Dates(from, 0))
	assert.Empty(t, Dates(from, -1))
}

func TestFilterStations(t *testing.T) {
	all := []core.StationChannel{{ID: "TBS"}, {ID: "QRR"}, {ID: "LFR"}}
	assert.Equal(t, all, FilterStations(all, nil))
	assert.Equal(t, []core.StationChannel{{ID: "TBS"}, {ID: "LFR"}}, FilterStations(all, []string{"LFR", " TBS "}))
	assert.Empty(t, FilterStations(all, []string{"NOPE"}))
}

func TestIsStale(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := core.ProgramRecord{EndTime: now.Add(-5 * time.Hour)}
	assert.True(t, IsStale(p, now, 4*time.Hour))
	assert.False(t, IsStale(p, now, 6*time.Hour))
	assert.False(t, IsStale(p, now, 0))
}

func TestDropStale(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	progs := []core.ProgramRecord{
		{ID: 1, EndTime: now.Add(-5 * time.Hour)},
		{ID: 2, EndTime: now.Add(-time.Hour)},
		{ID: 3, EndTime: now.Add(time.Hour)},
	}
	kept := DropStale(progs, now, 4*time.Hour)
	assert.Len(t, kept, 2)
	assert.Equal(t, uint64(2), kept[0].ID)
	assert.Equal(t, uint64(1), progs[0].ID, "input is not modified")
}
