// Package program builds validated ProgramRecords from flattened schedule
// entries.
package program

import (
	"strconv"
	"time"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/normalize"
	"github.com/gaurav-prasanna/radiopipe/core/schedule"
)

const (
	stationOffset = "+0900"
	timeLayout    = core.StationTimeLayout + " -0700"
)

// Builder turns schedule fields into records. It holds no state besides the
// converter and is safe for concurrent use when the converter is.
type Builder struct {
	converter core.Converter
}

// NewBuilder creates a Builder that runs info and desc through converter.
func NewBuilder(converter core.Converter) *Builder {
	return &Builder{converter: converter}
}

// Build validates fields and returns a complete record, or a *core.FieldError
// naming the first offending field.
func (b *Builder) Build(fields schedule.Fields, station core.StationChannel) (*core.ProgramRecord, error) {
	raw, err := required(fields, "id")
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, core.ParseFailure("id", err)
	}

	start, err := requiredTime(fields, "ft")
	if err != nil {
		return nil, err
	}
	end, err := requiredTime(fields, "to")
	if err != nil {
		return nil, err
	}

	raw, err = required(fields, "dur")
	if err != nil {
		return nil, err
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, core.ParseFailure("dur", err)
	}

	title, err := required(fields, "title")
	if err != nil {
		return nil, err
	}

	return &core.ProgramRecord{
		Station:     station,
		ID:          id,
		StartTime:   start,
		EndTime:     end,
		Duration:    core.Seconds(time.Duration(secs) * time.Second),
		Title:       normalize.Text(title),
		ImageURL:    copyOptional(fields.Lookup("img")),
		Info:        b.convert(fields.Lookup("info")),
		Description: b.convert(fields.Lookup("desc")),
		Performers:  normalize.Optional(fields.Lookup("pfm")),
		OnAirTracks: []core.OnAirTrack{},
	}, nil
}

// ParseStationTime parses a compact upstream timestamp, which is always in
// UTC+9, and returns it in UTC.
func ParseStationTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s+" "+stationOffset)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (b *Builder) convert(v *string) *string {
	if v == nil {
		return nil
	}
	out := normalize.Text(b.converter.ConvertFragment(*v))
	return &out
}

func required(fields schedule.Fields, key string) (string, error) {
	v, ok := fields.Get(key)
	if !ok {
		return "", core.MissingField(key)
	}
	return v, nil
}

func requiredTime(fields schedule.Fields, key string) (time.Time, error) {
	raw, err := required(fields, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseStationTime(raw)
	if err != nil {
		return time.Time{}, core.ParseFailure(key, err)
	}
	return t, nil
}

func copyOptional(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
