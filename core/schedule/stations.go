package schedule

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/radiopipe/core"
	"github.com/gaurav-prasanna/radiopipe/core/normalize"
)

var stationKeys = map[string]bool{"id": true, "name": true, "banner": true, "area_id": true}

type stationNode struct {
	Children []textElement `xml:",any"`
}

type regionDoc struct {
	Stations []stationNode `xml:"stations>station"`
}

// ParseStations reads a region station list. Stations missing any of id,
// name, banner or area_id are skipped with a warning.
func ParseStations(r io.Reader, logger zerolog.Logger) ([]core.StationChannel, error) {
	var doc regionDoc
	if err := newDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding station list: %w", err)
	}

	stations := make([]core.StationChannel, 0, len(doc.Stations))
	for i, node := range doc.Stations {
		st, err := Station(flatten(node.Children, stationKeys))
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("skipping incomplete station")
			continue
		}
		stations = append(stations, st)
	}
	return stations, nil
}

// Station builds a StationChannel from its flattened fields.
func Station(f Fields) (core.StationChannel, error) {
	var st core.StationChannel
	var ok bool
	if st.ID, ok = f.Get("id"); !ok {
		return st, core.MissingField("id")
	}
	name, ok := f.Get("name")
	if !ok {
		return st, core.MissingField("name")
	}
	st.Name = normalize.Text(name)
	if st.BannerURL, ok = f.Get("banner"); !ok {
		return st, core.MissingField("banner")
	}
	if st.AreaID, ok = f.Get("area_id"); !ok {
		return st, core.MissingField("area_id")
	}
	return st, nil
}
