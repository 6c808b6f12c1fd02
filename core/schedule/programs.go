package schedule

import (
	"encoding/xml"
	"fmt"
	"io"
)

// progKeys are the child elements of <prog> carried into Fields. Attributes
// (id, ft, to, dur, ...) are merged on top.
var progKeys = map[string]bool{"title": true, "img": true, "info": true, "desc": true, "pfm": true}

type progNode struct {
	Attrs    []xml.Attr    `xml:",any,attr"`
	Children []textElement `xml:",any"`
}

type scheduleDoc struct {
	Stations []struct {
		ID    string `xml:"id,attr"`
		Progs []struct {
			Prog []progNode `xml:"prog"`
		} `xml:"progs"`
	} `xml:"stations>station"`
}

// Entry is one flattened <prog> along with the station it was listed under.
type Entry struct {
	StationID string
	Fields    Fields
}

// ParseSchedule reads a per-station, per-day schedule document and returns
// one Entry per <prog>, in document order.
func ParseSchedule(r io.Reader) ([]Entry, error) {
	var doc scheduleDoc
	if err := newDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding schedule: %w", err)
	}

	var entries []Entry
	for _, st := range doc.Stations {
		for _, progs := range st.Progs {
			for _, p := range progs.Prog {
				entries = append(entries, Entry{StationID: st.ID, Fields: p.fields()})
			}
		}
	}
	return entries, nil
}

func (p progNode) fields() Fields {
	f := flatten(p.Children, progKeys)
	for _, a := range p.Attrs {
		f.Set(a.Name.Local, a.Value)
	}
	return f
}
