package schedule

import (
	"encoding/xml"
	"io"
	"strings"
)

// textElement captures an element's name and the text of its first child
// node. Text stays nil when the element is empty or starts with a nested
// element.
type textElement struct {
	Name string
	Text *string
}

func (e *textElement) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	e.Name = start.Name.Local

	var text strings.Builder
	seen, closed := false, false
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				closed = true
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				if seen {
					s := text.String()
					e.Text = &s
				}
				return nil
			}
			depth--
		case xml.CharData:
			if depth == 0 && !closed {
				text.Write(t)
				seen = true
			}
		case xml.Comment, xml.ProcInst, xml.Directive:
			if depth == 0 {
				closed = true
			}
		}
	}
}

// flatten copies the wanted child elements into a Fields map. A repeated
// element overwrites the earlier one.
func flatten(children []textElement, wanted map[string]bool) Fields {
	f := make(Fields, len(wanted))
	for _, c := range children {
		if wanted[c.Name] {
			f[c.Name] = c.Text
		}
	}
	return f
}

// newDecoder returns a decoder that tolerates HTML entities and unquoted
// attributes. AutoClose stays off because <img> is a real element here.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	return dec
}
