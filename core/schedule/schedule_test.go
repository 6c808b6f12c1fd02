package schedule

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/radiopipe/core"
)

const stationList = `<?xml version="1.0" encoding="UTF-8"?>
<region>
  <stations area_id="JP13" area_name="TOKYO JAPAN">
    <station>
      <id>TBS</id>
      <name>ＴＢＳラジオ</name>
      <ascii_name>TBS RADIO</ascii_name>
      <banner>https://radiko.jp/res/banner/TBS/logo.png</banner>
      <area_id>JP13</area_id>
    </station>
    <station>
      <id>QRR</id>
      <name>文化放送</name>
      <area_id>JP13</area_id>
    </station>
  </stations>
  <stations area_id="JP27">
    <station>
      <id>ABC</id>
      <name>ABCラジオ</name>
      <banner>https://radiko.jp/res/banner/ABC/logo.png</banner>
      <area_id>JP27</area_id>
    </station>
  </stations>
</region>`

func TestParseStations(t *testing.T) {
	var logs bytes.Buffer
	stations, err := ParseStations(strings.NewReader(stationList), zerolog.New(&logs))
	require.NoError(t, err)

	require.Len(t, stations, 2)
	assert.Equal(t, core.StationChannel{
		ID:        "TBS",
		Name:      "TBSラジオ",
		BannerURL: "https://radiko.jp/res/banner/TBS/logo.png",
		AreaID:    "JP13",
	}, stations[0])
	assert.Equal(t, "ABC", stations[1].ID)
	assert.Contains(t, logs.String(), "skipping incomplete station")
}

func TestParseStationsRejectsGarbage(t *testing.T) {
	_, err := ParseStations(strings.NewReader(""), zerolog.Nop())
	assert.Error(t, err)
}

func TestStationMissingField(t *testing.T) {
	f := Fields{}
	f.Set("id", "TBS")
	f.Set("name", "x")
	f["banner"] = nil
	_, err := Station(f)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingField))
	assert.Contains(t, err.Error(), "banner")
}

const scheduleDocXML = `<?xml version="1.0" encoding="UTF-8"?>
<radiko>
  <ttl>1800</ttl>
  <stations>
    <station id="TBS">
      <name>TBSラジオ</name>
      <progs>
        <date>20240101</date>
        <prog id="1001" master_id="" ft="20240101090000" to="20240101093000" ftl="0900" tol="0930" dur="1800">
          <title>Morning &amp; Show</title>
          <url>https://example.com</url>
          <info><![CDATA[<p>ゲスト <b>高橋愛</b></p>]]></info>
          <desc></desc>
          <pfm>ＤＪ太郎</pfm>
          <img>https://example.com/img.png</img>
        </prog>
        <prog id="1002" ft="20240101093000" to="20240101100000" dur="1800">
          <title><b>nested</b></title>
          <title>late &nbsp;title</title>
        </prog>
      </progs>
    </station>
  </stations>
</radiko>`

func TestParseSchedule(t *testing.T) {
	entries, err := ParseSchedule(strings.NewReader(scheduleDocXML))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "TBS", first.StationID)

	v, ok := first.Fields.Get("title")
	require.True(t, ok)
	assert.Equal(t, "Morning & Show", v)

	v, ok = first.Fields.Get("info")
	require.True(t, ok)
	assert.Equal(t, "<p>ゲスト <b>高橋愛</b></p>", v)

	_, present := first.Fields["desc"]
	assert.True(t, present, "empty desc is recorded")
	assert.Nil(t, first.Fields.Lookup("desc"))

	for key, want := range map[string]string{"id": "1001", "ft": "20240101090000", "to": "20240101093000", "dur": "1800", "pfm": "ＤＪ太郎", "img": "https://example.com/img.png"} {
		got, ok := first.Fields.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	_, hasURL := first.Fields["url"]
	assert.False(t, hasURL, "unlisted children are ignored")

	second := entries[1]
	v, ok = second.Fields.Get("title")
	require.True(t, ok, "last title element wins")
	assert.Equal(t, "late  title", v)
}

func TestAttributesOverrideChildren(t *testing.T) {
	doc := `<radiko><stations><station id="X"><progs>
<prog id="1" title="from attr"><title>from child</title></prog>
</progs></station></stations></radiko>`
	entries, err := ParseSchedule(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	v, _ := entries[0].Fields.Get("title")
	assert.Equal(t, "from attr", v)
}

func TestFirstChildElementGivesNil(t *testing.T) {
	doc := `<radiko><stations><station id="X"><progs>
<prog id="1"><info><p>x</p>tail</info><pfm>a<!-- c -->b</pfm></prog>
</progs></station></stations></radiko>`
	entries, err := ParseSchedule(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Fields.Lookup("info"))
	v, ok := entries[0].Fields.Get("pfm")
	require.True(t, ok)
	assert.Equal(t, "a", v)
}
