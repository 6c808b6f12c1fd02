package core

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	// Retention is how long a program stays in the document store after it ends.
	Retention = 14 * 24 * time.Hour

	// StationTimeLayout is the compact timestamp format used by the upstream
	// schedule and by the link builders.
	StationTimeLayout = "20060102150405"
)

// StationZone is the fixed UTC+9 offset every upstream timestamp is expressed in.
var StationZone = time.FixedZone("JST", 9*60*60)

// StationChannel describes one broadcast station.
type StationChannel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BannerURL string `json:"banner_url"`
	AreaID    string `json:"area_id"`
}

// Seconds is a duration that serializes as a whole number of seconds.
type Seconds time.Duration

// Duration returns s as a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

func (s Seconds) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(time.Duration(s)/time.Second), 10), nil
}

func (s *Seconds) UnmarshalJSON(b []byte) error {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("decoding seconds: %w", err)
	}
	*s = Seconds(time.Duration(n) * time.Second)
	return nil
}

// OnAirTrack is one song played during a program.
type OnAirTrack struct {
	ArtistName string `json:"artist_name"`
	ArtworkURL string `json:"artwork_url"`
	// OffsetFromStart is measured from the program start and may be negative
	// when upstream clocks disagree.
	OffsetFromStart Seconds `json:"start_time"`
	MusicTitle      string  `json:"music_title"`
}

// ProgramRecord is one scheduled broadcast on one station.
// Optional text fields are nil when the upstream entry had no value.
type ProgramRecord struct {
	Station     StationChannel `json:"radio_channel"`
	ID          uint64         `json:"id"`
	StartTime   time.Time      `json:"ft"`
	EndTime     time.Time      `json:"to"`
	Duration    Seconds        `json:"dur"`
	Title       string         `json:"title"`
	ImageURL    *string        `json:"img"`
	Info        *string        `json:"info"`
	Description *string        `json:"desc"`
	Performers  *string        `json:"pfm"`
	OnAirTracks []OnAirTrack   `json:"on_air_music"`
}

// ExpireAt is the instant after which the record may be purged. It is always
// derived from EndTime.
func (p ProgramRecord) ExpireAt() time.Time {
	return p.EndTime.Add(Retention)
}

// MarshalJSON adds the derived expire_at field to the stored document.
func (p ProgramRecord) MarshalJSON() ([]byte, error) {
	type plain ProgramRecord
	return json.Marshal(struct {
		plain
		ExpireAt time.Time `json:"expire_at"`
	}{plain(p), p.ExpireAt()})
}

// DeepLink returns the mobile-app link that opens this program.
func (p ProgramRecord) DeepLink() string {
	q := url.Values{}
	q.Set("deep_link_sub1", p.Station.ID)
	q.Set("deep_link_sub2", p.StartTime.In(StationZone).Format(StationTimeLayout))
	q.Set("deep_link_value", strconv.FormatUint(p.ID, 10))
	return "radiko://radiko.onelink.me/?" + q.Encode()
}

// TimeFreeURL returns the web player URL an external downloader can consume.
func (p ProgramRecord) TimeFreeURL() string {
	return fmt.Sprintf("https://radiko.jp/#!/ts/%s/%s",
		p.Station.ID, p.StartTime.In(StationZone).Format(StationTimeLayout))
}

func (p ProgramRecord) String() string {
	return fmt.Sprintf("%s %d %s-%s %s", p.Station.ID, p.ID,
		p.StartTime.In(StationZone).Format("01/02 15:04"),
		p.EndTime.In(StationZone).Format("15:04"), p.Title)
}

// Match pairs a program with one artist it mentions.
type Match struct {
	Artist  string        `json:"artist"`
	Program ProgramRecord `json:"program"`
}
