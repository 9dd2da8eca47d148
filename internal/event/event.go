package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// PopularThreshold is the minimum popularity that earns the POPULAR badge
const PopularThreshold = 25

// ensembleSuffixes are stripped from artist names before searching.
// Order matters: the first matching suffix wins and only one is removed
var ensembleSuffixes = []string{
	" Qrt",
	" Qnt",
	" Trio",
	" Gp",
	" Quartet",
	" Quintet",
}

// Event represents one listing on the venue calendar
type Event struct {
	Date       string `json:"date"`   // Display date, e.g. "19 Oct Sat"
	Artist     string `json:"artist"` // Display name, may include an ensemble suffix
	Time       string `json:"time"`
	Venue      string `json:"venue"` // "Venue name, Neighbourhood"
	URL        string `json:"url"`
	Popularity *int   `json:"popularity,omitempty"`
}

// New creates an Event from extracted fields, trimming surrounding whitespace
func New(date, artist, showtime, venue, url string) *Event {
	return &Event{
		Date:   strings.TrimSpace(date),
		Artist: strings.TrimSpace(artist),
		Time:   strings.TrimSpace(showtime),
		Venue:  strings.TrimSpace(venue),
		URL:    strings.TrimSpace(url),
	}
}

// ID returns a deterministic identifier for the event
func (e *Event) ID() string {
	h := sha1.New()
	h.Write([]byte(e.URL + "|" + e.Date + "|" + e.Artist))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// SetPopularity attaches a popularity score
func (e *Event) SetPopularity(popularity int) {
	p := popularity
	e.Popularity = &p
}

// HasPopularity reports whether a confident artist match was found
func (e *Event) HasPopularity() bool {
	return e.Popularity != nil
}

// PopularityValue returns the popularity score, or 0 when none was attached
func (e *Event) PopularityValue() int {
	if e.Popularity == nil {
		return 0
	}
	return *e.Popularity
}

// IsPopular reports whether the event earns the POPULAR badge
func (e *Event) IsPopular() bool {
	return e.HasPopularity() && *e.Popularity >= PopularThreshold
}

// NormalizedArtist returns the artist name used for external lookups
func (e *Event) NormalizedArtist() string {
	return NormalizeArtist(e.Artist)
}

// NormalizeArtist strips one trailing ensemble-size suffix ("Trio", "Qrt", ...)
// from an artist name. Names without a known suffix are returned trimmed but
// otherwise unchanged
func NormalizeArtist(name string) string {
	name = strings.TrimSpace(name)
	for _, suffix := range ensembleSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(name, suffix))
		}
	}
	return name
}
