// Package render turns the enriched listing into the static HTML page.
//
// Each event becomes a small fragment (date, artist with an optional POPULAR
// badge, venue). Fragments are concatenated in input order and substituted
// into a page template loaded from disk. Scraped text is escaped by
// html/template in both steps.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/pfrederiksen/jazz-events/internal/event"
)

// fragmentTemplate is the markup emitted for a single event
const fragmentTemplate = `
<div>
    <h3>{{.Date}}</h3>
    <h3>{{.Artist}}{{.Badge}}</h3>
    <h4>{{.Venue}}</h4>
    </div>`

var fragment = template.Must(template.New("event").Parse(fragmentTemplate))

type fragmentData struct {
	Date   string
	Artist string
	Badge  string
	Venue  string
}

// PageData is passed to the page template
type PageData struct {
	Events      template.HTML // concatenated, already escaped event fragments
	Count       int
	Popular     int
	GeneratedAt string
}

// Badge returns the popularity marker appended to an artist name, or "" when
// the event is below the threshold or was never matched
func Badge(evt *event.Event) string {
	if !evt.IsPopular() {
		return ""
	}
	return fmt.Sprintf(" - POPULAR [%d]", evt.PopularityValue())
}

// Fragment renders one event
func Fragment(evt *event.Event) (string, error) {
	var buf bytes.Buffer
	err := fragment.Execute(&buf, fragmentData{
		Date:   evt.Date,
		Artist: evt.Artist,
		Badge:  Badge(evt),
		Venue:  evt.Venue,
	})
	if err != nil {
		return "", fmt.Errorf("rendering event %s: %w", evt.URL, err)
	}
	return buf.String(), nil
}

// Fragments renders and concatenates all events in input order
func Fragments(events []*event.Event) (template.HTML, error) {
	var buf bytes.Buffer
	for _, evt := range events {
		f, err := Fragment(evt)
		if err != nil {
			return "", err
		}
		buf.WriteString(f)
	}
	// Every fragment was produced by html/template, so the result is safe
	return template.HTML(buf.String()), nil
}

// Renderer fills a page template with the rendered listing
type Renderer struct {
	page *template.Template
}

// New parses page as the page template. The template receives PageData and
// should place {{.Events}} where the listing belongs
func New(page string) (*Renderer, error) {
	tmpl, err := template.New("page").Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Renderer{page: tmpl}, nil
}

// Load reads and parses the page template at path
func Load(path string) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page template: %w", err)
	}
	return New(string(data))
}

// Render produces the complete document
func (r *Renderer) Render(events []*event.Event, generatedAt time.Time) ([]byte, error) {
	body, err := Fragments(events)
	if err != nil {
		return nil, err
	}

	popular := 0
	for _, evt := range events {
		if evt.IsPopular() {
			popular++
		}
	}

	var buf bytes.Buffer
	err = r.page.Execute(&buf, PageData{
		Events:      body,
		Count:       len(events),
		Popular:     popular,
		GeneratedAt: generatedAt.Format("Mon, 02 Jan 2006 15:04 MST"),
	})
	if err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	return buf.Bytes(), nil
}
