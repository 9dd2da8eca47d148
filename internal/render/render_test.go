package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/jazz-events/internal/event"
)

func testEvent(artist string, popularity *int) *event.Event {
	evt := event.New("19 Oct Mon", artist, "8 PM", "Smalls, West Village", "https://www.hothousejazz.com/event_detail/1")
	if popularity != nil {
		evt.SetPopularity(*popularity)
	}
	return evt
}

func intPtr(n int) *int { return &n }

func TestFragment_Badge(t *testing.T) {
	tests := []struct {
		name        string
		popularity  *int
		wantPopular bool
		wantBadge   string
	}{
		{name: "no popularity", popularity: nil, wantPopular: false},
		{name: "popularity 10", popularity: intPtr(10), wantPopular: false},
		{name: "popularity 24", popularity: intPtr(24), wantPopular: false},
		{name: "popularity 25", popularity: intPtr(25), wantPopular: true, wantBadge: " - POPULAR [25]"},
		{name: "popularity 30", popularity: intPtr(30), wantPopular: true, wantBadge: " - POPULAR [30]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fragment(testEvent("John Doe Quartet", tt.popularity))
			if err != nil {
				t.Fatalf("Fragment() error = %v", err)
			}

			if strings.Contains(got, "POPULAR") != tt.wantPopular {
				t.Errorf("POPULAR present = %v, want %v\n%s", !tt.wantPopular, tt.wantPopular, got)
			}
			if tt.wantPopular {
				want := "<h3>John Doe Quartet" + tt.wantBadge + "</h3>"
				if !strings.Contains(got, want) {
					t.Errorf("fragment missing %q\n%s", want, got)
				}
			}
		})
	}
}

func TestFragment_Layout(t *testing.T) {
	got, err := Fragment(testEvent("Ron Carter", nil))
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}

	want := "\n<div>\n    <h3>19 Oct Mon</h3>\n    <h3>Ron Carter</h3>\n    <h4>Smalls, West Village</h4>\n    </div>"
	if got != want {
		t.Errorf("Fragment() =\n%q\nwant\n%q", got, want)
	}
}

func TestFragment_EscapesScrapedText(t *testing.T) {
	evt := event.New("19 Oct Mon", `<script>alert("x")</script>`, "8 PM", "Tom & Jerry's", "https://example.com/event_detail/1")

	got, err := Fragment(evt)
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}

	if strings.Contains(got, "<script>") {
		t.Errorf("fragment contains unescaped markup:\n%s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("fragment missing escaped artist:\n%s", got)
	}
	if !strings.Contains(got, "Tom &amp; Jerry&#39;s") {
		t.Errorf("fragment missing escaped venue:\n%s", got)
	}
}

func TestFragments_PreservesOrder(t *testing.T) {
	events := []*event.Event{
		testEvent("First Act", intPtr(5)),
		testEvent("Second Act", intPtr(90)),
		testEvent("Third Act", nil),
	}

	got, err := Fragments(events)
	if err != nil {
		t.Fatalf("Fragments() error = %v", err)
	}

	s := string(got)
	first := strings.Index(s, "First Act")
	second := strings.Index(s, "Second Act")
	third := strings.Index(s, "Third Act")
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("missing events in output:\n%s", s)
	}
	if !(first < second && second < third) {
		t.Errorf("events out of order: first=%d second=%d third=%d", first, second, third)
	}
	if strings.Count(s, "<div>") != 3 {
		t.Errorf("expected 3 fragments, got %d", strings.Count(s, "<div>"))
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := New(`<html><body><p>{{.Count}} shows, {{.Popular}} popular</p>{{.Events}}</body></html>`)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	events := []*event.Event{
		testEvent("Ron Carter", intPtr(55)),
		testEvent("<b>Bold</b>", nil),
	}

	doc, err := r.Render(events, time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	s := string(doc)
	if !strings.Contains(s, "<p>2 shows, 1 popular</p>") {
		t.Errorf("missing summary line:\n%s", s)
	}
	// Fragments are inserted as markup, not re-escaped
	if !strings.Contains(s, "<div>\n    <h3>19 Oct Mon</h3>") {
		t.Errorf("fragment markup was escaped:\n%s", s)
	}
	if !strings.Contains(s, "Ron Carter - POPULAR [55]") {
		t.Errorf("missing badge:\n%s", s)
	}
	if strings.Contains(s, "<b>Bold</b>") {
		t.Errorf("scraped markup not escaped:\n%s", s)
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	if _, err := New("{{.Events"); err == nil {
		t.Error("New() expected error for malformed template")
	}
}

func TestLoad_RendersTemplateFile(t *testing.T) {
	tmplPath := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(tmplPath, []byte("<main>{{.Events}}</main>"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(tmplPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := r.Render([]*event.Event{testEvent("Ron Carter", nil)}, time.Now())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.HasPrefix(string(got), "<main>\n<div>") || !strings.HasSuffix(string(got), "</div></main>") {
		t.Errorf("unexpected document:\n%s", got)
	}
}

func TestLoad_MissingTemplate(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("Load() expected error for missing template")
	}
}
