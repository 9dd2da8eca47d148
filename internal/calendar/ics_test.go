package calendar

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/jazz-events/internal/event"
)

var ref = time.Date(2026, time.October, 19, 6, 0, 0, 0, time.UTC)

func testEvents() []*event.Event {
	popular := event.New("19 Oct Mon", "Ron Carter Trio", "7:30 PM", "Village Vanguard", "https://www.hothousejazz.com/event_detail/40211")
	popular.SetPopularity(55)
	plain := event.New("20 Oct Tue", "Bill Charlap Trio", "8 PM", "Birdland", "https://www.hothousejazz.com/event_detail/40250")
	return []*event.Event{popular, plain}
}

func TestGenerate(t *testing.T) {
	ics, skipped, err := Generate(testEvents(), ref)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Jazz Events//jazz-events//EN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"DTSTART;VALUE=DATE:20261019",
		"DTSTART;VALUE=DATE:20261020",
		"SUMMARY:Ron Carter Trio (popular 55)",
		"SUMMARY:Bill Charlap Trio",
		"LOCATION:Village Vanguard",
		"URL:https://www.hothousejazz.com/event_detail/40211",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	if !strings.Contains(ics, "\r\n") {
		t.Error("ICS should use \\r\\n line endings")
	}
}

func TestBuild_UIDsAreStable(t *testing.T) {
	events := testEvents()

	first, _ := Build(events, ref)
	second, _ := Build(events, ref)

	a, b := first.Events(), second.Events()
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("got %d and %d events, want 2", len(a), len(b))
	}
	for i := range a {
		if a[i].Id() != b[i].Id() {
			t.Errorf("UID %d differs between runs: %q vs %q", i, a[i].Id(), b[i].Id())
		}
		want := events[i].ID() + "@jazz-events"
		if a[i].Id() != want {
			t.Errorf("UID = %q, want %q", a[i].Id(), want)
		}
	}
	if a[0].Id() == a[1].Id() {
		t.Error("distinct events share a UID")
	}
}

func TestBuild_SkipsUnparseableDates(t *testing.T) {
	events := append(testEvents(), event.New("TBA", "Mystery Band", "", "Smalls", "https://www.hothousejazz.com/event_detail/1"))

	cal, skipped := Build(events, ref)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if got := len(cal.Events()); got != 2 {
		t.Errorf("calendar has %d events, want 2", got)
	}
}

func TestBuild_YearRollover(t *testing.T) {
	december := time.Date(2026, time.December, 20, 0, 0, 0, 0, time.UTC)
	events := []*event.Event{event.New("03 Jan Sun", "New Year Band", "", "Smalls", "https://www.hothousejazz.com/event_detail/2")}

	ics, _, err := Generate(events, december)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(ics, "DTSTART;VALUE=DATE:20270103") {
		t.Errorf("expected event in following year:\n%s", ics)
	}
}

func TestGenerate_RoundTrip(t *testing.T) {
	ics, _, err := Generate(testEvents(), ref)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(ics))
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}

	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("parsed %d events, want 2", len(events))
	}
	if got := events[1].GetProperty(ical.ComponentPropertySummary).Value; got != "Bill Charlap Trio" {
		t.Errorf("summary = %q", got)
	}
}

func TestGenerate_CRLFLineEndings(t *testing.T) {
	ics, _, err := Generate(testEvents(), ref)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Errorf("calendar should end with END:VCALENDAR and CRLF, got %q", ics[len(ics)-20:])
	}
	bare := strings.Count(ics, "\n") - strings.Count(ics, "\r\n")
	if bare != 0 {
		t.Errorf("found %d bare LF line endings", bare)
	}
}
