// Package calendar exports the enriched listing as an iCalendar feed.
package calendar

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/jazz-events/internal/event"
)

const (
	productID = "-//Jazz Events//jazz-events//EN"
	uidDomain = "jazz-events"
)

// Build creates a calendar with one all-day VEVENT per event. Dates are
// resolved relative to ref; events whose date cannot be parsed are skipped
// and counted
func Build(events []*event.Event, ref time.Time) (*ical.Calendar, int) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	skipped := 0
	for _, evt := range events {
		day := evt.CalendarDate(ref)
		if day.IsZero() {
			skipped++
			continue
		}

		e := cal.AddEvent(fmt.Sprintf("%s@%s", evt.ID(), uidDomain))
		e.SetDtStampTime(ref.UTC())
		e.SetAllDayStartAt(day)
		e.SetAllDayEndAt(day.AddDate(0, 0, 1))
		e.SetSummary(summary(evt))
		e.SetLocation(evt.Venue)
		e.SetDescription(description(evt))
		if evt.URL != "" {
			e.SetURL(evt.URL)
		}
		e.SetStatus(ical.ObjectStatusConfirmed)
	}

	return cal, skipped
}

// Generate serializes the calendar for events with CRLF line endings
func Generate(events []*event.Event, ref time.Time) (string, int, error) {
	cal, skipped := Build(events, ref)

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf, ical.WithNewLineWindows); err != nil {
		return "", skipped, fmt.Errorf("serializing calendar: %w", err)
	}
	return buf.String(), skipped, nil
}

func summary(evt *event.Event) string {
	if evt.IsPopular() {
		return fmt.Sprintf("%s (popular %d)", evt.Artist, evt.PopularityValue())
	}
	return evt.Artist
}

func description(evt *event.Event) string {
	var lines []string
	if evt.Time != "" {
		lines = append(lines, "Sets: "+evt.Time)
	}
	if evt.HasPopularity() {
		lines = append(lines, fmt.Sprintf("Artist popularity: %d", evt.PopularityValue()))
	}
	if evt.URL != "" {
		lines = append(lines, "Details: "+evt.URL)
	}
	return strings.Join(lines, "\n")
}
