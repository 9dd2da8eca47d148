// Package event provides the Event record produced by the calendar scraper.
//
// An Event is created from one event block of the venue calendar, receives an
// optional popularity score from the artist search service, and is rendered
// once. Events are never persisted between runs. Artist names keep their
// ensemble suffixes for display; NormalizeArtist produces the name used for
// external lookups.
package event
