// Package scraper fetches the venue calendar and extracts events from it.
//
// The calendar service answers one form POST per day with a JSON envelope
// whose "data" field holds a markup fragment. Fetcher issues those requests
// through a bounded worker pool and returns the raw fragments. Extractor splits
// each fragment into event blocks and applies one Rule per field to build
// event.Event records. A block whose rules do not all match is dropped and
// logged with its markup, so an upstream markup change only requires editing
// the rule table in rules.go.
package scraper
