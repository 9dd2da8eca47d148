// Package artist provides the artist search client used to look up popularity.
//
// Client wraps the Tidal catalogue search endpoint. Results are memoized in a
// Cache keyed by the exact query string for the lifetime of the Client; the
// cache never evicts and is never written to disk, so each run starts cold.
package artist
