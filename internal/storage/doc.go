// Package storage writes the job's output artifacts to disk.
//
// Every write goes to a temporary file in the destination directory and is
// renamed into place, so a reader never observes a half-written page and a
// failed run leaves the previous artifact untouched. A Storage rooted at a
// directory is also used to persist raw calendar blocks that failed
// extraction (see --dump-dir).
package storage
