// Package cli implements the command-line interface for jazz-events.
//
// The cli package provides the Cobra-based root command. It layers flags over
// the YAML file and environment configuration, runs one pipeline pass, prints
// a text or JSON summary to stdout and maps the outcome to an exit code:
// 0 on success, 1 on any error and 2 when the calendar produced no events.
package cli
