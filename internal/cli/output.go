package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/jazz-events/internal/event"
	"github.com/pfrederiksen/jazz-events/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt  time.Time      `json:"checked_at"`
	RunID      string         `json:"run_id"`
	Days       int            `json:"days"`
	EventCount int            `json:"event_count"`
	Enriched   int            `json:"enriched"`
	Popular    int            `json:"popular"`
	Events     []*event.Event `json:"events"`
	Outputs    []string       `json:"outputs,omitempty"`
	DryRun     bool           `json:"dry_run,omitempty"`
}

// NewOutputResult summarizes a pipeline result
func NewOutputResult(r *pipeline.Result) *OutputResult {
	return &OutputResult{
		CheckedAt:  r.StartedAt.UTC(),
		RunID:      r.RunID,
		Days:       r.Days,
		EventCount: len(r.Events),
		Enriched:   r.Enriched,
		Popular:    r.Popular,
		Events:     r.Events,
		Outputs:    r.Outputs,
		DryRun:     r.DryRun,
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text. Only popular events are
// listed unless verbose is set
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	listed := make([]*event.Event, 0, result.Popular)
	for _, evt := range result.Events {
		if verbose || evt.IsPopular() {
			listed = append(listed, evt)
		}
	}

	if len(listed) > 0 {
		if verbose {
			fmt.Fprintf(w, "Events (%d):\n", len(listed))
		} else {
			fmt.Fprintf(w, "Popular (%d):\n", len(listed))
		}
		for _, evt := range listed {
			fmt.Fprintf(w, "  %s: %s", evt.Date, evt.Artist)
			if evt.IsPopular() {
				fmt.Fprintf(w, " [%d]", evt.PopularityValue())
			}
			fmt.Fprintf(w, " @ %s\n", evt.Venue)
			if verbose {
				if evt.Time != "" {
					fmt.Fprintf(w, "       Time: %s\n", evt.Time)
				}
				fmt.Fprintf(w, "       URL: %s\n", evt.URL)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %d events across %d days (%d matched, %d popular)\n",
		result.EventCount, result.Days, result.Enriched, result.Popular)

	if result.DryRun {
		fmt.Fprintln(w, "Dry run: no files written.")
		return nil
	}
	for _, path := range result.Outputs {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
	return nil
}
