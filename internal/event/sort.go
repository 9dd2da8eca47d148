package event

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder represents the available listing orders
type SortOrder string

const (
	SortNone       SortOrder = "none"       // calendar order as fetched
	SortPopularity SortOrder = "popularity" // most popular first, unmatched last
	SortArtist     SortOrder = "artist"
)

// ParseSortOrder validates a sort order name. Empty means SortNone
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNone:
		return SortNone, nil
	case SortPopularity:
		return SortPopularity, nil
	case SortArtist:
		return SortArtist, nil
	default:
		return "", fmt.Errorf("unknown sort order: %q", s)
	}
}

// Sort orders events in place. All orders are stable, so events that compare
// equal keep their calendar order
func Sort(events []*Event, order SortOrder) {
	switch order {
	case SortPopularity:
		sort.SliceStable(events, func(i, j int) bool {
			return comparePopularity(events[i], events[j])
		})
	case SortArtist:
		sort.SliceStable(events, func(i, j int) bool {
			return strings.ToLower(events[i].Artist) < strings.ToLower(events[j].Artist)
		})
	}
}

// comparePopularity returns true if i should come before j
func comparePopularity(i, j *Event) bool {
	if i.HasPopularity() != j.HasPopularity() {
		return i.HasPopularity()
	}
	return i.PopularityValue() > j.PopularityValue()
}
