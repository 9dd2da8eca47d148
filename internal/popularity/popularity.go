// Package popularity attaches artist popularity scores to calendar events.
package popularity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/jazz-events/internal/artist"
	"github.com/pfrederiksen/jazz-events/internal/event"
	"github.com/pfrederiksen/jazz-events/internal/logger"
	"github.com/pfrederiksen/jazz-events/internal/observability"
)

// Searcher looks up ranked artist candidates by name
type Searcher interface {
	SearchArtist(ctx context.Context, name string) ([]artist.Candidate, error)
}

// Enricher attaches popularity to events through a bounded worker pool
type Enricher struct {
	searcher Searcher
	workers  int
	logger   *logger.Logger
	metrics  *observability.Metrics
}

// New creates an Enricher that runs at most workers lookups at a time
func New(searcher Searcher, workers int, log *logger.Logger, metrics *observability.Metrics) *Enricher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Enricher{
		searcher: searcher,
		workers:  workers,
		logger:   log,
		metrics:  metrics,
	}
}

// Enrich looks up every event's artist and attaches popularity on a confident
// match. Events are updated in place and returned in the same order. A failed
// lookup cancels the remaining ones and is returned as the error
func (e *Enricher) Enrich(ctx context.Context, events []*event.Event) ([]*event.Event, error) {
	start := time.Now()
	e.logger.Info("fetching popularity", logger.Fields{
		"events":  len(events),
		"workers": e.workers,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, evt := range events {
		evt := evt
		g.Go(func() error {
			return e.EnrichEvent(gctx, evt)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	enriched, popular := 0, 0
	for _, evt := range events {
		if evt.HasPopularity() {
			enriched++
		}
		if evt.IsPopular() {
			popular++
		}
	}
	e.metrics.EventsEnriched.Set(float64(enriched))
	e.metrics.EventsPopular.Set(float64(popular))

	e.logger.Info("fetched popularity", logger.Fields{
		"events":   len(events),
		"enriched": enriched,
		"popular":  popular,
		"seconds":  time.Since(start).Seconds(),
	})
	return events, nil
}

// EnrichEvent searches for a single event's artist. No match is not an error
func (e *Enricher) EnrichEvent(ctx context.Context, evt *event.Event) error {
	name := evt.NormalizedArtist()

	candidates, err := e.searcher.SearchArtist(ctx, name)
	if err != nil {
		return fmt.Errorf("looking up popularity for %q: %w", name, err)
	}

	popularity, ok := Match(name, candidates)
	if !ok {
		e.logger.Debug("no confident artist match", logger.Fields{
			"artist":     evt.Artist,
			"normalized": name,
			"candidates": len(candidates),
		})
		return nil
	}

	evt.SetPopularity(popularity)
	return nil
}

// Match inspects the top-ranked candidate only and returns its popularity when
// its name equals name after lowercasing both
func Match(name string, candidates []artist.Candidate) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	top := candidates[0]
	if strings.ToLower(top.Name) != strings.ToLower(name) {
		return 0, false
	}
	return top.Popularity, true
}
