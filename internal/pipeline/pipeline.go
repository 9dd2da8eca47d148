// Package pipeline runs one scrape of the venue calendar end to end.
//
// A run fetches every day in the look-ahead window, extracts events, enriches
// them with artist popularity and renders the page. Each phase completes
// before the next starts. Output files are written only after every phase has
// succeeded, so a failed run leaves the previous page in place.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pfrederiksen/jazz-events/internal/artist"
	"github.com/pfrederiksen/jazz-events/internal/calendar"
	"github.com/pfrederiksen/jazz-events/internal/config"
	"github.com/pfrederiksen/jazz-events/internal/event"
	"github.com/pfrederiksen/jazz-events/internal/logger"
	"github.com/pfrederiksen/jazz-events/internal/observability"
	"github.com/pfrederiksen/jazz-events/internal/popularity"
	"github.com/pfrederiksen/jazz-events/internal/render"
	"github.com/pfrederiksen/jazz-events/internal/scraper"
	"github.com/pfrederiksen/jazz-events/internal/storage"
)

// ErrNoEvents is returned when no event could be extracted from any day.
// An empty page almost always means the calendar markup changed
var ErrNoEvents = errors.New("no events extracted")

// Phase names used in logs and metrics
const (
	PhaseFetch   = "fetch"
	PhaseExtract = "extract"
	PhaseEnrich  = "enrich"
	PhaseRender  = "render"
)

// Result summarizes a completed run
type Result struct {
	RunID         string         `json:"run_id"`
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"duration"`
	Days          int            `json:"days"`
	Events        []*event.Event `json:"events"`
	Enriched      int            `json:"enriched"`
	Popular       int            `json:"popular"`
	CachedArtists int            `json:"cached_artists"`
	Outputs       []string       `json:"outputs,omitempty"`
	DryRun        bool           `json:"dry_run,omitempty"`
}

// Pipeline wires the run's components from a Config
type Pipeline struct {
	cfg     *config.Config
	clock   clockwork.Clock
	logger  *logger.Logger
	metrics *observability.Metrics
	dryRun  bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClock sets the time source for the date window and timestamps
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithLogger sets the base logger; each run derives one tagged with its run ID
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// WithMetrics sets the metrics the run records into
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithDryRun runs every phase but writes no files
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// New creates a Pipeline for cfg
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observability.NewMetrics()
	}
	return p, nil
}

// Metrics returns the metrics recorded by runs of this pipeline
func (p *Pipeline) Metrics() *observability.Metrics {
	return p.metrics
}

// Run performs one complete scrape
func (p *Pipeline) Run(ctx context.Context) (result *Result, err error) {
	runID := uuid.NewString()
	log := p.logger.With(logger.Fields{"run_id": runID})
	started := p.clock.Now()

	defer func() {
		p.writeMetrics(log, err == nil)
	}()

	sortOrder, err := event.ParseSortOrder(p.cfg.Sort)
	if err != nil {
		return nil, err
	}

	// Load the page template up front so a missing template fails before any
	// network traffic
	renderer, err := render.Load(p.cfg.TemplatePath)
	if err != nil {
		return nil, err
	}

	log.Info("starting run", logger.Fields{
		"days":    p.cfg.Days,
		"workers": p.cfg.Workers,
		"dry_run": p.dryRun,
	})

	// Fetch
	phaseStart := p.clock.Now()
	dates := scraper.Dates(p.clock, p.cfg.Days)
	fetcher := scraper.NewFetcher(p.cfg.CalendarURL, p.cfg.UserAgent, p.cfg.HTTPTimeout, p.cfg.Workers, log, p.metrics)
	days, err := fetcher.FetchDays(ctx, dates)
	if err != nil {
		log.Error("calendar fetch failed", nil, err)
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	p.metrics.ObservePhase(PhaseFetch, p.clock.Since(phaseStart))

	// Extract
	phaseStart = p.clock.Now()
	extractor := scraper.NewExtractor(p.cfg.Origin, log, p.metrics)
	if p.cfg.DumpDir != "" && !p.dryRun {
		dumps, err := storage.New(p.cfg.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("opening dump directory: %w", err)
		}
		extractor.SetDumper(dumps)
	}
	events := extractor.ExtractAll(days)
	p.metrics.EventsExtracted.Set(float64(len(events)))
	p.metrics.ObservePhase(PhaseExtract, p.clock.Since(phaseStart))

	log.Info("extracted events", logger.Fields{
		"days":   len(days),
		"events": len(events),
	})
	if len(events) == 0 {
		log.Error("no events extracted", logger.Fields{"days": len(days)}, ErrNoEvents)
		return nil, fmt.Errorf("%w from %d days", ErrNoEvents, len(days))
	}

	// Enrich
	phaseStart = p.clock.Now()
	client := artist.NewClient(p.cfg.SearchURL, p.cfg.TidalToken, p.cfg.CountryCode, p.cfg.HTTPTimeout, log, p.metrics)
	enricher := popularity.New(client, p.cfg.Workers, log, p.metrics)
	events, err = enricher.Enrich(ctx, events)
	if err != nil {
		log.Error("popularity enrichment failed", nil, err)
		return nil, fmt.Errorf("enriching events: %w", err)
	}
	p.metrics.ObservePhase(PhaseEnrich, p.clock.Since(phaseStart))

	event.Sort(events, sortOrder)

	// Render
	phaseStart = p.clock.Now()
	outputs, err := p.writeOutputs(log, renderer, events)
	if err != nil {
		return nil, err
	}
	p.metrics.ObservePhase(PhaseRender, p.clock.Since(phaseStart))

	result = &Result{
		RunID:         runID,
		StartedAt:     started,
		Duration:      p.clock.Since(started),
		Days:          len(days),
		Events:        events,
		CachedArtists: client.Cache().Size(),
		Outputs:       outputs,
		DryRun:        p.dryRun,
	}
	for _, evt := range events {
		if evt.HasPopularity() {
			result.Enriched++
		}
		if evt.IsPopular() {
			result.Popular++
		}
	}

	log.Info("run complete", logger.Fields{
		"events":   len(events),
		"enriched": result.Enriched,
		"popular":  result.Popular,
		"seconds":  result.Duration.Seconds(),
	})
	return result, nil
}

// writeOutputs builds every configured artifact in memory, then replaces
// them together. Nothing on disk changes unless all of them were built and
// staged. In dry run mode the artifacts are still built so template errors
// surface
func (p *Pipeline) writeOutputs(log *logger.Logger, renderer *render.Renderer, events []*event.Event) ([]string, error) {
	now := p.clock.Now()

	page, err := renderer.Render(events, now)
	if err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}

	outputs := []string{p.cfg.OutputPath}
	var extras []storage.File

	if p.cfg.ICSPath != "" {
		ics, skipped, err := calendar.Generate(events, now)
		if err != nil {
			return nil, err
		}
		if skipped > 0 {
			log.Warn("events without a parseable date left out of calendar", logger.Fields{"skipped": skipped})
		}
		extras = append(extras, storage.File{Path: p.cfg.ICSPath, Data: []byte(ics)})
		outputs = append(outputs, p.cfg.ICSPath)
	}

	if p.cfg.JSONPath != "" {
		data, err := storage.MarshalEvents(events)
		if err != nil {
			return nil, err
		}
		extras = append(extras, storage.File{Path: p.cfg.JSONPath, Data: data})
		outputs = append(outputs, p.cfg.JSONPath)
	}

	if p.dryRun {
		log.Info("dry run, skipping writes", logger.Fields{"files": outputs})
		return nil, nil
	}

	// The page is renamed last
	files := append(extras, storage.File{Path: p.cfg.OutputPath, Data: page})
	if err := storage.WriteFiles(files...); err != nil {
		return nil, fmt.Errorf("writing outputs: %w", err)
	}

	log.Info("wrote outputs", logger.Fields{"files": outputs})
	return outputs, nil
}

// writeMetrics flushes the run metrics to the textfile, if one is configured
func (p *Pipeline) writeMetrics(log *logger.Logger, success bool) {
	if success {
		p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	}
	if p.cfg.MetricsPath == "" || p.dryRun {
		return
	}
	if err := p.metrics.WriteTextfile(p.cfg.MetricsPath); err != nil {
		log.Warn("failed to write metrics", logger.Fields{"path": p.cfg.MetricsPath, "error": err.Error()})
	}
}
