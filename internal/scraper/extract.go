package scraper

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/jazz-events/internal/event"
	"github.com/pfrederiksen/jazz-events/internal/logger"
	"github.com/pfrederiksen/jazz-events/internal/observability"
)

// ErrFieldMissing is wrapped by FieldError when a rule does not match
var ErrFieldMissing = errors.New("required field missing")

// FieldError reports the rule that failed and the block it failed on
type FieldError struct {
	Field string
	Block string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrFieldMissing, e.Field)
}

func (e *FieldError) Unwrap() error {
	return ErrFieldMissing
}

// Dumper persists offending markup for offline inspection
type Dumper interface {
	Write(name string, data []byte) error
}

// Extractor turns day payloads into events
type Extractor struct {
	origin       string
	rules        []Rule
	blockPattern *regexp.Regexp
	logger       *logger.Logger
	metrics      *observability.Metrics
	dumper       Dumper
}

// NewExtractor creates an Extractor using DefaultRules. Relative event links
// are rebased onto origin
func NewExtractor(origin string, log *logger.Logger, metrics *observability.Metrics) *Extractor {
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Extractor{
		origin:       strings.TrimSuffix(origin, "/"),
		rules:        DefaultRules,
		blockPattern: blockPattern,
		logger:       log,
		metrics:      metrics,
	}
}

// SetDumper enables writing dropped blocks through d
func (x *Extractor) SetDumper(d Dumper) {
	x.dumper = d
}

// ExtractAll extracts events from every day payload, in payload order
func (x *Extractor) ExtractAll(days []string) []*event.Event {
	events := make([]*event.Event, 0)
	for _, markup := range days {
		events = append(events, x.ExtractDay(markup)...)
	}
	return events
}

// ExtractDay extracts every well-formed event from one day payload.
// Malformed blocks are logged and skipped
func (x *Extractor) ExtractDay(markup string) []*event.Event {
	blocks := x.Blocks(markup)
	if len(blocks) == 0 {
		// Usually means the upstream markup changed
		x.logger.Error("found 0 event blocks in day payload", logger.Fields{
			"payload_bytes": len(markup),
		}, nil)
		x.metrics.EmptyDays.Inc()
		return nil
	}
	x.metrics.BlocksFound.Add(float64(len(blocks)))

	events := make([]*event.Event, 0, len(blocks))
	for _, block := range blocks {
		evt, err := x.ParseBlock(block)
		if err != nil {
			x.reportFailure(block, err)
			continue
		}
		events = append(events, evt)
	}
	return events
}

// Blocks returns the event blocks contained in a day payload
func (x *Extractor) Blocks(markup string) []string {
	return x.blockPattern.FindAllString(markup, -1)
}

// ParseBlock extracts a single event. It returns a *FieldError naming the
// first rule that failed
func (x *Extractor) ParseBlock(block string) (*event.Event, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(block))
	if err != nil {
		return nil, fmt.Errorf("parsing block: %w", err)
	}

	fields := make(map[string]string, len(x.rules))
	for _, rule := range x.rules {
		value, ok := rule.Extract(doc, block)
		if !ok {
			return nil, &FieldError{Field: rule.Field, Block: block}
		}
		fields[rule.Field] = value
	}

	return event.New(
		fields[FieldDay]+" "+fields[FieldDateLabel],
		fields[FieldArtist],
		fields[FieldTime],
		fields[FieldVenue]+", "+fields[FieldNeighborhood],
		x.origin+"/"+strings.TrimPrefix(fields[FieldURL], "/"),
	), nil
}

func (x *Extractor) reportFailure(block string, err error) {
	field := "parse"
	var fe *FieldError
	if errors.As(err, &fe) {
		field = fe.Field
	}

	x.logger.Error("dropping event block", logger.Fields{
		"rule":  field,
		"block": block,
	}, err)
	x.metrics.ExtractionFailures.WithLabelValues(field).Inc()

	if x.dumper == nil {
		return
	}
	name := fmt.Sprintf("%s-%x.html", field, sha1.Sum([]byte(block)))
	if dumpErr := x.dumper.Write(name, []byte(block)); dumpErr != nil {
		x.logger.Warn("could not dump event block", logger.Fields{
			"name":  name,
			"error": dumpErr.Error(),
		})
	}
}
