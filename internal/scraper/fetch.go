package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/jazz-events/internal/logger"
	"github.com/pfrederiksen/jazz-events/internal/observability"
)

// DateLayout is the format the calendar service expects for dates
const DateLayout = "2006-01-02"

// Fetcher retrieves raw day payloads from the calendar service
type Fetcher struct {
	client    *http.Client
	url       string
	userAgent string
	workers   int
	logger    *logger.Logger
	metrics   *observability.Metrics
}

// NewFetcher creates a Fetcher that runs at most workers requests at a time
func NewFetcher(calendarURL, userAgent string, timeout time.Duration, workers int, log *logger.Logger, metrics *observability.Metrics) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		url:       calendarURL,
		userAgent: userAgent,
		workers:   workers,
		logger:    log,
		metrics:   metrics,
	}
}

// Dates returns today and the following days-1 dates in DateLayout
func Dates(clock clockwork.Clock, days int) []string {
	today := clock.Now()
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, today.AddDate(0, 0, i).Format(DateLayout))
	}
	return dates
}

// calendarResponse is the JSON envelope returned by the calendar service
type calendarResponse struct {
	Data *string `json:"data"`
}

// FetchDays fetches the payload for every date. The result is index-aligned
// with dates. The first failed request cancels the others and its error is
// returned; no partial calendar is ever returned
func (f *Fetcher) FetchDays(ctx context.Context, dates []string) ([]string, error) {
	f.logger.Info("fetching calendar", logger.Fields{
		"days":    len(dates),
		"workers": f.workers,
	})

	results := make([]string, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			markup, err := f.FetchDay(gctx, date)
			if err != nil {
				return err
			}
			results[i] = markup
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// FetchDay fetches the raw markup for a single date
func (f *Fetcher) FetchDay(ctx context.Context, date string) (string, error) {
	form := url.Values{}
	form.Set("start_date", date)
	form.Set("selected_date", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", date, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", f.userAgent)

	f.logger.Debug("fetching calendar day", logger.Fields{"url": f.url, "date": date})

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching calendar for %s: %w", date, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("calendar for %s: unexpected status code %d: %s", date, resp.StatusCode, body)
	}

	var envelope calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decoding calendar for %s: %w", date, err)
	}
	if envelope.Data == nil {
		return "", fmt.Errorf("calendar for %s: %w", date, errMissingData)
	}

	f.metrics.DaysFetched.Inc()
	return *envelope.Data, nil
}

var errMissingData = errors.New("response has no data field")
