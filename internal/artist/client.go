package artist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pfrederiksen/jazz-events/internal/logger"
	"github.com/pfrederiksen/jazz-events/internal/observability"
)

// Candidate is one artist returned by the search endpoint
type Candidate struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Popularity int    `json:"popularity"`
	URL        string `json:"url,omitempty"`
}

// SearchResult is the "artists" section of a search response
type SearchResult struct {
	Limit              int         `json:"limit"`
	Offset             int         `json:"offset"`
	TotalNumberOfItems int         `json:"totalNumberOfItems"`
	Items              []Candidate `json:"items"`
}

type searchResponse struct {
	Artists SearchResult `json:"artists"`
}

// Client is a client for the Tidal artist search API
type Client struct {
	token       string
	countryCode string
	baseURL     string
	httpClient  *http.Client
	cache       *Cache
	logger      *logger.Logger
	metrics     *observability.Metrics
}

// NewClient creates a search client with an empty cache
func NewClient(baseURL, token, countryCode string, timeout time.Duration, log *logger.Logger, metrics *observability.Metrics) *Client {
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Client{
		token:       token,
		countryCode: countryCode,
		baseURL:     baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:   NewCache(),
		logger:  log,
		metrics: metrics,
	}
}

// Cache returns the client's cache
func (c *Client) Cache() *Cache {
	return c.cache
}

// SearchArtist returns the ranked candidates for name. Results are served from
// the cache when the same name was searched before
func (c *Client) SearchArtist(ctx context.Context, name string) ([]Candidate, error) {
	candidates, hit, err := c.cache.GetOrLoad(name, func() ([]Candidate, error) {
		return c.search(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	if hit {
		c.metrics.SearchCache.WithLabelValues("hit").Inc()
	} else {
		c.metrics.SearchCache.WithLabelValues("miss").Inc()
	}
	return candidates, nil
}

// search queries the API without consulting the cache
func (c *Client) search(ctx context.Context, name string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("types", "artists")
	params.Set("countryCode", c.countryCode)
	params.Set("token", c.token)
	params.Set("query", name)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("searching artist", logger.Fields{"artist": name})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("searching artist %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.SearchRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("artist search API returned status %d: %s", resp.StatusCode, body)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.metrics.SearchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	c.metrics.SearchRequests.WithLabelValues("success").Inc()
	return result.Artists.Items, nil
}
