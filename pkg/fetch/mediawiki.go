package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/chronomap/chronik/internal/util"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxRetries = 3
	defaultTimeout    = 30 * time.Second
)

// MediaWikiClient fetches raw page markup through the MediaWiki query API.
// Fetched pages are cached for the lifetime of the client, so a traversal
// never pays for a title twice.
type MediaWikiClient struct {
	baseURL    string
	userAgent  string
	maxRetries int
	client     *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]string

	metricsMu sync.Mutex
	metrics   Metrics
}

// NewMediaWikiClientParams contains the parameters for creating a new
// MediaWikiClient.
type NewMediaWikiClientParams struct {
	// BaseURL is the API endpoint, e.g. https://en.wikipedia.org/w/api.php
	BaseURL   string
	UserAgent string
	// MaxRetries bounds transport-level attempts per page. Defaults to 3.
	MaxRetries int
	// HTTPClient overrides the default client with its 30s timeout.
	HTTPClient *http.Client
}

// NewMediaWikiClient creates a new MediaWikiClient with the given parameters.
func NewMediaWikiClient(params NewMediaWikiClientParams) *MediaWikiClient {
	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	client := params.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &MediaWikiClient{
		baseURL:    params.BaseURL,
		userAgent:  params.UserAgent,
		maxRetries: maxRetries,
		client:     client,
		cache:      make(map[string]string),
	}
}

// FetchPage returns the raw markup of title. Concurrent calls for the same
// title are collapsed into one request.
func (c *MediaWikiClient) FetchPage(ctx context.Context, title string) (string, error) {
	c.mu.RLock()
	cached, ok := c.cache[title]
	c.mu.RUnlock()
	if ok {
		c.modifyMetrics(func(m *Metrics) {
			m.CacheHits++
		})
		return cached, nil
	}

	content, err, _ := c.group.Do(title, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.cache[title]
		c.mu.RUnlock()
		if ok {
			c.modifyMetrics(func(m *Metrics) {
				m.CacheHits++
			})
			return cached, nil
		}

		raw, err := util.RetryWithContext(ctx, c.maxRetries, func(ctx context.Context) (string, error) {
			return c.fetchOnce(ctx, title)
		})
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.cache[title] = raw
		c.mu.Unlock()

		c.modifyMetrics(func(m *Metrics) {
			m.PagesFetched++
		})
		return raw, nil
	})
	if err != nil {
		return "", err
	}
	return content.(string), nil
}

// fetchOnce performs a single API request. Failures that a retry cannot fix
// are marked unretryable so the budget is not wasted on them.
func (c *MediaWikiClient) fetchOnce(ctx context.Context, title string) (string, error) {
	start := time.Now()
	defer func() {
		c.modifyMetrics(func(m *Metrics) {
			m.Requests++
			m.TotalDuration += time.Since(start)
		})
	}()

	query := url.Values{}
	query.Set("action", "query")
	query.Set("prop", "revisions")
	query.Set("rvprop", "content")
	query.Set("rvslots", "main")
	query.Set("format", "json")
	query.Set("formatversion", "2")
	query.Set("redirects", "0")
	query.Set("titles", title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", util.Unretryable(&HTTPError{Title: title, Err: err})
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.trackFailure()
		return "", &HTTPError{Title: title, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.trackFailure()
		httpErr := &HTTPError{Title: title, Status: resp.StatusCode}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", util.Unretryable(httpErr)
		}
		return "", httpErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.trackFailure()
		return "", &HTTPError{Title: title, Err: err}
	}

	content, err := decodePage(title, body)
	if err != nil {
		c.trackFailure()
		return "", util.Unretryable(err)
	}
	return content, nil
}

func (c *MediaWikiClient) trackFailure() {
	c.modifyMetrics(func(m *Metrics) {
		m.Failures++
	})
}

type queryResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// decodePage pulls the main-slot markup out of a query API envelope.
func decodePage(title string, body []byte) (string, error) {
	var envelope queryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &JSONError{Title: title, Err: err}
	}
	if len(envelope.Query.Pages) == 0 {
		return "", &JSONError{Title: title, Err: errors.New("envelope contains no pages")}
	}

	page := envelope.Query.Pages[0]
	if page.Missing {
		return "", &HTTPError{Title: title, Status: http.StatusNotFound, Err: errors.New("page does not exist")}
	}
	if len(page.Revisions) == 0 {
		return "", &JSONError{Title: title, Err: errors.New("page has no revisions")}
	}
	return page.Revisions[0].Slots.Main.Content, nil
}
