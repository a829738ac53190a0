package fetch

import "time"

// Metrics accumulates fetch activity across a traversal.
type Metrics struct {
	// Requests counts individual API calls, retries included.
	Requests     int
	PagesFetched int
	CacheHits    int
	Failures     int
	// TotalDuration is the summed wall time of all API calls.
	TotalDuration time.Duration
}

// GetMetrics returns a snapshot of the accumulated metrics.
func (c *MediaWikiClient) GetMetrics() Metrics {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.metrics
}

// ResetMetrics clears the accumulated metrics.
func (c *MediaWikiClient) ResetMetrics() {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	c.metrics = Metrics{}
}

func (c *MediaWikiClient) modifyMetrics(modify func(*Metrics)) {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	modify(&c.metrics)
}
