// Package netcheck answers one question: can the service be reached
// right now? Mutating calls consult it to decide between sending and
// queueing, and the sync engine probes it before starting a cycle.
package netcheck

import (
	"context"
	"net/http"
	"time"
)

// DefaultProbeTimeout keeps the probe from stalling a user action.
const DefaultProbeTimeout = 3 * time.Second

// Checker probes a URL with a HEAD request. Any response, including an
// error status, counts as online; only a transport failure is offline.
type Checker struct {
	client  *http.Client
	url     string
	timeout time.Duration
}

// New creates a Checker probing the given URL.
func New(url string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Checker{
		client:  &http.Client{Timeout: timeout},
		url:     url,
		timeout: timeout,
	}
}

// Online reports whether the probe target is reachable.
func (c *Checker) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
