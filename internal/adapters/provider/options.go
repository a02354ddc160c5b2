// Package provider implements the upstream data provider client.
package provider

import (
	"net/http"
	"time"

	"github.com/caliban/dropzone/pkg/logger"
)

// SchedulerOption applies a configuration option to the Scheduler.
type SchedulerOption func(*Scheduler)

// WithMaxRequests sets the global rolling-window quota.
func WithMaxRequests(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxRequests = n
		}
	}
}

// WithWindow sets the rolling quota window duration.
func WithWindow(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithMinSpacing sets the initial per-endpoint minimum spacing.
func WithMinSpacing(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.minSpacing = d
		}
	}
}

// WithLowWaterMark sets the remaining-quota threshold below which the
// spacing is raised.
func WithLowWaterMark(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.lowWaterMark = n
		}
	}
}

// WithSchedulerLogger sets a custom logger for the scheduler.
func WithSchedulerLogger(log logger.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// FetcherOption applies a configuration option to the Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for upstream calls.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// WithMaxAttempts sets the retry budget per logical fetch.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithResetDelay sets the fixed delay applied after transient network
// errors.
func WithResetDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.resetDelay = d
		}
	}
}

// WithServerErrorDelay sets the fixed delay applied after upstream 5xx.
func WithServerErrorDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.serverErrDelay = d
		}
	}
}

// WithFetcherLogger sets a custom logger for the fetcher.
func WithFetcherLogger(log logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the upstream API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithMatchTTL sets the cache TTL for match and telemetry payloads.
func WithMatchTTL(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.matchTTL = d
		}
	}
}

// WithPlayerTTL sets the cache TTL for player lookups.
func WithPlayerTTL(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.playerTTL = d
		}
	}
}

// WithClientLogger sets a custom logger for the client.
func WithClientLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}
