package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/caliban/dropzone/internal/adapters/cache"
	"github.com/caliban/dropzone/pkg/logger"
	"github.com/caliban/dropzone/pkg/metrics"
)

// Default fetcher configuration constants.
const (
	defaultMaxAttempts    = 3
	defaultResetDelay     = 3 * time.Second
	defaultServerErrDelay = 1 * time.Second
	defaultTimeoutInitial = 1 * time.Second
	defaultRequestTimeout = 30 * time.Second
	remainingQuotaHeader  = "X-Ratelimit-Remaining"
	retryAfterHeader      = "Retry-After"
	fetchOutcomeSuccess   = "success"
	fetchOutcomeNotFound  = "not_found"
	fetchOutcomeThrottled = "throttled"
	fetchOutcomeTransient = "transient"
	fetchOutcomeTerminal  = "terminal"
)

// FetchRequest describes one logical upstream fetch.
type FetchRequest struct {
	EndpointKey string
	URL         string
	CacheKey    string
	CacheTTL    time.Duration
	// Authorize controls whether the bearer token is attached; telemetry
	// assets live on a CDN that rejects the auth header.
	Authorize bool
}

// outcome is the result of a single attempt in the retry state machine.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetry
	outcomeTerminal
)

// Fetcher wraps scheduler admission and a single upstream call with a typed
// retry policy. The retry schedule is a bounded state machine: each attempt
// resolves to Success, RetryAfter(delay), or Terminal.
type Fetcher struct {
	httpClient     *http.Client
	scheduler      *Scheduler
	tier           *cache.Tier
	token          string
	maxAttempts    int
	resetDelay     time.Duration
	serverErrDelay time.Duration
	log            logger.Logger
}

// NewFetcher creates a fetcher with configuration options.
func NewFetcher(scheduler *Scheduler, tier *cache.Tier, token string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient:     &http.Client{Timeout: defaultRequestTimeout},
		scheduler:      scheduler,
		tier:           tier,
		token:          token,
		maxAttempts:    defaultMaxAttempts,
		resetDelay:     defaultResetDelay,
		serverErrDelay: defaultServerErrDelay,
		log:            logger.Get().Named("fetcher"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Do runs the retry state machine for one logical fetch. Every successful
// response is written through both cache tiers before being returned.
func (f *Fetcher) Do(ctx context.Context, req FetchRequest) ([]byte, error) {
	// Incrementing schedule for timeout retries; other retryable classes
	// carry their own fixed or advertised delays.
	timeoutSchedule := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(defaultTimeoutInitial),
		backoff.WithMaxElapsedTime(0),
	)

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		isRetry := attempt > 1
		if isRetry {
			metrics.RecordFetchRetry()
		}
		if err := f.scheduler.Admit(ctx, req.EndpointKey, isRetry); err != nil {
			return nil, fmt.Errorf("admission: %w", err)
		}

		payload, res, err := f.attempt(ctx, req, timeoutSchedule)
		switch res {
		case outcomeSuccess:
			if req.CacheKey != "" {
				if cerr := f.tier.Set(ctx, req.CacheKey, payload, req.CacheTTL); cerr != nil {
					f.log.Warn(ctx, "cache write failed after fetch",
						logger.String("key", req.CacheKey), logger.Error(cerr))
				}
			}
			return payload, nil

		case outcomeTerminal:
			return nil, err

		case outcomeRetry:
			lastErr = err
		}

		if attempt == f.maxAttempts {
			break
		}

		delay := f.retryDelay(err, timeoutSchedule)
		f.log.Debug(ctx, "retrying upstream fetch",
			logger.String("endpoint", req.EndpointKey),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %d attempts for %s: %w",
		ErrUpstreamUnavailable, f.maxAttempts, req.URL, lastErr)
}

// retryableError tags a transient failure with its retry delay class.
type retryableError struct {
	err   error
	delay time.Duration
	// timeout errors take their delay from the incrementing schedule
	// instead of a fixed value.
	isTimeout bool
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// retryDelay resolves the delay for the next attempt from the classified
// error.
func (f *Fetcher) retryDelay(err error, timeoutSchedule backoff.BackOff) time.Duration {
	var re *retryableError
	if errors.As(err, &re) {
		if re.isTimeout {
			return timeoutSchedule.NextBackOff()
		}
		return re.delay
	}
	return f.serverErrDelay
}

// attempt performs one upstream call and classifies the result.
func (f *Fetcher) attempt(ctx context.Context, req FetchRequest, timeoutSchedule backoff.BackOff) ([]byte, outcome, error) {
	start := time.Now()
	metrics.RecordFetchAttempt()
	defer func() {
		metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, outcomeTerminal, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/vnd.api+json")
	if req.Authorize && f.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.httpClient.Do(httpReq)
	if err != nil {
		metrics.RecordFetchOutcome(fetchOutcomeTransient)
		return nil, outcomeRetry, f.classifyNetworkError(err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			metrics.RecordFetchOutcome(fetchOutcomeTransient)
			return nil, outcomeRetry, &retryableError{err: fmt.Errorf("read body: %w", err), delay: f.resetDelay}
		}
		f.observeQuota(resp)
		metrics.RecordFetchOutcome(fetchOutcomeSuccess)
		return body, outcomeSuccess, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		delay := f.retryAfter(resp)
		// A 429 means the provider sees us over quota; the raised spacing
		// outlives this request by design of the one-way throttle.
		f.scheduler.RaiseSpacing(delay)
		metrics.RecordFetchOutcome(fetchOutcomeThrottled)
		return nil, outcomeRetry, &retryableError{
			err:   fmt.Errorf("throttled by upstream (429), retry after %s", delay),
			delay: delay,
		}

	case resp.StatusCode == http.StatusNotFound:
		metrics.RecordFetchOutcome(fetchOutcomeNotFound)
		return nil, outcomeTerminal, fmt.Errorf("%w: %s", ErrNotFound, req.URL)

	case resp.StatusCode >= 500:
		metrics.RecordFetchOutcome(fetchOutcomeTransient)
		return nil, outcomeRetry, &retryableError{
			err:   fmt.Errorf("upstream returned %d", resp.StatusCode),
			delay: f.serverErrDelay,
		}

	default:
		metrics.RecordFetchOutcome(fetchOutcomeTerminal)
		return nil, outcomeTerminal, &StatusError{Code: resp.StatusCode, URL: req.URL}
	}
}

// classifyNetworkError distinguishes timeouts (incrementing delay) from
// resets and other transient network failures (fixed delay).
func (f *Fetcher) classifyNetworkError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &retryableError{err: fmt.Errorf("timeout: %w", err), isTimeout: true}
	}
	return &retryableError{err: fmt.Errorf("network error: %w", err), delay: f.resetDelay}
}

// observeQuota feeds provider-reported remaining quota into the scheduler.
func (f *Fetcher) observeQuota(resp *http.Response) {
	v := resp.Header.Get(remainingQuotaHeader)
	if v == "" {
		return
	}
	remaining, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	f.scheduler.ObserveRemaining(remaining)
}

// retryAfter parses the advertised wait, falling back to the server error
// delay when the header is absent or malformed.
func (f *Fetcher) retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get(retryAfterHeader)
	if v == "" {
		return f.serverErrDelay
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return f.serverErrDelay
	}
	return time.Duration(secs) * time.Second
}
