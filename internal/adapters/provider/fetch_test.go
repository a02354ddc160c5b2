package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/caliban/dropzone/internal/adapters/cache"
)

func fastScheduler(t *testing.T) *Scheduler {
	t.Helper()
	return startScheduler(t,
		WithMaxRequests(1000),
		WithWindow(time.Second),
		WithMinSpacing(time.Millisecond),
	)
}

func newTier() *cache.Tier {
	return cache.NewTier(cache.NewMemoryStore())
}

func TestFetcher_Success(t *testing.T) {
	var gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"data":{}}`)) //nolint:errcheck
	}))
	defer server.Close()

	tier := newTier()
	f := NewFetcher(fastScheduler(t), tier, "secret-token")

	payload, err := f.Do(context.Background(), FetchRequest{
		EndpointKey: "matches",
		URL:         server.URL,
		CacheKey:    "match:steam:abc",
		CacheTTL:    time.Hour,
		Authorize:   true,
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(payload) != `{"data":{}}` {
		t.Errorf("unexpected payload: %s", payload)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotAccept != "application/vnd.api+json" {
		t.Errorf("expected JSON:API accept header, got %q", gotAccept)
	}

	// The response was written through the cache tier.
	cached, found, err := tier.Get(context.Background(), "match:steam:abc")
	if err != nil || !found {
		t.Fatalf("expected cache write, found=%v err=%v", found, err)
	}
	if string(cached) != `{"data":{}}` {
		t.Errorf("cached payload mismatch: %s", cached)
	}
}

func TestFetcher_NoAuthForUnauthorizedRequests(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`[]`)) //nolint:errcheck
	}))
	defer server.Close()

	f := NewFetcher(fastScheduler(t), newTier(), "secret-token")

	_, err := f.Do(context.Background(), FetchRequest{
		EndpointKey: "telemetry",
		URL:         server.URL,
		Authorize:   false,
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if auth := gotAuth.Load().(string); auth != "" {
		t.Errorf("telemetry fetch must not carry auth, got %q", auth)
	}
}

func TestFetcher_429HonorsRetryAfter(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok")) //nolint:errcheck
	}))
	defer server.Close()

	sched := fastScheduler(t)
	f := NewFetcher(sched, newTier(), "")

	start := time.Now()
	payload, err := f.Do(context.Background(), FetchRequest{EndpointKey: "matches", URL: server.URL})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(payload) != "ok" {
		t.Errorf("unexpected payload: %s", payload)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected exactly one retry, got %d calls", n)
	}
	// The advertised delay is honored exactly, not approximated.
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("retried after %v, before the advertised Retry-After", elapsed)
	}
	// And the scheduler spacing was raised to at least the advertised delay.
	if got := sched.currentSpacing(); got < time.Second {
		t.Errorf("expected spacing raised to 1s after 429, got %v", got)
	}
}

func TestFetcher_404IsTerminal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(fastScheduler(t), newTier(), "")

	_, err := f.Do(context.Background(), FetchRequest{EndpointKey: "matches", URL: server.URL})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("404 must never be retried, got %d calls", n)
	}
}

func TestFetcher_OtherClientErrorsAreTerminal(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(fastScheduler(t), newTier(), "")

	_, err := f.Do(context.Background(), FetchRequest{EndpointKey: "matches", URL: server.URL})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusForbidden {
		t.Errorf("expected 403 in status error, got %d", se.Code)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("4xx must not be retried, got %d calls", n)
	}
}

func TestFetcher_ServerErrorsRetryUntilBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(fastScheduler(t), newTier(), "",
		WithMaxAttempts(3),
		WithServerErrorDelay(10*time.Millisecond),
	)

	_, err := f.Do(context.Background(), FetchRequest{EndpointKey: "matches", URL: server.URL})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable after exhaustion, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected the full 3-attempt budget, got %d calls", n)
	}
}

func TestFetcher_ServerErrorThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered")) //nolint:errcheck
	}))
	defer server.Close()

	f := NewFetcher(fastScheduler(t), newTier(), "",
		WithServerErrorDelay(10*time.Millisecond),
	)

	payload, err := f.Do(context.Background(), FetchRequest{EndpointKey: "matches", URL: server.URL})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(payload) != "recovered" {
		t.Errorf("unexpected payload: %s", payload)
	}
}

func TestFetcher_TimeoutClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	f := NewFetcher(fastScheduler(t), newTier(), "",
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
		WithMaxAttempts(1),
	)

	_, err := f.Do(context.Background(), FetchRequest{EndpointKey: "matches", URL: server.URL})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable for an exhausted timeout, got %v", err)
	}
}

func TestFetcher_ContextCancelDuringRetryWait(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(fastScheduler(t), newTier(), "",
		WithServerErrorDelay(5*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := f.Do(ctx, FetchRequest{EndpointKey: "matches", URL: server.URL})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline during retry wait, got %v", err)
	}
}

func TestFetcher_QuotaHeaderFeedsScheduler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Remaining", "0")
		w.Write([]byte("ok")) //nolint:errcheck
	}))
	defer server.Close()

	sched := startScheduler(t,
		WithMaxRequests(1000),
		WithWindow(time.Second),
		WithMinSpacing(time.Millisecond),
		WithLowWaterMark(2),
	)
	f := NewFetcher(sched, newTier(), "")

	if _, err := f.Do(context.Background(), FetchRequest{EndpointKey: "matches", URL: server.URL}); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got := sched.currentSpacing(); got <= time.Millisecond {
		t.Errorf("expected spacing raised after exhausted quota header, got %v", got)
	}
}
