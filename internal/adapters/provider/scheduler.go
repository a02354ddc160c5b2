// Package provider implements the upstream data provider client: the
// rate-limited request scheduler, the resilient fetch client, and the
// repository boundary that resolves players, matches, and telemetry.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caliban/dropzone/pkg/logger"
	"github.com/caliban/dropzone/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultMaxRequests      = 10
	defaultWindow           = time.Minute
	defaultMinSpacing       = 500 * time.Millisecond
	defaultLowWaterMark     = 2
	defaultSpacingIncrement = 500 * time.Millisecond
	defaultMaxSpacing       = 10 * time.Second
	defaultSubmitBuffer     = 256
)

// pending is one queued admission request. It is owned exclusively by the
// scheduler until granted; the grant channel transfers control back to the
// caller.
type pending struct {
	id          string
	endpointKey string
	isRetry     bool
	enqueuedAt  time.Time
	grant       chan struct{}
}

// Scheduler is the single admission-controlled queue in front of the
// upstream provider. All fetches funnel through it, so no two upstream
// calls proceed without satisfying the global quota and per-endpoint
// spacing constraints.
type Scheduler struct {
	maxRequests      int
	window           time.Duration
	lowWaterMark     int
	spacingIncrement time.Duration
	maxSpacing       time.Duration

	// Rolling-window state. Mutated only inside the admission loop and the
	// quota-telemetry path, guarded by mu.
	mu         sync.Mutex
	minSpacing time.Duration
	timestamps []time.Time
	lastSent   map[string]time.Time

	submit chan *pending
	stop   chan struct{}
	done   chan struct{}

	log logger.Logger
}

// NewScheduler creates a scheduler with configuration options. Call Start
// before submitting admissions.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		maxRequests:      defaultMaxRequests,
		window:           defaultWindow,
		minSpacing:       defaultMinSpacing,
		lowWaterMark:     defaultLowWaterMark,
		spacingIncrement: defaultSpacingIncrement,
		maxSpacing:       defaultMaxSpacing,
		lastSent:         make(map[string]time.Time),
		submit:           make(chan *pending, defaultSubmitBuffer),
		stop:             make(chan struct{}),
		done:             make(chan struct{}),
		log:              logger.Get().Named("scheduler"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateSchedulerMinSpacing(s.minSpacing)
	return s
}

// Start launches the admission loop.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop shuts the admission loop down and waits for it to drain.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Admit blocks until the scheduler grants a slot for endpointKey or ctx is
// done. Retries bypass per-endpoint spacing; their delay is owned by the
// fetch client's backoff policy.
func (s *Scheduler) Admit(ctx context.Context, endpointKey string, isRetry bool) error {
	p := &pending{
		id:          uuid.NewString(),
		endpointKey: endpointKey,
		isRetry:     isRetry,
		enqueuedAt:  time.Now(),
		grant:       make(chan struct{}),
	}

	select {
	case s.submit <- p:
	case <-s.stop:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-p.grant:
		metrics.RecordSchedulerAdmissionWait(float64(time.Since(p.enqueuedAt).Milliseconds()))
		return nil
	case <-s.stop:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ObserveRemaining feeds provider-reported remaining-quota telemetry back
// into the scheduler. Falling below the low-water mark permanently raises
// the per-endpoint spacing; it never shrinks within a session.
func (s *Scheduler) ObserveRemaining(remaining int) {
	if remaining >= s.lowWaterMark {
		return
	}
	s.mu.Lock()
	raised := s.raiseSpacingLocked(s.minSpacing + s.spacingIncrement)
	spacing := s.minSpacing
	s.mu.Unlock()
	if raised {
		s.log.Warn(context.Background(), "upstream quota low; raising request spacing",
			logger.Int("remaining", remaining),
			logger.Duration("min_spacing", spacing),
		)
	}
}

// RaiseSpacing raises the per-endpoint spacing to at least d. Used by the
// fetch client when the provider answers 429.
func (s *Scheduler) RaiseSpacing(d time.Duration) {
	s.mu.Lock()
	s.raiseSpacingLocked(d)
	s.mu.Unlock()
}

// raiseSpacingLocked applies the one-way adaptive throttle. Caller holds mu.
func (s *Scheduler) raiseSpacingLocked(d time.Duration) bool {
	if d > s.maxSpacing {
		d = s.maxSpacing
	}
	if d <= s.minSpacing {
		return false
	}
	s.minSpacing = d
	metrics.UpdateSchedulerMinSpacing(d)
	return true
}

// run is the cooperative admission loop. A single goroutine owns the queue
// and the rolling-window state, which keeps all constraint checks free of
// data races without fine-grained locking.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	var queue []*pending
	for {
		s.drainSubmissions(&queue)
		metrics.UpdateSchedulerQueueDepth(len(queue))

		if len(queue) == 0 {
			select {
			case p := <-s.submit:
				queue = append(queue, p)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		now := time.Now()

		// Global quota applies to every queued request, so a quota wait
		// parks the whole queue.
		if wait := s.quotaWait(now); wait > 0 {
			metrics.RecordSchedulerRequeue()
			if !s.sleep(ctx, wait, &queue) {
				return
			}
			continue
		}

		// Per-endpoint spacing: admit the first request that clears it.
		// Requests blocked on the same endpoint keep their relative order;
		// faster-clearing requests behind them may overtake.
		idx, wait := s.nextAdmittable(now, queue)
		if idx < 0 {
			metrics.RecordSchedulerRequeue()
			if !s.sleep(ctx, wait, &queue) {
				return
			}
			continue
		}

		p := queue[idx]
		queue = append(queue[:idx], queue[idx+1:]...)
		s.admit(p, now)
	}
}

// drainSubmissions moves everything waiting on the submit channel to the
// queue tail without blocking.
func (s *Scheduler) drainSubmissions(queue *[]*pending) {
	for {
		select {
		case p := <-s.submit:
			*queue = append(*queue, p)
		default:
			return
		}
	}
}

// sleep waits for d while still accepting submissions. Returns false when
// the loop should exit.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration, queue *[]*pending) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case p := <-s.submit:
			*queue = append(*queue, p)
		case <-timer.C:
			return true
		case <-s.stop:
			return false
		case <-ctx.Done():
			return false
		}
	}
}

// quotaWait returns how long until the trailing window has room for one
// more admission. Prunes timestamps older than the window as a side effect.
func (s *Scheduler) quotaWait(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.timestamps) && !s.timestamps[i].After(cutoff) {
		i++
	}
	s.timestamps = s.timestamps[i:]

	metrics.UpdateSchedulerWindowUsage(float64(len(s.timestamps)) / float64(s.maxRequests))

	if len(s.timestamps) < s.maxRequests {
		return 0
	}
	// Oldest admission leaving the window frees the next slot.
	return s.timestamps[0].Add(s.window).Sub(now)
}

// nextAdmittable returns the index of the first queued request whose
// spacing constraint is satisfied, or -1 plus the shortest wait.
func (s *Scheduler) nextAdmittable(now time.Time, queue []*pending) (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shortest := time.Duration(-1)
	for i, p := range queue {
		wait := time.Duration(0)
		if !p.isRetry {
			if last, ok := s.lastSent[p.endpointKey]; ok {
				if until := last.Add(s.minSpacing).Sub(now); until > 0 {
					wait = until
				}
			}
		}
		if wait == 0 {
			return i, 0
		}
		if shortest < 0 || wait < shortest {
			shortest = wait
		}
	}
	return -1, shortest
}

// admit grants the request and records the admission in the rate window.
func (s *Scheduler) admit(p *pending, now time.Time) {
	s.mu.Lock()
	s.timestamps = append(s.timestamps, now)
	s.lastSent[p.endpointKey] = now
	s.mu.Unlock()

	metrics.RecordSchedulerAdmission()
	close(p.grant)
}
