package probe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultMaxAttempts = 3
	defaultMinBackoff  = 100 * time.Millisecond
	defaultMaxBackoff  = 2 * time.Second
	defaultTimeout     = 10 * time.Second
)

var (
	// ErrFailed wraps the last attempt's error once Retrying gives up.
	ErrFailed = errors.New("rate probe failed")
)

var (
	probeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_probe_attempts_total",
		Help: "Rate probe attempts by outcome.",
	}, []string{"outcome"})
)

// Retrying retries a Prober with exponential backoff. Every attempt gets
// its own timeout; a timed out attempt counts as a failure.
type Retrying struct {
	prober      Prober
	maxAttempts int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	timeout     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Retrying)

func WithRetryPolicy(maxAttempts int, minBackoff, maxBackoff time.Duration) Option {
	return func(r *Retrying) {
		if maxAttempts > 0 {
			r.maxAttempts = maxAttempts
		}
		if minBackoff > 0 {
			r.minBackoff = minBackoff
		}
		if maxBackoff >= minBackoff && maxBackoff > 0 {
			r.maxBackoff = maxBackoff
		}
	}
}

func WithAttemptTimeout(d time.Duration) Option {
	return func(r *Retrying) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRetrying(p Prober, opts ...Option) *Retrying {
	r := &Retrying{
		prober:      p,
		maxAttempts: defaultMaxAttempts,
		minBackoff:  defaultMinBackoff,
		maxBackoff:  defaultMaxBackoff,
		timeout:     defaultTimeout,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retrying) Probe(ctx context.Context, req Request) (*Result, error) {
	var (
		backoff = r.minBackoff
		lastErr error
	)
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		res, err := r.attempt(ctx, req)
		if err == nil {
			probeAttempts.WithLabelValues("success").Inc()
			return res, nil
		}
		probeAttempts.WithLabelValues("failure").Inc()
		lastErr = err

		// The caller went away, stop probing.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if IsPermanent(err) {
			break
		}
		if attempt == r.maxAttempts {
			break
		}

		log.Printf("probe: attempt %d/%d to %s failed: %v", attempt, r.maxAttempts, req.Receiver, err)
		if err := r.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff = nextBackoff(backoff, r.maxBackoff)
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrFailed, req.Receiver, lastErr)
}

func (r *Retrying) attempt(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.prober.Probe(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max || next < current {
		return max
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
