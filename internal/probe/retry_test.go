package probe

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("connection reset")

func noSleep(r *Retrying) *[]time.Duration {
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return &waits
}

func TestRetryingRecovers(t *testing.T) {
	var tests = []struct {
		name        string
		failures    int
		maxAttempts int
		calls       int
		ok          bool
	}{
		{"first attempt", 0, 3, 1, true},
		{"fails twice then succeeds", 2, 3, 3, true},
		{"fails until exhausted", 3, 3, 3, false},
		{"single attempt", 1, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyProber{Failures: tt.failures, Err: errTransient, Result: goodResult()}
			r := NewRetrying(inner, WithRetryPolicy(tt.maxAttempts, time.Millisecond, 4*time.Millisecond))
			noSleep(r)

			res, err := r.Probe(context.Background(), Request{Receiver: "http://wallet2.example/bob"})
			assert.Equal(t, tt.calls, inner.Calls)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, goodResult(), res)
				return
			}
			assert.ErrorIs(t, err, errTransient)
			assert.ErrorIs(t, err, ErrFailed)
			assert.Nil(t, res)
		})
	}
}

func TestRetryingBackoffGrows(t *testing.T) {
	inner := &flakyProber{Failures: 4, Err: errTransient, Result: goodResult()}
	r := NewRetrying(inner, WithRetryPolicy(5, 10*time.Millisecond, 25*time.Millisecond))
	waits := noSleep(r)

	_, err := r.Probe(context.Background(), Request{})
	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond, 25 * time.Millisecond}, *waits)
}

func TestRetryingStopsOnPermanent(t *testing.T) {
	inner := &flakyProber{Failures: 5, Err: Permanent(errors.New("no route")), Result: goodResult()}
	r := NewRetrying(inner)
	noSleep(r)

	_, err := r.Probe(context.Background(), Request{})
	assert.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrFailed)
	assert.Equal(t, 1, inner.Calls)
}

func TestRetryingRejectsInvalidResult(t *testing.T) {
	inner := &flakyProber{Result: &Result{
		LowEstimatedExchangeRate:  decimal.RequireFromString("0.6"),
		HighEstimatedExchangeRate: decimal.RequireFromString("0.5"),
		MaxPacketAmount:           big.NewInt(10),
	}}
	r := NewRetrying(inner, WithRetryPolicy(2, time.Millisecond, time.Millisecond))
	noSleep(r)

	_, err := r.Probe(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrInvalidResult)
	assert.Equal(t, 2, inner.Calls)
}

func TestRetryingAttemptTimeout(t *testing.T) {
	inner := &blockingProber{}
	r := NewRetrying(inner, WithRetryPolicy(2, time.Millisecond, time.Millisecond), WithAttemptTimeout(5*time.Millisecond))
	noSleep(r)

	_, err := r.Probe(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, inner.Calls)
}

func TestRetryingCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakyProber{Failures: 5, Err: errTransient, Result: goodResult()}
	r := NewRetrying(inner)

	_, err := r.Probe(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrFailed)
	assert.Equal(t, 1, inner.Calls)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}

func TestValidate(t *testing.T) {
	var tests = []struct {
		name string
		res  *Result
		ok   bool
	}{
		{"valid", goodResult(), true},
		{"nil", nil, false},
		{"zero low", &Result{LowEstimatedExchangeRate: decimal.Zero, HighEstimatedExchangeRate: decimal.NewFromInt(1), MaxPacketAmount: big.NewInt(1)}, false},
		{"missing packet", &Result{LowEstimatedExchangeRate: decimal.NewFromInt(1), HighEstimatedExchangeRate: decimal.NewFromInt(1)}, false},
		{"equal bounds", &Result{LowEstimatedExchangeRate: decimal.NewFromInt(1), HighEstimatedExchangeRate: decimal.NewFromInt(1), MaxPacketAmount: big.NewInt(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.res.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidResult)
			}
		})
	}
}
