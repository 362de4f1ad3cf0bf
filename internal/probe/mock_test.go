package probe

import (
	"context"
	"math/big"
	"sync"

	"github.com/shopspring/decimal"
)

// flakyProber fails the first Failures calls with Err, then succeeds.
type flakyProber struct {
	mu       sync.Mutex
	Failures int
	Err      error
	Result   *Result
	Calls    int
}

func (m *flakyProber) Probe(ctx context.Context, req Request) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Calls <= m.Failures {
		return nil, m.Err
	}
	return m.Result, nil
}

// blockingProber waits for the attempt context to end.
type blockingProber struct {
	Calls int
}

func (m *blockingProber) Probe(ctx context.Context, req Request) (*Result, error) {
	m.Calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func goodResult() *Result {
	return &Result{
		LowEstimatedExchangeRate:  decimal.RequireFromString("0.45"),
		HighEstimatedExchangeRate: decimal.RequireFromString("0.5"),
		MaxPacketAmount:           big.NewInt(1000000),
	}
}
