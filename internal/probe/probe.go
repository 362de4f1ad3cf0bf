package probe

import (
	"context"
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidResult = errors.New("invalid probe result")
)

type Asset struct {
	Code  string `json:"code"`
	Scale uint8  `json:"scale"`
}

// Request asks for the rates a path to Receiver supports for Amount.
// Amount is in SourceAsset units, or in DestinationAsset units when
// FixedReceive is set.
type Request struct {
	Receiver         string
	SourceAsset      Asset
	DestinationAsset Asset
	Amount           *big.Int
	FixedReceive     bool
}

// Result is the outcome of rate discovery. Rates convert source units into
// destination units.
type Result struct {
	LowEstimatedExchangeRate  decimal.Decimal
	HighEstimatedExchangeRate decimal.Decimal
	MaxPacketAmount           *big.Int
}

type Prober interface {
	Probe(ctx context.Context, req Request) (*Result, error)
}

// Validate checks 0 < low <= high and a positive packet size.
func (r *Result) Validate() error {
	switch {
	case r == nil:
		return ErrInvalidResult
	case !r.LowEstimatedExchangeRate.IsPositive():
		return ErrInvalidResult
	case r.HighEstimatedExchangeRate.LessThan(r.LowEstimatedExchangeRate):
		return ErrInvalidResult
	case r.MaxPacketAmount == nil || r.MaxPacketAmount.Sign() <= 0:
		return ErrInvalidResult
	}
	return nil
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
