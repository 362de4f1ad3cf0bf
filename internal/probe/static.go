package probe

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// StaticProber derives rates from configured reference prices instead of
// probing the network. Prices are quoted against a common base asset.
type StaticProber struct {
	prices    map[string]decimal.Decimal
	spread    decimal.Decimal
	maxPacket *big.Int
}

func NewStaticProber(prices map[string]string, spread string, maxPacket string) (*StaticProber, error) {
	parsed := make(map[string]decimal.Decimal, len(prices))
	for code, price := range prices {
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", code, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("price for %s must be positive", code)
		}
		parsed[code] = d
	}

	s := decimal.Zero
	if spread != "" {
		var err error
		if s, err = decimal.NewFromString(spread); err != nil {
			return nil, fmt.Errorf("spread: %w", err)
		}
	}
	if s.IsNegative() || s.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("spread must be in [0, 1)")
	}

	mp, ok := new(big.Int).SetString(maxPacket, 10)
	if !ok || mp.Sign() <= 0 {
		return nil, fmt.Errorf("max packet amount must be a positive integer")
	}

	return &StaticProber{
		prices:    parsed,
		spread:    s,
		maxPacket: mp,
	}, nil
}

func (p *StaticProber) Probe(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, ok := p.prices[req.SourceAsset.Code]
	if !ok {
		return nil, Permanent(fmt.Errorf("no price for %s", req.SourceAsset.Code))
	}
	dst, ok := p.prices[req.DestinationAsset.Code]
	if !ok {
		return nil, Permanent(fmt.Errorf("no price for %s", req.DestinationAsset.Code))
	}

	// Rates are in base units, so account for the scale difference.
	shift := int32(req.DestinationAsset.Scale) - int32(req.SourceAsset.Scale)
	rate := src.Shift(shift).Div(dst)

	one := decimal.NewFromInt(1)
	return &Result{
		LowEstimatedExchangeRate:  rate.Mul(one.Sub(p.spread)),
		HighEstimatedExchangeRate: rate.Mul(one.Add(p.spread)),
		MaxPacketAmount:           new(big.Int).Set(p.maxPacket),
	}, nil
}
