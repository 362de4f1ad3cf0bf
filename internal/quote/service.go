package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ilpkit/connector/internal/amount"
	"github.com/ilpkit/connector/internal/db/sqlite"
	"github.com/ilpkit/connector/internal/probe"
	"github.com/ilpkit/connector/internal/receiver"
)

const (
	DefaultTTL = 5 * time.Minute

	modeFixedSend       = "fixed_send"
	modeFixedReceive    = "fixed_receive"
	modeIncomingPayment = "incoming_payment"
)

var (
	quotesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_quotes_created_total",
		Help: "Quotes created by amount mode.",
	}, []string{"mode"})
	quoteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connector_quote_errors_total",
		Help: "Refused quote requests by error.",
	}, []string{"error"})
)

type paymentPointerStore interface {
	GetPaymentPointer(ctx context.Context, id string) (*sqlite.PaymentPointer, error)
}

type receiverResolver interface {
	Resolve(ctx context.Context, url string) (*receiver.Receiver, error)
}

type repository interface {
	Create(ctx context.Context, q *Quote) (*Quote, error)
	Get(ctx context.Context, id string) (*Quote, error)
}

// CreateOptions describe a quote request. At most one of SendAmount and
// ReceiveAmount may be set; with neither, the receiver's remaining incoming
// amount is quoted.
type CreateOptions struct {
	PaymentPointerID string         `json:"paymentPointerId"`
	Receiver         string         `json:"receiver"`
	SendAmount       *amount.Amount `json:"sendAmount,omitempty"`
	ReceiveAmount    *amount.Amount `json:"receiveAmount,omitempty"`
}

type Service struct {
	pointers  paymentPointerStore
	receivers receiverResolver
	prober    probe.Prober
	repo      repository
	ttl       time.Duration
	now       func() time.Time
	tracer    trace.Tracer
}

func New(pointers paymentPointerStore, receivers receiverResolver, prober probe.Prober, repo repository, ttl time.Duration) (*Service, error) {
	if pointers == nil || receivers == nil || prober == nil || repo == nil {
		return nil, fmt.Errorf("quote service: missing dependency")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		pointers:  pointers,
		receivers: receivers,
		prober:    prober,
		repo:      repo,
		ttl:       ttl,
		now:       time.Now,
		tracer:    otel.Tracer("github.com/ilpkit/connector/internal/quote"),
	}, nil
}

// Get returns the stored quote, or nil if there is none.
func (s *Service) Get(ctx context.Context, id string) (*Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return q, nil
}

// Create prices and persists a quote. Refusals are QuoteError values; any
// other error is unexpected.
func (s *Service) Create(ctx context.Context, opts CreateOptions) (*Quote, error) {
	mode := amountMode(opts)

	ctx, span := s.tracer.Start(ctx, "quote.Create", trace.WithAttributes(
		attribute.String("quote.mode", mode),
		attribute.String("quote.payment_pointer_id", opts.PaymentPointerID),
	))
	defer span.End()

	q, err := s.create(ctx, opts, mode)
	if err != nil {
		label := errorLabel(err)
		quoteErrors.WithLabelValues(label).Inc()
		span.SetAttributes(attribute.String("quote.result", label))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	quotesCreated.WithLabelValues(mode).Inc()
	span.SetAttributes(
		attribute.String("quote.result", "created"),
		attribute.String("quote.id", q.ID),
	)
	return q, nil
}

func amountMode(opts CreateOptions) string {
	switch {
	case opts.SendAmount != nil:
		return modeFixedSend
	case opts.ReceiveAmount != nil:
		return modeFixedReceive
	default:
		return modeIncomingPayment
	}
}

func (s *Service) create(ctx context.Context, opts CreateOptions, mode string) (*Quote, error) {
	if opts.SendAmount != nil && opts.ReceiveAmount != nil {
		return nil, InvalidAmount
	}
	if (opts.SendAmount != nil && opts.SendAmount.IsZero()) || (opts.ReceiveAmount != nil && opts.ReceiveAmount.IsZero()) {
		return nil, InvalidAmount
	}

	pp, err := s.pointers.GetPaymentPointer(ctx, opts.PaymentPointerID)
	if err != nil {
		return nil, fmt.Errorf("get payment pointer: %w", err)
	}
	if pp == nil {
		return nil, UnknownPaymentPointer
	}
	sourceAsset := probe.Asset{Code: pp.AssetCode, Scale: pp.AssetScale}
	if opts.SendAmount != nil && !sameAsset(*opts.SendAmount, sourceAsset) {
		return nil, InvalidAmount
	}

	rcv, err := s.receivers.Resolve(ctx, opts.Receiver)
	if err != nil {
		if errors.Is(err, receiver.ErrInvalidReceiver) {
			return nil, fmt.Errorf("%w: %v", InvalidReceiver, err)
		}
		return nil, fmt.Errorf("resolve receiver: %w", err)
	}
	destAsset := probe.Asset{Code: rcv.AssetCode, Scale: rcv.AssetScale}

	remaining, err := rcv.RemainingAmount()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", InvalidReceiver, err)
	}

	// The amount that drives the probe and the derivation.
	var fixed *big.Int
	switch mode {
	case modeFixedSend:
		fixed = opts.SendAmount.Value
	case modeFixedReceive:
		if !sameAsset(*opts.ReceiveAmount, destAsset) {
			return nil, InvalidAmount
		}
		if remaining != nil && opts.ReceiveAmount.Value.Cmp(remaining.Value) > 0 {
			return nil, InvalidAmount
		}
		fixed = opts.ReceiveAmount.Value
	default:
		if remaining == nil || remaining.IsZero() {
			return nil, InvalidReceiver
		}
		fixed = remaining.Value
	}

	res, err := s.prober.Probe(ctx, probe.Request{
		Receiver:         opts.Receiver,
		SourceAsset:      sourceAsset,
		DestinationAsset: destAsset,
		Amount:           new(big.Int).Set(fixed),
		FixedReceive:     mode != modeFixedSend,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isProbeFailure(err) {
			return nil, fmt.Errorf("%w: %v", ProbeFailure, err)
		}
		return nil, fmt.Errorf("probe rates: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ProbeFailure, err)
	}

	low, high := res.LowEstimatedExchangeRate, res.HighEstimatedExchangeRate

	var send, recv *big.Int
	if mode == modeFixedSend {
		send = new(big.Int).Set(fixed)
		recv = mulFloor(send, low)
		if remaining != nil && recv.Cmp(remaining.Value) > 0 {
			return nil, InvalidAmount
		}
	} else {
		recv = new(big.Int).Set(fixed)
		send = divCeil(recv, low)
	}
	if send.Sign() <= 0 || recv.Sign() <= 0 {
		return nil, InvalidAmount
	}

	createdAt := s.now().UTC()
	q := &Quote{
		ID:               uuid.New().String(),
		PaymentPointerID: pp.ID,
		Receiver:         opts.Receiver,
		SendAmount: amount.Amount{
			Value:      send,
			AssetCode:  sourceAsset.Code,
			AssetScale: sourceAsset.Scale,
		},
		ReceiveAmount: amount.Amount{
			Value:      recv,
			AssetCode:  destAsset.Code,
			AssetScale: destAsset.Scale,
		},
		MaxPacketAmount:           new(big.Int).Set(res.MaxPacketAmount),
		MinExchangeRate:           minExchangeRate(send, recv, low, high),
		LowEstimatedExchangeRate:  low,
		HighEstimatedExchangeRate: high,
		CreatedAt:                 createdAt,
		ExpiresAt:                 createdAt.Add(s.ttl),
	}

	stored, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store quote: %w", err)
	}
	return stored, nil
}

// isProbeFailure reports whether err means no usable path or rate was
// found, as opposed to the prober itself breaking.
func isProbeFailure(err error) bool {
	return errors.Is(err, probe.ErrFailed) ||
		errors.Is(err, probe.ErrInvalidResult) ||
		probe.IsPermanent(err)
}

func sameAsset(a amount.Amount, asset probe.Asset) bool {
	return a.AssetCode == asset.Code && a.AssetScale == asset.Scale
}

// mulFloor returns floor(v * rate) for non-negative v and rate.
func mulFloor(v *big.Int, rate decimal.Decimal) *big.Int {
	r := rate.Rat()
	n := new(big.Int).Mul(v, r.Num())
	return n.Quo(n, r.Denom())
}

// divCeil returns ceil(v / rate) for non-negative v and positive rate.
func divCeil(v *big.Int, rate decimal.Decimal) *big.Int {
	r := rate.Rat()
	n := new(big.Int).Mul(v, r.Denom())
	q, m := new(big.Int).QuoRem(n, r.Num(), new(big.Int))
	if m.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// minExchangeRate is the break-even rate of the quoted amounts kept within
// the probed bounds.
func minExchangeRate(send, recv *big.Int, low, high decimal.Decimal) decimal.Decimal {
	rate := decimal.NewFromBigInt(recv, 0).DivRound(decimal.NewFromBigInt(send, 0), 18)
	switch {
	case rate.LessThan(low):
		return low
	case rate.GreaterThan(high):
		return high
	}
	return rate
}
