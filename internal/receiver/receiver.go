package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ilpkit/connector/internal/amount"
)

var (
	ErrInvalidReceiver = errors.New("invalid receiver")
	ErrCompleted       = errors.New("incoming payment completed")
	ErrExpired         = errors.New("incoming payment expired")
)

// Receiver is the published state of an incoming payment.
type Receiver struct {
	URL            string
	AssetCode      string
	AssetScale     uint8
	IncomingAmount *amount.Amount
	ReceivedAmount *amount.Amount
	Completed      bool
	ExpiresAt      *time.Time
}

// RemainingAmount is how much the incoming payment still accepts, or nil
// if it doesn't state an amount.
func (r *Receiver) RemainingAmount() (*amount.Amount, error) {
	if r.IncomingAmount == nil {
		return nil, nil
	}
	if r.ReceivedAmount == nil {
		remaining := *r.IncomingAmount
		return &remaining, nil
	}
	remaining, err := r.IncomingAmount.Sub(*r.ReceivedAmount)
	if err != nil {
		return nil, err
	}
	if remaining.Value.Sign() < 0 {
		return nil, fmt.Errorf("received exceeds incoming amount")
	}
	return &remaining, nil
}

type incomingPayment struct {
	ID             string         `json:"id"`
	PaymentPointer string         `json:"paymentPointer"`
	AssetCode      string         `json:"assetCode"`
	AssetScale     *uint8         `json:"assetScale"`
	IncomingAmount *amount.Amount `json:"incomingAmount"`
	ReceivedAmount *amount.Amount `json:"receivedAmount"`
	Completed      bool           `json:"completed"`
	ExpiresAt      *time.Time     `json:"expiresAt"`
}

// Resolver fetches incoming payments over HTTP.
type Resolver struct {
	client *http.Client
	now    func() time.Time
}

func New(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		now: time.Now,
	}
}

// Resolve fetches and validates the incoming payment at receiverURL. All
// failures wrap ErrInvalidReceiver except context cancellation.
func (r *Resolver) Resolve(ctx context.Context, receiverURL string) (*Receiver, error) {
	u, err := url.Parse(receiverURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: bad url %q", ErrInvalidReceiver, receiverURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceiver, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceiver, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidReceiver, resp.StatusCode)
	}

	var payment incomingPayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidReceiver, err)
	}

	return r.validate(receiverURL, payment)
}

func (r *Resolver) validate(receiverURL string, p incomingPayment) (*Receiver, error) {
	rcv := &Receiver{
		URL:            receiverURL,
		AssetCode:      p.AssetCode,
		IncomingAmount: p.IncomingAmount,
		ReceivedAmount: p.ReceivedAmount,
		Completed:      p.Completed,
		ExpiresAt:      p.ExpiresAt,
	}
	if p.AssetScale != nil {
		rcv.AssetScale = *p.AssetScale
	}

	// Older documents only carry the asset on the amounts.
	if rcv.AssetCode == "" && p.IncomingAmount != nil {
		rcv.AssetCode = p.IncomingAmount.AssetCode
		rcv.AssetScale = p.IncomingAmount.AssetScale
	}
	if rcv.AssetCode == "" {
		return nil, fmt.Errorf("%w: missing asset", ErrInvalidReceiver)
	}

	switch {
	case rcv.Completed:
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceiver, ErrCompleted)
	case rcv.ExpiresAt != nil && !rcv.ExpiresAt.After(r.now()):
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceiver, ErrExpired)
	}

	if _, err := rcv.RemainingAmount(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceiver, err)
	}

	return rcv, nil
}
