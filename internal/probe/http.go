package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPProber asks a rate-probe service (typically a STREAM sidecar) to run
// the probing round trips for it.
type HTTPProber struct {
	endpoint  string
	authToken string
	client    *http.Client
}

func NewHTTPProber(endpoint, authToken string) (*HTTPProber, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("must set probe_endpoint")
	}

	return &HTTPProber{
		endpoint:  endpoint,
		authToken: authToken,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}, nil
}

type probeRequest struct {
	Receiver         string `json:"receiver"`
	SourceAsset      Asset  `json:"sourceAsset"`
	DestinationAsset Asset  `json:"destinationAsset"`
	Amount           string `json:"amount"`
	// Set when amount is denominated in destinationAsset.
	FixedReceive bool `json:"fixedReceive"`
}

type probeResponse struct {
	LowEstimatedExchangeRate  decimal.Decimal `json:"lowEstimatedExchangeRate"`
	HighEstimatedExchangeRate decimal.Decimal `json:"highEstimatedExchangeRate"`
	MaxPacketAmount           string          `json:"maxPacketAmount"`
}

func (p *HTTPProber) Probe(ctx context.Context, req Request) (*Result, error) {
	amount := "0"
	if req.Amount != nil {
		amount = req.Amount.String()
	}
	body, err := json.Marshal(probeRequest{
		Receiver:         req.Receiver,
		SourceAsset:      req.SourceAsset,
		DestinationAsset: req.DestinationAsset,
		Amount:           amount,
		FixedReceive:     req.FixedReceive,
	})
	if err != nil {
		return nil, Permanent(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if p.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("client.Do: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("probe service status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		// The receiver or request was rejected; retrying won't change that.
		io.Copy(io.Discard, resp.Body)
		return nil, Permanent(fmt.Errorf("probe service status %d", resp.StatusCode))
	}

	var data probeResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode probe response: %w", err)
	}

	maxPacket, ok := new(big.Int).SetString(data.MaxPacketAmount, 10)
	if !ok {
		return nil, fmt.Errorf("%w: maxPacketAmount %q", ErrInvalidResult, data.MaxPacketAmount)
	}

	return &Result{
		LowEstimatedExchangeRate:  data.LowEstimatedExchangeRate,
		HighEstimatedExchangeRate: data.HighEstimatedExchangeRate,
		MaxPacketAmount:           maxPacket,
	}, nil
}
