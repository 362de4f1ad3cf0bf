package quote

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/ilpkit/connector/internal/amount"
	"github.com/ilpkit/connector/internal/db/sqlite"
	"github.com/ilpkit/connector/internal/probe"
	"github.com/ilpkit/connector/internal/receiver"
)

type mockPaymentPointerStore struct {
	GetPaymentPointerPP  *sqlite.PaymentPointer
	GetPaymentPointerErr error
}

func (m *mockPaymentPointerStore) GetPaymentPointer(ctx context.Context, id string) (*sqlite.PaymentPointer, error) {
	if m.GetPaymentPointerPP == nil || m.GetPaymentPointerPP.ID != id {
		return nil, m.GetPaymentPointerErr
	}
	return m.GetPaymentPointerPP, m.GetPaymentPointerErr
}

type mockReceiverResolver struct {
	ResolveReceiver *receiver.Receiver
	ResolveErr      error
}

func (m *mockReceiverResolver) Resolve(ctx context.Context, url string) (*receiver.Receiver, error) {
	return m.ResolveReceiver, m.ResolveErr
}

type mockProber struct {
	ProbeResult *probe.Result
	ProbeErr    error

	Calls   int
	Request probe.Request
}

func (m *mockProber) Probe(ctx context.Context, req probe.Request) (*probe.Result, error) {
	m.Calls++
	m.Request = req
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.ProbeResult, m.ProbeErr
}

type mockRepo struct {
	CreateErr error
	quotes    map[string]*Quote
}

func (m *mockRepo) Create(ctx context.Context, q *Quote) (*Quote, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.quotes == nil {
		m.quotes = map[string]*Quote{}
	}
	stored := *q
	m.quotes[q.ID] = &stored
	return &stored, nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (*Quote, error) {
	return m.quotes[id], nil
}

const (
	testPointerID = "c3b5a0fc-1f0e-4e6c-9f5c-8d2a1f3c4b5d"
	testReceiver  = "https://wallet2.example/incoming-payments/9e1c"
)

func testPaymentPointer() *sqlite.PaymentPointer {
	return &sqlite.PaymentPointer{
		ID:         testPointerID,
		URL:        "https://wallet1.example/alice",
		AssetCode:  "USD",
		AssetScale: 2,
	}
}

func testIncomingPayment(incoming, received int64) *receiver.Receiver {
	in := amount.New(incoming, "XRP", 9)
	rcvd := amount.New(received, "XRP", 9)
	return &receiver.Receiver{
		URL:            testReceiver,
		AssetCode:      "XRP",
		AssetScale:     9,
		IncomingAmount: &in,
		ReceivedAmount: &rcvd,
	}
}

func testProbeResult(low, high string) *probe.Result {
	return &probe.Result{
		LowEstimatedExchangeRate:  decimal.RequireFromString(low),
		HighEstimatedExchangeRate: decimal.RequireFromString(high),
		MaxPacketAmount:           big.NewInt(1000000),
	}
}
