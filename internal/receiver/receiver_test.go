package receiver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveJSON(body string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestResolve(t *testing.T) {
	srv := serveJSON(`{
		"id": "http://wallet2.example/bob/incoming-payments/1",
		"paymentPointer": "http://wallet2.example/bob",
		"assetCode": "XRP",
		"assetScale": 9,
		"incomingAmount": {"value": "56", "assetCode": "XRP", "assetScale": 9},
		"receivedAmount": {"value": "6", "assetCode": "XRP", "assetScale": 9},
		"completed": false
	}`, http.StatusOK)
	defer srv.Close()

	rcv, err := New(time.Second).Resolve(context.Background(), srv.URL+"/bob/incoming-payments/1")
	require.NoError(t, err)
	assert.Equal(t, "XRP", rcv.AssetCode)
	assert.Equal(t, uint8(9), rcv.AssetScale)

	remaining, err := rcv.RemainingAmount()
	require.NoError(t, err)
	assert.Equal(t, "50", remaining.Value.String())
}

func TestResolveInvalid(t *testing.T) {
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)

	var tests = []struct {
		name   string
		body   string
		status int
	}{
		{"not found", `{}`, http.StatusNotFound},
		{"malformed", `{"assetCode":`, http.StatusOK},
		{"no asset", `{"completed": false}`, http.StatusOK},
		{"completed", `{"assetCode":"XRP","assetScale":9,"completed":true}`, http.StatusOK},
		{"expired", `{"assetCode":"XRP","assetScale":9,"expiresAt":"` + past + `"}`, http.StatusOK},
		{"overpaid", `{"assetCode":"XRP","assetScale":9,
			"incomingAmount":{"value":"5","assetCode":"XRP","assetScale":9},
			"receivedAmount":{"value":"6","assetCode":"XRP","assetScale":9}}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(tt.body, tt.status)
			defer srv.Close()

			_, err := New(time.Second).Resolve(context.Background(), srv.URL)
			assert.ErrorIs(t, err, ErrInvalidReceiver)
		})
	}
}

func TestResolveBadURL(t *testing.T) {
	for _, u := range []string{"", "wallet2.example/bob", "ftp://wallet2.example/bob"} {
		_, err := New(time.Second).Resolve(context.Background(), u)
		assert.ErrorIs(t, err, ErrInvalidReceiver, u)
	}
}

func TestResolveAssetFromAmount(t *testing.T) {
	srv := serveJSON(`{"incomingAmount": {"value": "56", "assetCode": "XRP", "assetScale": 9}}`, http.StatusOK)
	defer srv.Close()

	rcv, err := New(time.Second).Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "XRP", rcv.AssetCode)
	assert.Equal(t, uint8(9), rcv.AssetScale)
}

func TestResolveCancelled(t *testing.T) {
	srv := serveJSON(`{}`, http.StatusOK)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(time.Second).Resolve(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
