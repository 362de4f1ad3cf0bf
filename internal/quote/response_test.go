package quote

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilpkit/connector/internal/amount"
)

func TestCreateResponseSuccess(t *testing.T) {
	q := &Quote{
		ID:              "q-1",
		SendAmount:      amount.New(100, "USD", 2),
		ReceiveAmount:   amount.New(45, "XRP", 9),
		MaxPacketAmount: new(big.Int).Lsh(big.NewInt(1), 70),
	}

	resp := CreateResponse(q, nil)
	assert.Equal(t, "200", resp.Code)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Message)
	assert.Same(t, q, resp.Quote)
	assert.Equal(t, http.StatusOK, resp.Status())

	body, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "200", raw["code"])
	assert.Equal(t, true, raw["success"])
	assert.NotContains(t, raw, "message")

	rawQuote := raw["quote"].(map[string]any)
	assert.Equal(t, "1180591620717411303424", rawQuote["maxPacketAmount"])
	assert.Equal(t, "100", rawQuote["sendAmount"].(map[string]any)["value"])

	var decoded Response
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, 0, q.MaxPacketAmount.Cmp(decoded.Quote.MaxPacketAmount))
}

func TestCreateResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    string
		message string
		status  int
	}{
		{"unknown payment pointer", UnknownPaymentPointer, "404", "payment pointer does not exist", http.StatusNotFound},
		{"invalid receiver", InvalidReceiver, "400", "invalid receiver", http.StatusBadRequest},
		{"invalid amount", InvalidAmount, "400", "invalid amount", http.StatusBadRequest},
		{"probe failure", ProbeFailure, "500", "unable to probe receiver exchange rate", http.StatusInternalServerError},
		{"unexpected", errors.New("unexpected"), "500", "Error trying to create quote", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := CreateResponse(nil, tt.err)
			assert.Equal(t, tt.code, resp.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
			assert.Nil(t, resp.Quote)
			assert.Equal(t, tt.status, resp.Status())

			body, err := json.Marshal(resp)
			require.NoError(t, err)
			assert.Contains(t, string(body), `"quote":null`)
		})
	}
}
