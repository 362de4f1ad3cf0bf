package quote

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ilpkit/connector/internal/amount"
)

// Quote is a time-bounded commitment to send SendAmount from a payment
// pointer so that Receiver gets ReceiveAmount.
type Quote struct {
	ID                        string          `json:"id"`
	PaymentPointerID          string          `json:"paymentPointerId"`
	Receiver                  string          `json:"receiver"`
	SendAmount                amount.Amount   `json:"sendAmount"`
	ReceiveAmount             amount.Amount   `json:"receiveAmount"`
	MaxPacketAmount           *big.Int        `json:"-"`
	MinExchangeRate           decimal.Decimal `json:"minExchangeRate"`
	LowEstimatedExchangeRate  decimal.Decimal `json:"lowEstimatedExchangeRate"`
	HighEstimatedExchangeRate decimal.Decimal `json:"highEstimatedExchangeRate"`
	CreatedAt                 time.Time       `json:"createdAt"`
	ExpiresAt                 time.Time       `json:"expiresAt"`
}

// Expired reports whether the quote can no longer be used at now.
func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

type quoteFields Quote

type quoteJSON struct {
	quoteFields
	MaxPacketAmount string `json:"maxPacketAmount"`
}

func (q Quote) MarshalJSON() ([]byte, error) {
	out := quoteJSON{quoteFields: quoteFields(q), MaxPacketAmount: "0"}
	if q.MaxPacketAmount != nil {
		out.MaxPacketAmount = q.MaxPacketAmount.String()
	}
	return json.Marshal(out)
}

func (q *Quote) UnmarshalJSON(data []byte) error {
	var in quoteJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*q = Quote(in.quoteFields)
	if in.MaxPacketAmount != "" {
		v, ok := new(big.Int).SetString(in.MaxPacketAmount, 10)
		if !ok {
			return fmt.Errorf("invalid maxPacketAmount %q", in.MaxPacketAmount)
		}
		q.MaxPacketAmount = v
	}
	return nil
}
