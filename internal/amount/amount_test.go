package amount

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	var tests = []struct {
		name  string
		value string
		ok    bool
	}{
		{"small", "56", true},
		{"zero", "0", true},
		{"beyond uint64", "340282366920938463463374607431768211456", true},
		{"negative", "-1", false},
		{"decimal", "1.5", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.value, "XRP", 9)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.value, a.Value.String())
		})
	}
}

func TestSub(t *testing.T) {
	incoming := New(100, "USD", 2)
	received := New(40, "USD", 2)

	remaining, err := incoming.Sub(received)
	assert.NoError(t, err)
	assert.Equal(t, "60", remaining.Value.String())

	_, err = incoming.Sub(New(1, "USD", 6))
	assert.Error(t, err)
}

func TestJSON(t *testing.T) {
	a := New(123, "USD", 2)

	data, err := json.Marshal(a)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"value":"123","assetCode":"USD","assetScale":2}`, string(data))

	var decoded Amount
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.SameAsset(a))
	assert.Equal(t, 0, decoded.Value.Cmp(a.Value))

	assert.Error(t, json.Unmarshal([]byte(`{"value":"-5","assetCode":"USD","assetScale":2}`), &decoded))
}
