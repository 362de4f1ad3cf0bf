package amount

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidValue = errors.New("amount value must be a non-negative integer")
)

// Amount is an integer quantity of an asset. AssetScale is the decimal
// exponent, so a Value of 1234 with scale 2 is 12.34 units.
type Amount struct {
	Value      *big.Int
	AssetCode  string
	AssetScale uint8
}

func New(value int64, code string, scale uint8) Amount {
	return Amount{
		Value:      big.NewInt(value),
		AssetCode:  code,
		AssetScale: scale,
	}
}

// Parse builds an Amount from a base-10 value string.
func Parse(value, code string, scale uint8) (Amount, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	return Amount{Value: v, AssetCode: code, AssetScale: scale}, nil
}

// SameAsset reports whether a and b are directly comparable.
func (a Amount) SameAsset(b Amount) bool {
	return a.AssetCode == b.AssetCode && a.AssetScale == b.AssetScale
}

func (a Amount) IsZero() bool {
	return a.Value == nil || a.Value.Sign() == 0
}

// Sub returns a-b. Both amounts must share an asset.
func (a Amount) Sub(b Amount) (Amount, error) {
	if !a.SameAsset(b) {
		return Amount{}, fmt.Errorf("asset mismatch: %s/%d vs %s/%d", a.AssetCode, a.AssetScale, b.AssetCode, b.AssetScale)
	}
	return Amount{
		Value:      new(big.Int).Sub(a.value(), b.value()),
		AssetCode:  a.AssetCode,
		AssetScale: a.AssetScale,
	}, nil
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s (scale %d)", a.value().String(), a.AssetCode, a.AssetScale)
}

func (a Amount) value() *big.Int {
	if a.Value == nil {
		return new(big.Int)
	}
	return a.Value
}

type amountJSON struct {
	Value      string `json:"value"`
	AssetCode  string `json:"assetCode"`
	AssetScale uint8  `json:"assetScale"`
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(amountJSON{
		Value:      a.value().String(),
		AssetCode:  a.AssetCode,
		AssetScale: a.AssetScale,
	})
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw amountJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Value, raw.AssetCode, raw.AssetScale)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
