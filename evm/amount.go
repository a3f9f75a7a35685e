package evm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Common stablecoin decimal precisions
const (
	USDCDecimals = 6
	USDTDecimals = 6
	DAIDecimals  = 18
)

// Amount represents a stablecoin amount in its smallest integer unit,
// together with the token's declared decimal precision.
type Amount struct {
	Value    *big.Int
	Decimals int
}

// ParseAmount converts a human-entered decimal string into an Amount
// scaled by the token's decimal precision. Parsing is purely textual so
// "10.5" with 6 decimals yields exactly 10500000; float64 is never
// involved.
func ParseAmount(s string, decimals int) (*Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimal precision %d", decimals)
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	digits := whole + frac
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
	}

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if neg {
		value.Neg(value)
	}
	return &Amount{Value: value, Decimals: decimals}, nil
}

// NewAmount creates an Amount from a float. Prefer ParseAmount when the
// input originated as text.
func NewAmount(amount float64, decimals int) (*Amount, error) {
	str := strconv.FormatFloat(amount, 'f', decimals, 64)
	return ParseAmount(str, decimals)
}

// ZeroAmount returns an Amount with value 0 at the given precision.
func ZeroAmount(decimals int) *Amount {
	return &Amount{Value: new(big.Int), Decimals: decimals}
}

// BaseUnits returns the amount as a string-encoded integer in the
// token's smallest unit, the encoding the bridge collaborator expects.
func (a *Amount) BaseUnits() string {
	if a == nil || a.Value == nil {
		return "0"
	}
	return a.Value.String()
}

// ToDecimalString renders the amount as an exact decimal string,
// e.g. 10500000 base units at 6 decimals is "10.5".
func (a *Amount) ToDecimalString() string {
	if a == nil || a.Value == nil {
		return "0"
	}
	str := a.Value.String()
	neg := strings.HasPrefix(str, "-")
	if neg {
		str = str[1:]
	}
	if len(str) <= a.Decimals {
		str = strings.Repeat("0", a.Decimals-len(str)+1) + str
	}
	whole := str[:len(str)-a.Decimals]
	decimal := strings.TrimRight(str[len(str)-a.Decimals:], "0")
	out := whole
	if decimal != "" {
		out += "." + decimal
	}
	if neg && out != "0" {
		out = "-" + out
	}
	return out
}

// ToFloat returns the amount as a float64 for display only.
func (a *Amount) ToFloat() float64 {
	result, _ := strconv.ParseFloat(a.ToDecimalString(), 64)
	return result
}

// Add adds two amounts of the same precision.
func (a *Amount) Add(b *Amount) *Amount {
	if a == nil || b == nil {
		return nil
	}
	return &Amount{Value: new(big.Int).Add(a.Value, b.Value), Decimals: a.Decimals}
}

// Sub subtracts b from a.
func (a *Amount) Sub(b *Amount) *Amount {
	if a == nil || b == nil {
		return nil
	}
	return &Amount{Value: new(big.Int).Sub(a.Value, b.Value), Decimals: a.Decimals}
}

// Cmp compares two amounts.
func (a *Amount) Cmp(b *Amount) int {
	if a == nil || b == nil {
		return 0
	}
	return a.Value.Cmp(b.Value)
}

// IsZero returns true if the amount is zero.
func (a *Amount) IsZero() bool {
	if a == nil || a.Value == nil {
		return true
	}
	return a.Value.Sign() == 0
}

// IsPositive returns true if the amount is strictly positive.
func (a *Amount) IsPositive() bool {
	if a == nil || a.Value == nil {
		return false
	}
	return a.Value.Sign() > 0
}

// IsNegative returns true if the amount is negative.
func (a *Amount) IsNegative() bool {
	if a == nil || a.Value == nil {
		return false
	}
	return a.Value.Sign() < 0
}
