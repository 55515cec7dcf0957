// Package amount converts between decimal text and the 18-decimal integer
// unit the auction contract works in. Parsing never goes through floating
// point, so "0.1" scales to exactly 100000000000000000.
package amount

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/dmitrijs2005/blindauction/internal/common"
)

// Amount is a signed value in smallest units (value * 10^18).
type Amount struct {
	v *big.Int
}

var scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(common.AmountDecimals), nil)

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// Parse reads decimal text such as "1", "-2.5", "0.000000000000000001" or
// ".5". Exponents, NaN, Inf and more than 18 fractional digits are rejected
// with common.ErrInvalidAmount.
func Parse(s string) (Amount, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Amount{}, fmt.Errorf("%w: empty", common.ErrInvalidAmount)
	}

	neg := false
	switch text[0] {
	case '-':
		neg = true
		text = text[1:]
	case '+':
		text = text[1:]
	}

	intPart, fracPart, _ := strings.Cut(text, ".")
	if intPart == "" && fracPart == "" {
		return Amount{}, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
	}
	if !digits(intPart) || !digits(fracPart) {
		return Amount{}, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
	}
	if len(fracPart) > common.AmountDecimals {
		return Amount{}, fmt.Errorf("%w: more than %d fractional digits", common.ErrInvalidAmount, common.AmountDecimals)
	}

	padded := intPart + fracPart + strings.Repeat("0", common.AmountDecimals-len(fracPart))
	v, ok := new(big.Int).SetString(padded, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", common.ErrInvalidAmount, s)
	}
	if neg {
		v.Neg(v)
	}
	return Amount{v: v}, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FromUint64 wraps an already scaled value.
func FromUint64(v uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(v)}
}

// Big returns a copy of the scaled value.
func (a Amount) Big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.v)
}

// Sign reports -1, 0 or +1.
func (a Amount) Sign() int {
	if a.v == nil {
		return 0
	}
	return a.v.Sign()
}

// Uint64 returns the scaled value as an unsigned 64-bit integer.
func (a Amount) Uint64() (uint64, error) {
	v := a.Big()
	if v.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative", common.ErrInvalidAmount)
	}
	if v.Cmp(maxUint64) > 0 {
		return 0, fmt.Errorf("%w: %s exceeds 64 bits", common.ErrOverflow, a.Format())
	}
	return v.Uint64(), nil
}

// Format prints the exact decimal value without trailing fractional zeros.
func (a Amount) Format() string {
	v := a.Big()
	sign := ""
	if v.Sign() < 0 {
		sign = "-"
		v.Abs(v)
	}
	q, r := new(big.Int).QuoRem(v, scale, new(big.Int))
	if r.Sign() == 0 {
		return sign + q.String()
	}
	frac := fmt.Sprintf("%0*s", common.AmountDecimals, r.String())
	return sign + q.String() + "." + strings.TrimRight(frac, "0")
}

func (a Amount) String() string { return a.Format() }

// ScaleUint64 parses s and returns the 64-bit scaled value.
func ScaleUint64(s string) (uint64, error) {
	a, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return a.Uint64()
}
