// Package fee derives the auction listing fee from a reserve price and the
// contract's public fee constants.
package fee

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/dmitrijs2005/blindauction/internal/common"
)

// Params mirrors the contract's FEE_PERCENTAGE and FEE_DENOMINATOR.
type Params struct {
	Percentage  *uint256.Int
	Denominator *uint256.Int
}

// Compute is ComputeFee over p.
func (p Params) Compute(price uint64) (uint64, error) {
	return ComputeFee(price, p.Percentage, p.Denominator)
}

// ComputeFee returns floor(price * percentage / denominator).
//
// The product is formed in 256 bits; common.ErrOverflow is returned when it
// does not fit or when the quotient exceeds 64 bits. A zero or missing
// denominator (or missing percentage) yields common.ErrInvalidFeeParams.
func ComputeFee(price uint64, percentage, denominator *uint256.Int) (uint64, error) {
	if percentage == nil || denominator == nil {
		return 0, fmt.Errorf("%w: fee constants not loaded", common.ErrInvalidFeeParams)
	}
	if denominator.IsZero() {
		return 0, fmt.Errorf("%w: zero denominator", common.ErrInvalidFeeParams)
	}

	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(price), percentage)
	if overflow {
		return 0, fmt.Errorf("%w: price * percentage exceeds 256 bits", common.ErrOverflow)
	}

	q := new(uint256.Int).Div(product, denominator)
	if !q.IsUint64() {
		return 0, fmt.Errorf("%w: fee %s exceeds 64 bits", common.ErrOverflow, q.Dec())
	}
	return q.Uint64(), nil
}
