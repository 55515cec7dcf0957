// Package auction drives the create-auction and place-bid workflows: it
// validates what the user typed, derives the fee, encrypts the amounts under
// one proof and follows the resulting transaction to a terminal state.
package auction

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/amount"
	"github.com/dmitrijs2005/blindauction/internal/common"
)

// MaxTitleLength is the longest accepted title, in characters.
const MaxTitleLength = 100

// Draft is an auction being composed. Amounts are kept as typed.
type Draft struct {
	ID           uuid.UUID
	ImageURL     string
	ImageURLs    []string
	Title        string
	Description  string
	Category     string
	Location     string
	Start        time.Time
	End          time.Time
	ReservePrice string
	Deposit      string
}

func NewDraft() *Draft {
	return &Draft{ID: uuid.New()}
}

// Validate checks the draft against the form rules. Every failing field is
// reported in one *common.ValidationError.
func (d *Draft) Validate(now time.Time) error {
	verr := &common.ValidationError{}

	if strings.TrimSpace(d.ImageURL) == "" {
		verr.Add("imageUrl", "main image is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		verr.Add("title", "title is required")
	} else if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		verr.Add("title", "title must not exceed 100 characters")
	}
	if strings.TrimSpace(d.Category) == "" {
		verr.Add("category", "category is required")
	}

	if v, ok := checkAmount(verr, "reservePrice", d.ReservePrice); ok && v == 0 {
		verr.Add("reservePrice", "reserve price must be greater than zero")
	}
	checkAmount(verr, "deposit", d.Deposit)

	if d.Start.IsZero() {
		verr.Add("startTime", "start time is required")
	}
	if d.End.IsZero() {
		verr.Add("endTime", "end time is required")
	}
	if !d.Start.IsZero() && !d.End.IsZero() {
		if !d.End.After(d.Start) {
			verr.Add("endTime", "end time must be after start time")
		}
		if d.Start.Before(now) {
			verr.Add("startTime", "start time must not be in the past")
		}
	}

	return verr.OrNil()
}

// checkAmount parses text as a non-negative 64-bit scaled amount and records
// a field error when it is not one.
// ValidateBid checks bid text the way the form checks amounts, reporting
// problems under the "amount" field. A bid must be greater than zero.
func ValidateBid(text string) error {
	verr := &common.ValidationError{}
	if v, ok := checkAmount(verr, "amount", text); ok && v == 0 {
		verr.Add("amount", "bid must be greater than zero")
	}
	return verr.OrNil()
}

func checkAmount(verr *common.ValidationError, field, text string) (uint64, bool) {
	if strings.TrimSpace(text) == "" {
		verr.Add(field, "amount is required")
		return 0, false
	}
	a, err := amount.Parse(text)
	if err != nil {
		verr.Add(field, "amount is not a valid decimal number")
		return 0, false
	}
	if a.Sign() < 0 {
		verr.Add(field, "amount must not be negative")
		return 0, false
	}
	v, err := a.Uint64()
	if err != nil {
		verr.Add(field, "amount is too large")
		return 0, false
	}
	return v, true
}

// scaled returns the reserve price and deposit in the 18-decimal unit. Call
// only after Validate succeeded.
func (d *Draft) scaled() (reserve, deposit uint64, err error) {
	if reserve, err = amount.ScaleUint64(d.ReservePrice); err != nil {
		return 0, 0, err
	}
	if deposit, err = amount.ScaleUint64(d.Deposit); err != nil {
		return 0, 0, err
	}
	return reserve, deposit, nil
}
