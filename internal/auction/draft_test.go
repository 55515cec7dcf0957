package auction

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/blindauction/internal/common"
)

func TestNewDraft(t *testing.T) {
	a, b := NewDraft(), NewDraft()
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *Draft)
		fields []string
	}{
		{name: "valid", modify: func(d *Draft) {}},
		{name: "zero deposit allowed", modify: func(d *Draft) { d.Deposit = "0" }},
		{name: "title at limit", modify: func(d *Draft) { d.Title = strings.Repeat("я", MaxTitleLength) }},
		{name: "start exactly now", modify: func(d *Draft) { d.Start = testNow }},
		{name: "missing image", modify: func(d *Draft) { d.ImageURL = "  " }, fields: []string{"imageUrl"}},
		{name: "missing title", modify: func(d *Draft) { d.Title = "" }, fields: []string{"title"}},
		{name: "title too long", modify: func(d *Draft) { d.Title = strings.Repeat("a", MaxTitleLength+1) }, fields: []string{"title"}},
		{name: "missing category", modify: func(d *Draft) { d.Category = "" }, fields: []string{"category"}},
		{name: "zero reserve", modify: func(d *Draft) { d.ReservePrice = "0.0" }, fields: []string{"reservePrice"}},
		{name: "negative reserve", modify: func(d *Draft) { d.ReservePrice = "-1" }, fields: []string{"reservePrice"}},
		{name: "garbage reserve", modify: func(d *Draft) { d.ReservePrice = "1,5" }, fields: []string{"reservePrice"}},
		{name: "reserve beyond 64 bits", modify: func(d *Draft) { d.ReservePrice = "18.446744073709551616" }, fields: []string{"reservePrice"}},
		{name: "negative deposit", modify: func(d *Draft) { d.Deposit = "-0.1" }, fields: []string{"deposit"}},
		{name: "missing deposit", modify: func(d *Draft) { d.Deposit = "" }, fields: []string{"deposit"}},
		{name: "missing times", modify: func(d *Draft) { d.Start, d.End = time.Time{}, time.Time{} }, fields: []string{"startTime", "endTime"}},
		{name: "end before start", modify: func(d *Draft) { d.End = d.Start.Add(-time.Minute) }, fields: []string{"endTime"}},
		{name: "end equals start", modify: func(d *Draft) { d.End = d.Start }, fields: []string{"endTime"}},
		{name: "start in the past", modify: func(d *Draft) { d.Start = testNow.Add(-time.Second) }, fields: []string{"startTime"}},
		{
			name: "several fields",
			modify: func(d *Draft) {
				d.Title = ""
				d.Category = ""
				d.ReservePrice = "abc"
			},
			fields: []string{"title", "category", "reservePrice"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.modify(d)
			err := d.Validate(testNow)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
			var verr *common.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestDraftScaled(t *testing.T) {
	d := validDraft()
	reserve, deposit, err := d.scaled()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000_000_000), reserve)
	assert.Equal(t, uint64(100_000_000_000_000_000), deposit)
}

func TestValidateBid(t *testing.T) {
	assert.NoError(t, ValidateBid("0.25"))
	assert.NoError(t, ValidateBid("18"))

	for in, want := range map[string]string{
		" ":    "amount is required",
		"1e3":  "amount is not a valid decimal number",
		"-0.5": "amount must not be negative",
		"0.0":  "bid must be greater than zero",
		"20":   "amount is too large",
	} {
		err := ValidateBid(in)
		var verr *common.ValidationError
		require.True(t, errors.As(err, &verr), in)
		assert.Equal(t, want, verr.Fields["amount"], in)
	}
}
