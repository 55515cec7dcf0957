package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), "unknown"},
		{"validation", &ValidationError{Fields: map[string]string{"title": "required"}}, "validation"},
		{"wrapped transport", fmt.Errorf("%w: %w", ErrTransport, errors.New("dial tcp")), "transport"},
		{"revert", &RevertError{Reason: "OnlyOwner()"}, "transaction_reverted"},
		{"invalid amount wins over validation", fmt.Errorf("%w: %w", ErrValidation, ErrInvalidAmount), "invalid_amount"},
		{"user rejected", fmt.Errorf("send: %w", ErrUserRejected), "user_rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	var ve ValidationError
	require.NoError(t, ve.OrNil())

	ve.Add("title", "title is required")
	ve.Add("title", "second message is ignored")
	ve.Add("end", "end must be after start")

	err := ve.OrNil()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation error: end: end must be after start; title: title is required", err.Error())

	var target *ValidationError
	require.True(t, errors.As(err, &target))
	assert.Len(t, target.Fields, 2)
}

func TestRevertError(t *testing.T) {
	err := error(&RevertError{Data: []byte{0xde, 0xad}})
	assert.True(t, errors.Is(err, ErrTransactionReverted))
	assert.Equal(t, "transaction reverted: 0xdead", err.Error())

	err = &RevertError{Reason: "TooLateError(1700000000)"}
	assert.Equal(t, "transaction reverted: TooLateError(1700000000)", err.Error())

	assert.Equal(t, "transaction reverted", (&RevertError{}).Error())
}
