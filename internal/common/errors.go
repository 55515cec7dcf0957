// Package common defines the error taxonomy and small helpers shared across
// the blindauction client. Callers should use errors.Is / errors.As to match
// these values; lower layers wrap them together with the original cause.
package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Local input errors. Never reach the network.
	ErrValidation       = errors.New("validation error")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrOverflow         = errors.New("integer overflow")
	ErrInvalidFeeParams = errors.New("invalid fee parameters")

	// Encryption engine errors.
	ErrEngineNotReady        = errors.New("encryption engine not ready")
	ErrEngineFailed          = errors.New("encryption engine unavailable")
	ErrProofGenerationFailed = errors.New("proof generation failed")

	// Wallet / network errors.
	ErrUserRejected        = errors.New("user rejected signature")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrTransport           = errors.New("transport error")

	// Access and flow-control errors.
	ErrUnauthorized      = errors.New("unauthorized")
	ErrOperationInFlight = errors.New("operation already in flight")
	ErrTrackerInUse      = errors.New("tracker already started")

	// Repository errors.
	ErrNotFound = errors.New("not found")
)

// kinds is ordered most specific first; Kind reports the first match.
var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidAmount, "invalid_amount"},
	{ErrOverflow, "overflow"},
	{ErrInvalidFeeParams, "invalid_fee_params"},
	{ErrValidation, "validation"},
	{ErrEngineNotReady, "engine_not_ready"},
	{ErrEngineFailed, "engine_failed"},
	{ErrProofGenerationFailed, "proof_generation_failed"},
	{ErrUserRejected, "user_rejected"},
	{ErrTransactionReverted, "transaction_reverted"},
	{ErrTransport, "transport"},
	{ErrUnauthorized, "unauthorized"},
	{ErrOperationInFlight, "operation_in_flight"},
	{ErrTrackerInUse, "tracker_in_use"},
	{ErrNotFound, "not_found"},
}

// Kind returns the taxonomy name of err, "" for nil and "unknown" when err
// does not wrap any of the sentinels above.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	Fields map[string]string
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e when at least one field failed, nil otherwise.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RevertError is an on-chain execution failure. Reason is the decoded revert
// reason when the contract provided one; Data keeps the raw revert payload.
type RevertError struct {
	Reason string
	Data   []byte
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", ErrTransactionReverted, e.Reason)
	}
	if len(e.Data) > 0 {
		return fmt.Sprintf("%s: 0x%s", ErrTransactionReverted, hex.EncodeToString(e.Data))
	}
	return ErrTransactionReverted.Error()
}

func (e *RevertError) Is(target error) bool { return target == ErrTransactionReverted }
