// Package txtrack follows one transaction from the signature request to a
// terminal state: confirmed at the configured depth, reverted, rejected by
// the user, or lost to transport failures.
package txtrack

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type Status int

const (
	Idle Status = iota
	Submitting
	Pending
	Confirming
	Confirmed
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Pending:
		return "pending"
	case Confirming:
		return "confirming"
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == Confirmed || s == Failed
}

// State is a snapshot of a tracked transaction. TxHash is set from Pending
// on, Receipt once the transaction is included, Err only when Failed.
type State struct {
	Status  Status
	TxHash  common.Hash
	Receipt *types.Receipt
	Err     error
}
