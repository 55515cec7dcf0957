// Package journal records every submission the client broadcasts so that
// pending transactions can be followed again after a restart and the user
// can review what happened.
package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status values stored in the journal.
const (
	StatusSubmitting = "submitting"
	StatusPending    = "pending"
	StatusConfirming = "confirming"
	StatusConfirmed  = "confirmed"
	StatusFailed     = "failed"
)

// Entry is one submission.
type Entry struct {
	ID           uuid.UUID
	OperationKey string
	Kind         string
	TxHash       string
	Status       string
	ErrorKind    string
	ErrorDetail  string
	AuctionID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Open reports whether the entry was broadcast but has not reached a
// terminal status.
func (e Entry) Open() bool {
	return e.TxHash != "" && (e.Status == StatusPending || e.Status == StatusConfirming)
}

// Repository persists entries. Save inserts or replaces by ID; Get returns
// common.ErrNotFound for unknown IDs.
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListRecent(ctx context.Context, limit int) ([]*Entry, error)
	ListOpen(ctx context.Context) ([]*Entry, error)
}
