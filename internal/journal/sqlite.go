package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/dbx"
)

// SQLiteRepository stores entries in a local SQLite file. Timestamps are kept
// as RFC 3339 text so ordering by created_at is lexical.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

func (r *SQLiteRepository) Save(ctx context.Context, e *Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO submissions (id, operation_key, kind, tx_hash, status, error_kind, error_detail, auction_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tx_hash = excluded.tx_hash,
			status = excluded.status,
			error_kind = excluded.error_kind,
			error_detail = excluded.error_detail,
			auction_id = excluded.auction_id,
			updated_at = excluded.updated_at
	`, e.ID.String(), e.OperationKey, e.Kind, e.TxHash, e.Status, e.ErrorKind, e.ErrorDetail, e.AuctionID,
		e.CreatedAt.UTC().Format(sqliteTime), e.UpdatedAt.UTC().Format(sqliteTime))
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", e.ID, err)
	}
	return nil
}

const sqliteColumns = `id, operation_key, kind, tx_hash, status, error_kind, error_detail, auction_id, created_at, updated_at`

func (r *SQLiteRepository) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM submissions WHERE id = ?`, id.String())
	e, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	return r.list(ctx, `SELECT `+sqliteColumns+` FROM submissions ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r *SQLiteRepository) ListOpen(ctx context.Context) ([]*Entry, error) {
	return r.list(ctx, `SELECT `+sqliteColumns+` FROM submissions
		WHERE tx_hash <> '' AND status IN (?, ?) ORDER BY created_at`, StatusPending, StatusConfirming)
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanSQLite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submission rows: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLite(s scanner) (*Entry, error) {
	var (
		e                Entry
		id               string
		created, updated string
	)
	if err := s.Scan(&id, &e.OperationKey, &e.Kind, &e.TxHash, &e.Status, &e.ErrorKind, &e.ErrorDetail, &e.AuctionID, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = time.Parse(sqliteTime, updated); err != nil {
		return nil, err
	}
	return &e, nil
}
