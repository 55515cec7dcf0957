package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/dbx"
)

// PostgresRepository stores entries in a shared PostgreSQL database, for
// operators running several clients against one journal.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO submissions (id, operation_key, kind, tx_hash, status, error_kind, error_detail, auction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			tx_hash = EXCLUDED.tx_hash,
			status = EXCLUDED.status,
			error_kind = EXCLUDED.error_kind,
			error_detail = EXCLUDED.error_detail,
			auction_id = EXCLUDED.auction_id,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, e.ID, e.OperationKey, e.Kind, e.TxHash, e.Status,
		e.ErrorKind, e.ErrorDetail, e.AuctionID, e.CreatedAt, e.UpdatedAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

const postgresColumns = `id, operation_key, kind, tx_hash, status, error_kind, error_detail, auction_id, created_at, updated_at`

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	query := `SELECT ` + postgresColumns + ` FROM submissions WHERE id = $1`
	e, err := scanPostgres(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Entry, error) {
	return r.list(ctx, `SELECT `+postgresColumns+` FROM submissions ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *PostgresRepository) ListOpen(ctx context.Context) ([]*Entry, error) {
	return r.list(ctx, `SELECT `+postgresColumns+` FROM submissions
		WHERE tx_hash <> '' AND status IN ($1, $2) ORDER BY created_at`, StatusPending, StatusConfirming)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanPostgres(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func scanPostgres(s scanner) (*Entry, error) {
	var e Entry
	if err := s.Scan(&e.ID, &e.OperationKey, &e.Kind, &e.TxHash, &e.Status, &e.ErrorKind, &e.ErrorDetail, &e.AuctionID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
