package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/blindauction/internal/common"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	s, err := Open(context.Background(), "sqlite://"+path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func entry(key, status, tx string, created time.Time) *Entry {
	return &Entry{
		ID:           uuid.New(),
		OperationKey: key,
		Kind:         "create_auction",
		TxHash:       tx,
		Status:       status,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestSQLite_SaveGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Microsecond)

	e := entry("draft-1", StatusPending, "0xabc", now)
	require.NoError(t, s.Save(ctx, e))

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "draft-1", got.OperationKey)
	assert.Equal(t, "0xabc", got.TxHash)
	assert.True(t, now.Equal(got.CreatedAt))

	e.Status = StatusFailed
	e.ErrorKind = "transaction_reverted"
	e.ErrorDetail = "TooLateError(1)"
	e.UpdatedAt = now.Add(time.Second)
	require.NoError(t, s.Save(ctx, e))

	got, err = s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "TooLateError(1)", got.ErrorDetail)
	assert.True(t, now.Add(time.Second).Equal(got.UpdatedAt))

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLite_Lists(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []*Entry{
		entry("a", StatusConfirmed, "0x1", base),
		entry("b", StatusPending, "0x2", base.Add(time.Minute)),
		entry("c", StatusConfirming, "0x3", base.Add(2*time.Minute)),
		entry("d", StatusSubmitting, "", base.Add(3*time.Minute)),
		entry("e", StatusFailed, "", base.Add(4*time.Minute)),
	}
	for _, e := range entries {
		require.NoError(t, s.Save(ctx, e))
	}

	recent, err := s.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "e", recent[0].OperationKey)
	assert.Equal(t, "c", recent[2].OperationKey)

	open, err := s.ListOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "b", open[0].OperationKey)
	assert.Equal(t, "c", open[1].OperationKey)
	for _, e := range open {
		assert.True(t, e.Open())
	}
	assert.False(t, entries[3].Open())
}

func TestStore_Update(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	e := entry("bid:1", StatusPending, "0x9", time.Now())
	require.NoError(t, s.Save(ctx, e))

	require.NoError(t, s.Update(ctx, e.ID, func(e *Entry) error {
		e.Status = StatusConfirmed
		return nil
	}))
	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	boom := errors.New("boom")
	err = s.Update(ctx, e.ID, func(e *Entry) error {
		e.Status = StatusFailed
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, err = s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status, "rolled back")

	assert.ErrorIs(t, s.Update(ctx, uuid.New(), func(*Entry) error { return nil }), common.ErrNotFound)

	stamp := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Update(ctx, e.ID, func(e *Entry) error {
		e.UpdatedAt = stamp
		return nil
	}))
	got, err = s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, stamp.Equal(got.UpdatedAt), "caller's UpdatedAt wins")
}
