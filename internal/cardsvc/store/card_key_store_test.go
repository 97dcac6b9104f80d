package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avvvet/cardkey-services/internal/cardsvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardColumns = []string{"id", "key_code", "is_used", "first_used_at", "created_at"}

func newMockStore(t *testing.T) (*CardKeyStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCardKeyStore(db), mock
}

func TestInsertBatch(t *testing.T) {
	s, mock := newMockStore(t)
	codes := []string{"AAAAA-AAAAA-AAAAA-AAAAA-AAAAA", "BBBBB-BBBBB-BBBBB-BBBBB-BBBBB", "CCCCC-CCCCC-CCCCC-CCCCC-CCCCC"}

	mock.ExpectExec(`INSERT INTO card_keys \(key_code\) VALUES \(\$1\), \(\$2\), \(\$3\) ON CONFLICT \(key_code\) DO NOTHING`).
		WithArgs(codes[0], codes[1], codes[2]).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := s.InsertBatch(context.Background(), codes)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "a skipped conflict must show up in the count")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	n, err := s.InsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO card_keys`).WillReturnError(errors.New("too many connections"))

	n, err := s.InsertBatch(context.Background(), []string{"AAAAA-AAAAA-AAAAA-AAAAA-AAAAA"})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "too many connections")
}

func TestListUnused(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(cardColumns).
		AddRow(1, "AAAAA-AAAAA-AAAAA-AAAAA-AAAAA", 0, nil, created).
		AddRow(2, "BBBBB-BBBBB-BBBBB-BBBBB-BBBBB", 0, nil, created)
	mock.ExpectQuery(`SELECT (.+) FROM card_keys WHERE is_used = 0 ORDER BY id LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(rows)

	keys, err := s.ListUnused(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, int64(1), keys[0].ID)
	assert.Equal(t, "AAAAA-AAAAA-AAAAA-AAAAA-AAAAA", keys[0].Code)
	assert.False(t, keys[0].Used)
	assert.Nil(t, keys[0].FirstUsedAt)
	assert.Equal(t, created, keys[1].CreatedAt)
}

func TestListUnusedEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT (.+) FROM card_keys WHERE is_used = 0`).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(cardColumns))

	keys, err := s.ListUnused(context.Background(), 100)
	require.NoError(t, err)
	assert.NotNil(t, keys)
	assert.Empty(t, keys)
}

func TestRedeemSuccess(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	code := "AAAAA-AAAAA-AAAAA-AAAAA-AAAAA"

	mock.ExpectQuery(`UPDATE card_keys SET is_used = 1, first_used_at = \$2 WHERE key_code = \$1 AND is_used = 0 RETURNING first_used_at`).
		WithArgs(code, at).
		WillReturnRows(sqlmock.NewRows([]string{"first_used_at"}).AddRow(at))

	res, err := s.Redeem(context.Background(), code, at)
	require.NoError(t, err)
	assert.Equal(t, models.Redeemed, res.Status)
	require.NotNil(t, res.FirstUsedAt)
	assert.Equal(t, at, *res.FirstUsedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemAlreadyUsed(t *testing.T) {
	s, mock := newMockStore(t)
	first := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	at := first.Add(24 * time.Hour)
	code := "AAAAA-AAAAA-AAAAA-AAAAA-AAAAA"

	mock.ExpectQuery(`UPDATE card_keys`).
		WithArgs(code, at).
		WillReturnRows(sqlmock.NewRows([]string{"first_used_at"}))
	mock.ExpectQuery(`SELECT (.+) FROM card_keys WHERE key_code = \$1`).
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows(cardColumns).AddRow(7, code, 1, first, first))

	res, err := s.Redeem(context.Background(), code, at)
	require.NoError(t, err)
	assert.Equal(t, models.AlreadyRedeemed, res.Status)
	require.NotNil(t, res.FirstUsedAt)
	assert.Equal(t, first, *res.FirstUsedAt, "first use time must not move")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Now()
	code := "ZZZZZ-ZZZZZ-ZZZZZ-ZZZZZ-ZZZZZ"

	mock.ExpectQuery(`UPDATE card_keys`).
		WithArgs(code, at).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT (.+) FROM card_keys WHERE key_code = \$1`).
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows(cardColumns))

	res, err := s.Redeem(context.Background(), code, at)
	require.NoError(t, err)
	assert.Equal(t, models.CodeNotFound, res.Status)
	assert.Nil(t, res.FirstUsedAt)
}

func TestRedeemStoreError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`UPDATE card_keys`).WillReturnError(errors.New("connection reset"))

	_, err := s.Redeem(context.Background(), "AAAAA-AAAAA-AAAAA-AAAAA-AAAAA", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetByCode(t *testing.T) {
	s, mock := newMockStore(t)
	used := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	code := "AAAAA-AAAAA-AAAAA-AAAAA-AAAAA"

	mock.ExpectQuery(`SELECT (.+) FROM card_keys WHERE key_code = \$1`).
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows(cardColumns).AddRow(3, code, 1, used, used))

	k, err := s.GetByCode(context.Background(), code)
	require.NoError(t, err)
	require.NotNil(t, k)
	assert.True(t, k.Used)
	assert.Equal(t, used, *k.FirstUsedAt)
}

func TestStats(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\),\s+COALESCE\(SUM\(is_used\), 0\)\s+FROM card_keys`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "used"}).AddRow(10, 3))

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Total: 10, Used: 3, Unused: 7}, st)
}
