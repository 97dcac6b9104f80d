package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/avvvet/cardkey-services/internal/cardsvc/models"
)

type CardKeyStore struct {
	db *sql.DB
}

func NewCardKeyStore(db *sql.DB) *CardKeyStore {
	return &CardKeyStore{db: db}
}

// InsertBatch inserts codes in one statement and returns how many rows were
// actually written. Codes that already exist are skipped by the unique
// constraint, so a short count means a collision.
func (s *CardKeyStore) InsertBatch(ctx context.Context, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO card_keys (key_code) VALUES `)
	args := make([]any, len(codes))
	for i, c := range codes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("($")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(")")
		args[i] = c
	}
	b.WriteString(` ON CONFLICT (key_code) DO NOTHING`)

	res, err := s.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("insert card key batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert card key batch: rows affected: %w", err)
	}
	return int(n), nil
}

func (s *CardKeyStore) ListUnused(ctx context.Context, limit int) ([]models.CardKey, error) {
	query := `
		SELECT id, key_code, is_used, first_used_at, created_at
		FROM card_keys
		WHERE is_used = 0
		ORDER BY id
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unused card keys: %w", err)
	}
	defer rows.Close()

	keys := make([]models.CardKey, 0, limit)
	for rows.Next() {
		k, err := scanCardKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list unused card keys: %w", err)
	}
	return keys, nil
}

// GetByCode returns nil, nil when the code does not exist.
func (s *CardKeyStore) GetByCode(ctx context.Context, code string) (*models.CardKey, error) {
	query := `
		SELECT id, key_code, is_used, first_used_at, created_at
		FROM card_keys
		WHERE key_code = $1
	`

	k, err := scanCardKey(s.db.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card key: %w", err)
	}
	return &k, nil
}

// Redeem flips is_used with a conditional update, so of several concurrent
// callers only one sees a returned row. Everyone else falls through to the
// read and gets AlreadyRedeemed with the winner's timestamp.
func (s *CardKeyStore) Redeem(ctx context.Context, code string, at time.Time) (models.RedeemResult, error) {
	query := `
		UPDATE card_keys
		SET is_used = 1, first_used_at = $2
		WHERE key_code = $1 AND is_used = 0
		RETURNING first_used_at
	`

	var usedAt time.Time
	err := s.db.QueryRowContext(ctx, query, code, at).Scan(&usedAt)
	if err == nil {
		return models.RedeemResult{Status: models.Redeemed, Code: code, FirstUsedAt: &usedAt}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.RedeemResult{}, fmt.Errorf("failed to redeem card key: %w", err)
	}

	k, err := s.GetByCode(ctx, code)
	if err != nil {
		return models.RedeemResult{}, err
	}
	if k == nil {
		return models.RedeemResult{Status: models.CodeNotFound, Code: code}, nil
	}
	return models.RedeemResult{Status: models.AlreadyRedeemed, Code: code, FirstUsedAt: k.FirstUsedAt}, nil
}

func (s *CardKeyStore) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(is_used), 0)
		FROM card_keys
	`).Scan(&st.Total, &st.Used)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to count card keys: %w", err)
	}
	st.Unused = st.Total - st.Used
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCardKey(row rowScanner) (models.CardKey, error) {
	var (
		k      models.CardKey
		used   int16
		usedAt sql.NullTime
	)
	if err := row.Scan(&k.ID, &k.Code, &used, &usedAt, &k.CreatedAt); err != nil {
		return models.CardKey{}, err
	}
	k.Used = used == 1
	if usedAt.Valid {
		t := usedAt.Time
		k.FirstUsedAt = &t
	}
	return k, nil
}
