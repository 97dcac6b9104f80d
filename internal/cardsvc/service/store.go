package service

import (
	"context"
	"time"

	"github.com/avvvet/cardkey-services/internal/cardsvc/models"
)

// CardKeyStore is the persistence the services need. The unique constraint on
// key_code and the conditional update in Redeem are the only concurrency
// guards; nothing here keeps state between calls.
type CardKeyStore interface {
	InsertBatch(ctx context.Context, codes []string) (int, error)
	ListUnused(ctx context.Context, limit int) ([]models.CardKey, error)
	GetByCode(ctx context.Context, code string) (*models.CardKey, error)
	Redeem(ctx context.Context, code string, at time.Time) (models.RedeemResult, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Events receives notifications after state changes are committed.
type Events interface {
	CardKeysGenerated(ctx context.Context, count int)
	CardKeyRedeemed(ctx context.Context, code string, at time.Time)
}

type nopEvents struct{}

func (nopEvents) CardKeysGenerated(context.Context, int) {}
func (nopEvents) CardKeyRedeemed(context.Context, string, time.Time) {}
