package service

import (
	"context"
	"time"

	"github.com/avvvet/cardkey-services/internal/cardsvc/apperr"
	"github.com/avvvet/cardkey-services/internal/cardsvc/keygen"
	"github.com/avvvet/cardkey-services/internal/cardsvc/metrics"
	"github.com/avvvet/cardkey-services/internal/cardsvc/models"
)

type CardKeyService struct {
	store    CardKeyStore
	events   Events
	pageSize int
	now      func() time.Time
}

func NewCardKeyService(store CardKeyStore, events Events, pageSize int) *CardKeyService {
	if events == nil {
		events = nopEvents{}
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	return &CardKeyService{store: store, events: events, pageSize: pageSize, now: time.Now}
}

// ListUnused returns the first page of unused keys in insertion order. An
// empty pool is an empty slice, never nil.
func (s *CardKeyService) ListUnused(ctx context.Context) ([]models.CardKey, error) {
	keys, err := s.store.ListUnused(ctx, s.pageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list unused card keys", err)
	}
	if keys == nil {
		keys = []models.CardKey{}
	}
	return keys, nil
}

// Redeem marks code used if it is unused. Already used and unknown codes are
// outcomes in the result, not errors.
func (s *CardKeyService) Redeem(ctx context.Context, code string) (models.RedeemResult, error) {
	code = keygen.Normalize(code)
	if !keygen.Valid(code) {
		metrics.Redemptions.WithLabelValues("invalid").Inc()
		return models.RedeemResult{}, apperr.New(apperr.BadRequest, "invalid card key format")
	}

	at := s.now().UTC().Truncate(time.Microsecond)
	res, err := s.store.Redeem(ctx, code, at)
	if err != nil {
		metrics.Redemptions.WithLabelValues("error").Inc()
		return models.RedeemResult{}, apperr.Wrap(apperr.Internal, "redeem card key", err)
	}

	metrics.Redemptions.WithLabelValues(string(res.Status)).Inc()
	if res.Status == models.Redeemed {
		s.events.CardKeyRedeemed(ctx, code, at)
	}
	return res, nil
}

func (s *CardKeyService) Lookup(ctx context.Context, code string) (*models.CardKey, error) {
	code = keygen.Normalize(code)
	if !keygen.Valid(code) {
		return nil, apperr.New(apperr.BadRequest, "invalid card key format")
	}
	k, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "look up card key", err)
	}
	if k == nil {
		return nil, apperr.New(apperr.NotFound, "card key not found")
	}
	return k, nil
}

func (s *CardKeyService) Stats(ctx context.Context) (models.Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return models.Stats{}, apperr.Wrap(apperr.Internal, "count card keys", err)
	}
	return st, nil
}
