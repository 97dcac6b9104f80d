package service

import (
	"context"
	"fmt"

	"github.com/avvvet/cardkey-services/internal/cardsvc/apperr"
	"github.com/avvvet/cardkey-services/internal/cardsvc/keygen"
	"github.com/avvvet/cardkey-services/internal/cardsvc/metrics"
	log "github.com/sirupsen/logrus"
)

type GeneratorOptions struct {
	BatchSize  int
	MaxCount   int
	MaxRetries int // refill rounds per batch after collisions
}

type GenerateResult struct {
	Requested int `json:"requested"`
	Inserted  int `json:"inserted"`
	Batches   int `json:"batches"`
}

// PartialError reports a generation run that stopped early. Inserted rows
// stay committed.
type PartialError struct {
	Requested int
	Inserted  int
	Err       error
}

func (e *PartialError) Error() string {
	if e.Inserted == 0 {
		return fmt.Sprintf("no card keys inserted (requested %d): %v", e.Requested, e.Err)
	}
	return fmt.Sprintf("inserted %d of %d card keys: %v", e.Inserted, e.Requested, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

type Generator struct {
	store  CardKeyStore
	source *keygen.Source
	events Events
	opts   GeneratorOptions
}

// NewGenerator builds a Generator. A nil source draws from crypto/rand and a
// nil events sink drops notifications.
func NewGenerator(store CardKeyStore, source *keygen.Source, events Events, opts GeneratorOptions) *Generator {
	if source == nil {
		source = keygen.NewSource(nil)
	}
	if events == nil {
		events = nopEvents{}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1000
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = 100000
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Generator{store: store, source: source, events: events, opts: opts}
}

// Generate inserts exactly n new codes in independent batches, or returns a
// *PartialError carrying how many were committed before it stopped.
func (g *Generator) Generate(ctx context.Context, n int) (GenerateResult, error) {
	res := GenerateResult{Requested: n}
	if n <= 0 || n > g.opts.MaxCount {
		return res, apperr.New(apperr.BadRequest,
			fmt.Sprintf("count must be between 1 and %d", g.opts.MaxCount))
	}

	for res.Inserted < n {
		if err := ctx.Err(); err != nil {
			return g.fail(ctx, res, err)
		}

		size := min(g.opts.BatchSize, n-res.Inserted)
		got, err := g.fillBatch(ctx, size)
		res.Inserted += got
		res.Batches++
		if err != nil {
			return g.fail(ctx, res, err)
		}
	}

	metrics.GenerateRuns.WithLabelValues("ok").Inc()
	log.Infof("generated %d card keys in %d batches", res.Inserted, res.Batches)
	g.events.CardKeysGenerated(ctx, res.Inserted)
	return res, nil
}

// fillBatch commits size new codes. Codes skipped by the unique constraint are
// replaced with fresh ones until the retry budget runs out.
func (g *Generator) fillBatch(ctx context.Context, size int) (int, error) {
	committed := 0
	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		missing := size - committed
		codes, err := g.source.Batch(missing)
		if err != nil {
			return committed, apperr.Wrap(apperr.Internal, "generate codes", err)
		}

		got, err := g.store.InsertBatch(ctx, codes)
		committed += got
		metrics.KeysGenerated.Add(float64(got))
		if err != nil {
			return committed, apperr.Wrap(apperr.Internal, "insert card keys", err)
		}
		if got == missing {
			return committed, nil
		}

		metrics.GenerateCollisions.Add(float64(missing - got))
		log.Warnf("card key batch: %d of %d codes collided, retrying (attempt %d)", missing-got, missing, attempt+1)
	}
	return committed, apperr.New(apperr.Conflict,
		fmt.Sprintf("generated codes kept colliding after %d retries; retry the request", g.opts.MaxRetries))
}

func (g *Generator) fail(ctx context.Context, res GenerateResult, err error) (GenerateResult, error) {
	metrics.GenerateRuns.WithLabelValues("error").Inc()
	log.Errorf("card key generation stopped after %d of %d: %v", res.Inserted, res.Requested, err)
	if res.Inserted > 0 {
		g.events.CardKeysGenerated(ctx, res.Inserted)
	}
	return res, &PartialError{Requested: res.Requested, Inserted: res.Inserted, Err: err}
}
