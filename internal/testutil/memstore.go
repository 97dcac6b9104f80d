package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/cardkey-services/internal/cardsvc/models"
)

var ErrInjected = errors.New("injected store failure")

// MemStore is an in-memory card key table with the same uniqueness and
// single-use rules as the Postgres store.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	byCode map[string]*models.CardKey

	// FailInsertAfter makes InsertBatch fail once this many calls succeeded.
	// Zero disables it.
	FailInsertAfter int
	// FailAll makes every read and write fail.
	FailAll bool

	InsertCalls int
}

func NewMemStore() *MemStore {
	return &MemStore{byCode: make(map[string]*models.CardKey)}
}

// Seed inserts codes directly, optionally already used.
func (m *MemStore) Seed(used bool, codes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range codes {
		m.nextID++
		k := &models.CardKey{ID: m.nextID, Code: c, CreatedAt: time.Now()}
		if used {
			t := time.Now().UTC()
			k.Used = true
			k.FirstUsedAt = &t
		}
		m.byCode[c] = k
	}
}

func (m *MemStore) InsertBatch(ctx context.Context, codes []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll || (m.FailInsertAfter > 0 && m.InsertCalls >= m.FailInsertAfter) {
		return 0, ErrInjected
	}
	m.InsertCalls++

	n := 0
	for _, c := range codes {
		if _, exists := m.byCode[c]; exists {
			continue
		}
		m.nextID++
		m.byCode[c] = &models.CardKey{ID: m.nextID, Code: c, CreatedAt: time.Now()}
		n++
	}
	return n, nil
}

func (m *MemStore) ListUnused(ctx context.Context, limit int) ([]models.CardKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, ErrInjected
	}
	out := make([]models.CardKey, 0)
	for _, k := range m.byCode {
		if !k.Used {
			out = append(out, *k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) GetByCode(ctx context.Context, code string) (*models.CardKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return nil, ErrInjected
	}
	k, ok := m.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *k
	return &cp, nil
}

func (m *MemStore) Redeem(ctx context.Context, code string, at time.Time) (models.RedeemResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return models.RedeemResult{}, ErrInjected
	}
	k, ok := m.byCode[code]
	if !ok {
		return models.RedeemResult{Status: models.CodeNotFound, Code: code}, nil
	}
	if k.Used {
		t := *k.FirstUsedAt
		return models.RedeemResult{Status: models.AlreadyRedeemed, Code: code, FirstUsedAt: &t}, nil
	}
	t := at
	k.Used = true
	k.FirstUsedAt = &t
	return models.RedeemResult{Status: models.Redeemed, Code: code, FirstUsedAt: &at}, nil
}

func (m *MemStore) Stats(ctx context.Context) (models.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAll {
		return models.Stats{}, ErrInjected
	}
	var st models.Stats
	for _, k := range m.byCode {
		st.Total++
		if k.Used {
			st.Used++
		}
	}
	st.Unused = st.Total - st.Used
	return st, nil
}

// Codes returns every stored code.
func (m *MemStore) Codes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.byCode))
	for c := range m.byCode {
		out = append(out, c)
	}
	return out
}

// RecordingEvents captures service notifications.
type RecordingEvents struct {
	mu        sync.Mutex
	Generated []int
	Redeemed  []string
}

func (r *RecordingEvents) CardKeysGenerated(ctx context.Context, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Generated = append(r.Generated, count)
}

func (r *RecordingEvents) CardKeyRedeemed(ctx context.Context, code string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Redeemed = append(r.Redeemed, code)
}
