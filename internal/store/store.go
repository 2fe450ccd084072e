package store

import (
	"context"
	"sync"

	"tenantpay/internal/models"
)

// Fixed storage keys. One active payment session at a time, one
// shared history list.
const (
	PendingKey = "payment:pending"
	HistoryKey = "payment:history"
)

// DefaultHistoryLimit caps the retained payment history, newest first
const DefaultHistoryLimit = 10

// PendingStore persists the single in-flight payment record
type PendingStore interface {
	// SavePending stores (or overwrites) the pending record
	SavePending(ctx context.Context, p *models.PendingPayment) error
	// GetPending returns the pending record, or nil when none exists
	GetPending(ctx context.Context) (*models.PendingPayment, error)
	// ClearPending removes the pending record if it belongs to the
	// given merchant order id. Clearing an absent record is not an error.
	ClearPending(ctx context.Context, merchantOrderID string) error
}

// HistoryStore persists completed payments, newest first, capped
type HistoryStore interface {
	// AppendHistory prepends an entry unless one with the same merchant
	// order id already exists. Returns true when the entry was added.
	AppendHistory(ctx context.Context, entry models.PaymentHistoryEntry) (bool, error)
	// History returns the retained entries, newest first
	History(ctx context.Context) ([]models.PaymentHistoryEntry, error)
}

type Store interface {
	PendingStore
	HistoryStore
}

// MemoryStore is an in-process Store used by tests and offline runs
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	pending *models.PendingPayment
	history []models.PaymentHistoryEntry
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryStore{limit: limit}
}

func (s *MemoryStore) SavePending(ctx context.Context, p *models.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.pending = &cp
	return nil
}

func (s *MemoryStore) GetPending(ctx context.Context) (*models.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, nil
	}
	cp := *s.pending
	return &cp, nil
}

func (s *MemoryStore) ClearPending(ctx context.Context, merchantOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil && s.pending.MerchantOrderID == merchantOrderID {
		s.pending = nil
	}
	return nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, entry models.PaymentHistoryEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.history {
		if e.MerchantOrderID == entry.MerchantOrderID {
			return false, nil
		}
	}

	s.history = append([]models.PaymentHistoryEntry{entry}, s.history...)
	if len(s.history) > s.limit {
		s.history = s.history[:s.limit]
	}
	return true, nil
}

func (s *MemoryStore) History(ctx context.Context) ([]models.PaymentHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PaymentHistoryEntry, len(s.history))
	copy(out, s.history)
	return out, nil
}
