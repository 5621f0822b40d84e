package ledger

import (
	"context"
	"sync"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// MemoryStorage is an in-memory Storage, used in tests and as a fallback
// when no persistent path is configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []domain.VoteRecord
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// ReadAll returns a copy of the stored collection.
func (s *MemoryStorage) ReadAll(_ context.Context) ([]domain.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VoteRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// WriteAll replaces the stored collection.
func (s *MemoryStorage) WriteAll(_ context.Context, records []domain.VoteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make([]domain.VoteRecord, len(records))
	copy(s.records, records)
	return nil
}
