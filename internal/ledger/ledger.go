// Package ledger keeps the device-local record of user votes. The ledger
// itself is storage-agnostic: it reads and writes the whole collection
// through a Storage implementation, mirroring how the persisted form is one
// JSON-serialized collection under a single well-known key.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// Storage persists the full vote collection. Implementations must treat a
// missing or corrupt backing record as an empty collection, never as an
// error; only genuine I/O failures are reported.
type Storage interface {
	ReadAll(ctx context.Context) ([]domain.VoteRecord, error)
	WriteAll(ctx context.Context, records []domain.VoteRecord) error
}

// Ledger implements domain.VoteStore over a Storage. Each operation works
// on the full collection; a mutex serializes writers since the expected
// scope is a single device/session, not a shared backend.
type Ledger struct {
	storage Storage
	mu      sync.Mutex
}

// New creates a Ledger over the given storage backend.
func New(storage Storage) *Ledger {
	return &Ledger{storage: storage}
}

// Save appends the record, replacing any existing record with the same
// (PredictionID, WalletAddress) pair. Last write wins.
func (l *Ledger) Save(ctx context.Context, rec domain.VoteRecord) error {
	if !rec.Choice.Valid() {
		return fmt.Errorf("ledger: %w: choice %q", domain.ErrInvalidVote, rec.Choice)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.storage.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("ledger: read: %w", err)
	}

	kept := records[:0]
	for _, r := range records {
		if r.PredictionID == rec.PredictionID && r.WalletAddress == rec.WalletAddress {
			continue
		}
		kept = append(kept, r)
	}
	kept = append(kept, rec)

	if err := l.storage.WriteAll(ctx, kept); err != nil {
		return fmt.Errorf("ledger: write: %w", err)
	}
	return nil
}

// All returns every record. Order is unspecified; callers sort if needed.
func (l *Ledger) All(ctx context.Context) ([]domain.VoteRecord, error) {
	records, err := l.storage.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: read: %w", err)
	}
	return records, nil
}

// Get returns the single record for the pair, or domain.ErrNotFound.
func (l *Ledger) Get(ctx context.Context, predictionID int64, wallet string) (domain.VoteRecord, error) {
	records, err := l.storage.ReadAll(ctx)
	if err != nil {
		return domain.VoteRecord{}, fmt.Errorf("ledger: read: %w", err)
	}
	for _, r := range records {
		if r.PredictionID == predictionID && r.WalletAddress == wallet {
			return r, nil
		}
	}
	return domain.VoteRecord{}, domain.ErrNotFound
}

// Counts tallies yes/no records for one market.
func (l *Ledger) Counts(ctx context.Context, predictionID int64) (domain.VoteCounts, error) {
	records, err := l.storage.ReadAll(ctx)
	if err != nil {
		return domain.VoteCounts{}, fmt.Errorf("ledger: read: %w", err)
	}

	var counts domain.VoteCounts
	for _, r := range records {
		if r.PredictionID != predictionID {
			continue
		}
		switch r.Choice {
		case domain.VoteYes:
			counts.Yes++
		case domain.VoteNo:
			counts.No++
		}
	}
	return counts, nil
}

// Clear removes every record.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.storage.WriteAll(ctx, nil); err != nil {
		return fmt.Errorf("ledger: clear: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.VoteStore = (*Ledger)(nil)
