package domain

import "context"

// VoteStore persists the user vote ledger. Implementations must enforce the
// one-record-per-(prediction, wallet) invariant with last-write-wins
// replacement. A missing or corrupt backing store is treated as empty, never
// as an error.
type VoteStore interface {
	// Save inserts the record, replacing any existing record with the same
	// (PredictionID, WalletAddress) pair.
	Save(ctx context.Context, rec VoteRecord) error
	// All returns every record. Order is unspecified; callers sort.
	All(ctx context.Context) ([]VoteRecord, error)
	// Get returns the single record for the pair, or ErrNotFound.
	Get(ctx context.Context, predictionID int64, wallet string) (VoteRecord, error)
	// Counts tallies yes/no records for one market.
	Counts(ctx context.Context, predictionID int64) (VoteCounts, error)
	// Clear removes every record.
	Clear(ctx context.Context) error
}
