package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// VoteStore implements domain.VoteStore using PostgreSQL. One row per
// (prediction, wallet) pair; re-voting replaces the previous row.
type VoteStore struct {
	pool *pgxpool.Pool
}

// NewVoteStore creates a new VoteStore backed by the given connection pool.
func NewVoteStore(pool *pgxpool.Pool) *VoteStore {
	return &VoteStore{pool: pool}
}

// Save records a vote, replacing any earlier vote by the same wallet on the
// same prediction.
func (s *VoteStore) Save(ctx context.Context, rec domain.VoteRecord) error {
	if !rec.Choice.Valid() {
		return fmt.Errorf("postgres: save vote: %w: %q", domain.ErrInvalidVote, rec.Choice)
	}

	const query = `
		INSERT INTO votes (prediction_id, wallet_address, choice, amount, voted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (prediction_id, wallet_address) DO UPDATE SET
			choice   = EXCLUDED.choice,
			amount   = EXCLUDED.amount,
			voted_at = EXCLUDED.voted_at`

	_, err := s.pool.Exec(ctx, query,
		rec.PredictionID, rec.WalletAddress, string(rec.Choice), rec.Amount, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: save vote %d/%s: %w", rec.PredictionID, rec.WalletAddress, err)
	}
	return nil
}

// All returns every stored vote.
func (s *VoteStore) All(ctx context.Context) ([]domain.VoteRecord, error) {
	const query = `
		SELECT prediction_id, wallet_address, choice, amount, voted_at
		FROM votes
		ORDER BY voted_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list votes: %w", err)
	}
	defer rows.Close()

	var votes []domain.VoteRecord
	for rows.Next() {
		var rec domain.VoteRecord
		var choice string
		if err := rows.Scan(&rec.PredictionID, &rec.WalletAddress, &choice, &rec.Amount, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: scan vote: %w", err)
		}
		rec.Choice = domain.VoteChoice(choice)
		votes = append(votes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list votes: %w", err)
	}
	return votes, nil
}

// Get returns the vote a wallet cast on a prediction.
// It returns domain.ErrNotFound when no such vote exists.
func (s *VoteStore) Get(ctx context.Context, predictionID int64, wallet string) (domain.VoteRecord, error) {
	const query = `
		SELECT prediction_id, wallet_address, choice, amount, voted_at
		FROM votes
		WHERE prediction_id = $1 AND wallet_address = $2`

	var rec domain.VoteRecord
	var choice string
	err := s.pool.QueryRow(ctx, query, predictionID, wallet).
		Scan(&rec.PredictionID, &rec.WalletAddress, &choice, &rec.Amount, &rec.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VoteRecord{}, domain.ErrNotFound
		}
		return domain.VoteRecord{}, fmt.Errorf("postgres: get vote %d/%s: %w", predictionID, wallet, err)
	}
	rec.Choice = domain.VoteChoice(choice)
	return rec, nil
}

// Counts tallies yes and no votes for a prediction.
func (s *VoteStore) Counts(ctx context.Context, predictionID int64) (domain.VoteCounts, error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE choice = 'yes'),
			COUNT(*) FILTER (WHERE choice = 'no')
		FROM votes
		WHERE prediction_id = $1`

	var counts domain.VoteCounts
	if err := s.pool.QueryRow(ctx, query, predictionID).Scan(&counts.Yes, &counts.No); err != nil {
		return domain.VoteCounts{}, fmt.Errorf("postgres: count votes %d: %w", predictionID, err)
	}
	return counts, nil
}

// Clear removes every vote.
func (s *VoteStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM votes"); err != nil {
		return fmt.Errorf("postgres: clear votes: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.VoteStore = (*VoteStore)(nil)
