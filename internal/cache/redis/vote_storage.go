package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/omenlabs/omenfeed/internal/domain"
	"github.com/omenlabs/omenfeed/internal/ledger"
)

const voteStorageKey = "votes:ledger"

// VoteStorage is a ledger.Storage backend holding the whole vote ledger as
// a single JSON value, so a ledger can be shared across processes without a
// relational store. A value that fails to decode reads as empty.
type VoteStorage struct {
	rdb *redis.Client
}

// NewVoteStorage creates a VoteStorage backed by the given Client.
func NewVoteStorage(c *Client) *VoteStorage {
	return &VoteStorage{rdb: c.Underlying()}
}

// ReadAll returns every stored vote record. A missing or undecodable value
// yields an empty ledger.
func (vs *VoteStorage) ReadAll(ctx context.Context) ([]domain.VoteRecord, error) {
	data, err := vs.rdb.Get(ctx, voteStorageKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: read votes: %w", err)
	}

	var votes []domain.VoteRecord
	if err := json.Unmarshal(data, &votes); err != nil {
		return nil, nil
	}
	return votes, nil
}

// WriteAll replaces the stored ledger with votes.
func (vs *VoteStorage) WriteAll(ctx context.Context, votes []domain.VoteRecord) error {
	data, err := json.Marshal(votes)
	if err != nil {
		return fmt.Errorf("redis: marshal votes: %w", err)
	}
	if err := vs.rdb.Set(ctx, voteStorageKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: write votes: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ ledger.Storage = (*VoteStorage)(nil)
