package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// snapshotPrefix is the key prefix for archived feed snapshots.
const snapshotPrefix = "snapshots/feed/"

// FeedArchiver implements domain.SnapshotArchiver by serializing a
// discovered feed to JSONL and uploading it to the configured bucket.
// Snapshots are never mutated in place; pruning removes whole objects by
// their LastModified time.
type FeedArchiver struct {
	writer  domain.BlobWriter
	reader  domain.BlobReader
	deleter domain.BlobDeleter
}

// NewFeedArchiver creates a new FeedArchiver.
func NewFeedArchiver(writer domain.BlobWriter, reader domain.BlobReader, deleter domain.BlobDeleter) *FeedArchiver {
	return &FeedArchiver{
		writer:  writer,
		reader:  reader,
		deleter: deleter,
	}
}

// ArchiveFeed uploads the feed as a JSONL snapshot and returns its object
// key. Keys are partitioned by day and suffixed with a UUID so concurrent
// refreshers never collide:
//
//	snapshots/feed/2025-01-30/153004-2f8a....jsonl
func (a *FeedArchiver) ArchiveFeed(ctx context.Context, markets []domain.Market, at time.Time) (string, error) {
	buf, err := marshalJSONL(markets)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive feed marshal: %w", err)
	}

	path := fmt.Sprintf("%s%s/%s-%s.jsonl",
		snapshotPrefix,
		at.UTC().Format("2006-01-02"),
		at.UTC().Format("150405"),
		uuid.NewString(),
	)

	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", fmt.Errorf("s3blob: archive feed upload: %w", err)
	}
	return path, nil
}

// Prune deletes snapshots last modified strictly before the cutoff and
// returns the number deleted. A listing error aborts the run; an individual
// delete failure does not, so one bad object cannot wedge retention.
func (a *FeedArchiver) Prune(ctx context.Context, before time.Time) (int64, error) {
	infos, err := a.reader.List(ctx, snapshotPrefix)
	if err != nil {
		return 0, fmt.Errorf("s3blob: prune list: %w", err)
	}

	var deleted int64
	var lastErr error
	for _, info := range infos {
		if !info.LastModified.Before(before) {
			continue
		}
		if err := a.deleter.Delete(ctx, info.Path); err != nil {
			lastErr = err
			continue
		}
		deleted++
	}

	if lastErr != nil {
		return deleted, fmt.Errorf("s3blob: prune: %w", lastErr)
	}
	return deleted, nil
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.SnapshotArchiver = (*FeedArchiver)(nil)
