package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// FileStorage persists the vote collection as one JSON document at a
// well-known path. A missing or unparsable file is an empty collection.
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage at the given path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// ReadAll loads the collection from disk.
func (s *FileStorage) ReadAll(_ context.Context) ([]domain.VoteRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("filestore: read %s: %w", s.path, err)
	}

	var records []domain.VoteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// Corrupt store: treat as empty rather than fail.
		return nil, nil
	}
	return records, nil
}

// WriteAll replaces the collection on disk atomically.
func (s *FileStorage) WriteAll(_ context.Context, records []domain.VoteRecord) error {
	if records == nil {
		records = []domain.VoteRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("filestore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filestore: mkdir %s: %w", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("filestore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("filestore: rename %s: %w", tmp, err)
	}
	return nil
}
