package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"argus/pkg/errors"
)

// FileStore writes one JSON file per run under a directory. Writes go
// through a temp file and rename so a crash never leaves a half-written
// snapshot behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "snapshot dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create snapshot dir")
	}
	return &FileStore{dir: dir}, nil
}

// Save persists the record as <run_id>.json.
func (s *FileStore) Save(_ context.Context, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	final := s.path(rec.RunID)
	tmp, err := os.CreateTemp(s.dir, "snapshot-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create snapshot temp file")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close snapshot temp file")
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "publish snapshot")
	}
	return nil
}

// Load reads a record by run ID.
func (s *FileStore) Load(_ context.Context, runID string) (*Record, error) {
	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "snapshot %s", runID)
		}
		return nil, errors.Wrap(err, "read snapshot")
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return &rec, nil
}

func (s *FileStore) path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}
