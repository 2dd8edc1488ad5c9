package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const snapshotFile = "cache.json"

// SaveDir writes the store's live entries to dir as a single JSON snapshot,
// creating dir if needed. The snapshot is written to a temporary file and
// renamed into place so a crash mid-write never leaves a torn file.
func (s *Store) SaveDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	data, err := json.Marshal(s.Export())
	if err != nil {
		return fmt.Errorf("marshaling cache snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(dir, snapshotFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, snapshotFile)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("installing cache snapshot: %w", err)
	}
	return nil
}

// LoadDir restores a snapshot previously written by SaveDir. A missing
// snapshot is not an error; a corrupt one is, so the caller can decide
// whether to proceed cold.
func (s *Store) LoadDir(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, snapshotFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading cache snapshot: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decoding cache snapshot: %w", err)
	}
	s.Import(entries)
	return nil
}
