package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPath is where the daemon keeps its state file.
const DefaultPath = "/var/lib/greenhouse/state.json"

// FileStore keeps the snapshot in a single file. Saves go to a temp file in
// the same directory which is then renamed over the target.
type FileStore struct {
	path   string
	legacy bool
}

// NewFileStore returns a store backed by path. With legacy set, Save writes
// the positional six-number layout instead of the versioned document.
func NewFileStore(path string, legacy bool) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path, legacy: legacy}
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the state file.
func (s *FileStore) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("read state: %w", err)
	}
	st, err := Decode(data)
	if err != nil {
		return State{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return st, nil
}

// Save atomically replaces the state file.
func (s *FileStore) Save(st State) error {
	var (
		data []byte
		err  error
	)
	if s.legacy {
		data, err = EncodeLegacy(st)
	} else {
		data, err = Encode(st)
	}
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
