// Package store persists the controller snapshot (latest reading and extrema)
// across restarts.
package store

import (
	"errors"
	"fmt"

	"github.com/sweeney/greenhouse-controller/internal/climate"
)

// ErrNotFound is returned by Load when no state has been saved yet.
var ErrNotFound = errors.New("store: no saved state")

// ErrCorrupt is returned by Load when the saved state cannot be decoded.
var ErrCorrupt = errors.New("store: corrupt state")

// State is the persisted snapshot. It is overwritten wholesale on every save.
type State struct {
	Reading climate.Reading
	Extrema climate.Extrema
}

// Store loads and saves the snapshot.
type Store interface {
	// Load returns the saved state, ErrNotFound if there is none, or an error
	// wrapping ErrCorrupt if it cannot be decoded.
	Load() (State, error)

	// Save replaces the saved state. A concurrent Load sees either the old or
	// the new state, never a partial write.
	Save(State) error

	// Close releases the underlying resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultPathFor returns the default state location for backend.
func DefaultPathFor(backend string) string {
	if backend == BackendSQLite {
		return DefaultSQLitePath
	}
	return DefaultPath
}

// Open returns the store for the named backend.
func Open(backend, path string, legacy bool) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path, legacy), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %s or %s)", backend, BackendFile, BackendSQLite)
	}
}
