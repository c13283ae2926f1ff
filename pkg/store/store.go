// Package store provides the key/value slots the designer autosaves into.
//
// Every backend stores opaque bytes under a string key. The designer uses a
// single key (default "fsm") holding the diagram snapshot JSON; the server
// exposes the same slot over HTTP.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ha1tch/fsm-designer/pkg/config"
)

// ErrNotFound is returned by Get when the key holds nothing.
var ErrNotFound = errors.New("not found")

// Store is a key/value slot backend. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored at key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Open creates the backend named by cfg.Driver. An empty driver means
// "file".
func Open(ctx context.Context, cfg config.StoreConfig, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.Default()
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "file":
		dir := cfg.Path
		if dir == "" {
			dir = filepath.Join(config.Dir(), "autosave")
		}
		s, err = NewFile(dir)
	case "memory":
		s = NewMemory()
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = filepath.Join(config.Dir(), "fsmd.db")
		}
		s, err = NewSQLite(ctx, path)
	case "redis":
		s, err = NewRedis(ctx, cfg.URL)
	case "mongo":
		s, err = NewMongo(ctx, cfg.URL, cfg.Database, cfg.Collection)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
	}

	logger.Debug("store opened", "driver", cfg.Driver, "key", cfg.Key)
	return s, nil
}
