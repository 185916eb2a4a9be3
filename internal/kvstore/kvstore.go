// Package kvstore provides the simple-value-store API the entity store
// persists its snapshot through: get and set an opaque value by key.
package kvstore

import (
	"context"
	"errors"
	"fmt"

	"kidflix/internal/config"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a durable key-value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Driver() string
	Close() error
}

// Open builds the backend selected by cfg.StorageDriver.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.DriverRedis:
		return OpenRedis(cfg.RedisURL)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
