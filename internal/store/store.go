// Package store persists engine snapshots behind a small key/value interface.
// Backends: SQLite (default), Redis and in-memory.
package store

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Storage keys.
const (
	KeySalary        = "ledger/salary"
	KeyExpenses      = "ledger/expenses"
	KeyBills         = "ledger/bills"
	KeyNotifications = "notifications"
	KeySuggestions   = "suggestions/history"
	KeyManual        = "suggestions/manual"
	KeySettings      = "settings"
	KeyAchievements  = "achievements"
)

// Keys lists every key the engine writes.
var Keys = []string{KeySalary, KeyExpenses, KeyBills, KeyNotifications, KeySuggestions, KeyManual, KeySettings, KeyAchievements}

// Storage is a blob store. Get returns nil, nil for a missing key.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// batchSetter is implemented by backends that can write several keys atomically.
type batchSetter interface {
	SetMany(ctx context.Context, values map[string][]byte) error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // "sqlite", "redis" or "memory"
	Path        string // sqlite database file
	RedisAddr   string
	RedisPrefix string
	RedisDB     int
	RedisPass   string
}

// Open returns the backend named by opts and a closer for it.
func Open(ctx context.Context, opts Options) (Storage, io.Closer, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "sqlite":
		path := opts.Path
		if path == "" {
			path = filepath.Join(".", "fueltank.db")
		}
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "redis":
		r, err := OpenRedis(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPass,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case "memory":
		m := NewMemory()
		return m, m, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
