// Package storage provides the persistence backends for the client
// session: OS keyring (default), a JSON file, Redis, or memory.
package storage

import (
	"context"
	"fmt"

	"github.com/gobarber/gobarber/internal/session"
)

// Backend names accepted by Open
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
	BackendRedis   = "redis"
	BackendMemory  = "memory"
)

// Options selects and configures a backend
type Options struct {
	Backend   string
	FilePath  string // file backend; empty uses DefaultFilePath
	RedisAddr string // redis backend
	Service   string // keyring backend; empty uses the CLI default
}

// Open returns the store for opts.Backend. The returned close func releases
// backend resources and is never nil.
func Open(ctx context.Context, opts Options) (session.Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case "", BackendKeyring:
		return NewKeyring(opts.Service), noop, nil
	case BackendFile:
		path := opts.FilePath
		if path == "" {
			var err error
			path, err = DefaultFilePath()
			if err != nil {
				return nil, noop, err
			}
		}
		return NewFile(path), noop, nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, noop, fmt.Errorf("redis storage requires an address (set redis_addr or GOBARBER_REDIS_ADDR)")
		}
		store, err := NewRedis(ctx, opts.RedisAddr)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case BackendMemory:
		return NewMemory(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend '%s', must be one of: keyring, file, redis, memory", opts.Backend)
	}
}
