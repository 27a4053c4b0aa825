package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Options selects and sizes a backend.
type Options struct {
	Backend       string
	MaxCost       int64
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open returns the configured backend. "none" and "" give a Noop store.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "none", "off":
		return Noop{}, nil
	case "memory":
		return NewRistrettoStore(opts.MaxCost)
	case "redis":
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", opts.Backend)
	}
}

type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)       { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error                     { return nil }
