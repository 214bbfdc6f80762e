// Package storage provides the durable key-value stores that hold user
// preferences. Every implementation stores opaque byte values under string
// keys and reports a missing key as found == false rather than an error.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a store after Close.
var ErrClosed = errors.New("storage: store closed")

// Store is a durable key-value store.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Ping reports whether the store is reachable; used by readiness checks.
	Ping(ctx context.Context) error
	Close() error
}
