// Package ybc is the public facade of an embeddable, persistent,
// in-process key/value cache backed by memory-mapped files (SPEC_FULL.md
// §4.J). A *Cache wraps an internal engine.Engine, exposing ordinary Go
// methods returning (*Item, error) / (*SetTxn, error) rather than the
// opaque fixed-size handles of the original C ABI, which make little sense
// under a garbage collector.
package ybc

import (
	"context"
	"time"

	"github.com/kfabryczny/ybc/internal/engine"
	"github.com/kfabryczny/ybc/pkg/logger"
	"github.com/kfabryczny/ybc/pkg/options"
)

// Item is a live handle over a cached value's bytes. Callers must call
// Release exactly once when done reading Value().
type Item = engine.Item

// SetTxn is a two-phase write transaction. See engine.SetTxn for the full
// state machine.
type SetTxn = engine.SetTxn

// DEResult classifies a GetDEAsync outcome.
type DEResult = engine.DEResult

const (
	DESuccess    = engine.DESuccess
	DENotFound   = engine.DENotFound
	DEWouldBlock = engine.DEWouldBlock
)

// Cache is a single cache instance: one index file, one data file, one
// engine mutex.
type Cache struct {
	engine *engine.Engine
}

// Open creates or opens a cache instance under opts, applying any functional
// options on top of the package defaults. Force (when true) creates missing
// backing files instead of failing with errors.ErrNoSuchCache.
func Open(ctx context.Context, service string, force bool, opts ...options.OptionFunc) (*Cache, error) {
	log := logger.New(service)

	o := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := engine.New(ctx, engine.Config{Options: o, Logger: log, Force: force})
	if err != nil {
		return nil, err
	}
	return &Cache{engine: eng}, nil
}

// Close releases the cache's index and data mappings, stopping the
// background sync goroutine (if any) first; no final sync is run.
func (c *Cache) Close() error { return c.engine.Close() }

// Clear empties the index. See engine.Engine.Clear.
func (c *Cache) Clear() error { return c.engine.Clear() }

// LastSyncError reports the error (if any) from the most recent background
// sync attempt, without poisoning the cache (SPEC_FULL.md §9). Callers that
// care about durability can poll this after a batch of writes.
func (c *Cache) LastSyncError() error { return c.engine.LastSyncError() }

// Get looks up key and returns a pinned Item, or errors.ErrMiss if absent
// or expired.
func (c *Cache) Get(ctx context.Context, key []byte) (*Item, error) {
	return c.engine.Get(ctx, key)
}

// Begin starts a two-phase write of valueSize bytes under key, expiring
// after ttl (ttl <= 0 means never).
func (c *Cache) Begin(key []byte, valueSize int, ttl time.Duration) (*SetTxn, error) {
	return c.engine.Begin(key, valueSize, ttl)
}

// Set is a convenience wrapper around Begin/Commit for callers that already
// have the full value in hand.
func (c *Cache) Set(key, value []byte, ttl time.Duration) error {
	txn, err := c.engine.Begin(key, len(value), ttl)
	if err != nil {
		return err
	}
	copy(txn.Value(), value)
	return txn.Commit()
}

// Remove erases key's entry, reporting whether one was present.
func (c *Cache) Remove(key []byte) (bool, error) {
	return c.engine.Remove(key)
}

// GetDE is the synchronous dogpile-effect-guarded lookup (SPEC_FULL.md §4.G).
func (c *Cache) GetDE(ctx context.Context, key []byte, graceTTL time.Duration) (*Item, error) {
	return c.engine.GetDE(ctx, key, graceTTL)
}

// GetDEAsync is GetDE's non-blocking counterpart.
func (c *Cache) GetDEAsync(key []byte, graceTTL time.Duration) (*Item, DEResult, error) {
	return c.engine.GetDEAsync(key, graceTTL)
}

// CommitDE clears the dogpile pending marker for key after a Compute winner
// installs a value.
func (c *Cache) CommitDE(key []byte) { c.engine.CommitDE(key) }

// AbandonDE clears the dogpile pending marker for key after a Compute winner
// fails to install a value.
func (c *Cache) AbandonDE(key []byte) { c.engine.AbandonDE(key) }
