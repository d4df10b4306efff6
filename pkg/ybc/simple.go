package ybc

import (
	"context"
	"time"

	"github.com/kfabryczny/ybc/pkg/errors"
)

// SimpleStatus reports the outcome of SimpleGet.
type SimpleStatus int

const (
	// Miss means the key was absent or expired.
	Miss SimpleStatus = iota
	// Hit means the value was copied into the caller's buffer.
	Hit
	// BufferTooSmall means the value exists but does not fit buf; n holds
	// the size the caller must retry with.
	BufferTooSmall
)

// SimpleGet copies key's value into buf, hiding Item handle management from
// the caller. It returns the number of bytes involved (written on Hit,
// required on BufferTooSmall) and a SimpleStatus classifying the outcome.
func (c *Cache) SimpleGet(ctx context.Context, key []byte, buf []byte) (int, SimpleStatus, error) {
	item, err := c.engine.Get(ctx, key)
	if err != nil {
		if err == errors.ErrMiss {
			return 0, Miss, nil
		}
		return 0, Miss, err
	}
	defer item.Release()

	value := item.Value()
	if len(value) > len(buf) {
		return len(value), BufferTooSmall, nil
	}
	n := copy(buf, value)
	return n, Hit, nil
}

// SimpleSet copies value into the cache under key, expiring after ttl
// (ttl <= 0 means never). It hides SetTxn handle management from the caller.
func (c *Cache) SimpleSet(key, value []byte, ttl time.Duration) error {
	return c.Set(key, value, ttl)
}
