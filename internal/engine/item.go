package engine

import (
	"sync/atomic"

	"github.com/kfabryczny/ybc/pkg/errors"
)

// Item is a live handle over a payload's value bytes, pinning the data
// region against overwrite until Release (SPEC_FULL.md §4.D). Callers must
// not retain the slice returned by Value past Release.
type Item struct {
	engine     *Engine
	pinID      uint64
	value      []byte
	expireAtMs int64
	released   atomic.Bool
}

// Value returns the item's value bytes. The slice is only valid until Release.
func (it *Item) Value() []byte { return it.value }

// ExpireAtMs reports the item's expiration time in Unix milliseconds, or
// MaxExpire if it never expires.
func (it *Item) ExpireAtMs() int64 { return it.expireAtMs }

// Release drops the pin backing this item's value slice. A second call
// returns errors.ErrReleased.
func (it *Item) Release() error {
	if !it.released.CompareAndSwap(false, true) {
		return errors.ErrReleased
	}
	it.engine.mu.Lock()
	it.engine.data.Release(it.pinID)
	it.engine.mu.Unlock()
	return nil
}
