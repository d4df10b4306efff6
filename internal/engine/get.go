package engine

import (
	"context"

	"github.com/kfabryczny/ybc/internal/arena"
	"github.com/kfabryczny/ybc/internal/index"
	"github.com/kfabryczny/ybc/pkg/errors"
	"github.com/kfabryczny/ybc/pkg/fingerprint"
)

// Get looks up key and, if live, returns a pinned Item the caller must
// Release when done with its Value() bytes.
func (e *Engine) Get(ctx context.Context, key []byte) (*Item, error) {
	return e.getAt(key, nowMillis())
}

// getAt is Get parameterized on the "freshness" timestamp used against the
// index's expiration check: entries expiring at or before thresholdMs are
// treated as misses. GetDE passes now+graceTTL so a key about to expire
// within the grace window is treated the same as an absent one
// (SPEC_FULL.md §4.G).
func (e *Engine) getAt(key []byte, thresholdMs int64) (*Item, error) {
	if e.closed.Load() {
		return nil, errors.ErrClosed
	}
	fp := fingerprint.Of(e.seed, key)
	bucket := fingerprint.Bucket(key)

	e.mu.Lock()

	slot, _, ok := e.idx.Lookup(fp, thresholdMs)
	if !ok {
		e.mu.Unlock()
		return nil, errors.ErrMiss
	}

	raw := e.data.Resolve(slot.Cursor, uint64(slot.Length))
	hdr := arena.DecodeRecordHeader(raw[:arena.RecordHeaderSize])
	if hdr.Fingerprint != uint64(fp) || hdr.ExpireAtMs != slot.ExpireAtMs {
		// Stale or torn payload behind a surviving index entry (§3 invariant 3):
		// the slot lied, so erase it and report a miss rather than garbage.
		e.idx.Remove(fp)
		e.mu.Unlock()
		return nil, errors.ErrMiss
	}

	cursor, length := slot.Cursor, uint64(slot.Length)
	if e.hot.ShouldCompact(e.data.Cursor(), cursor) {
		if newCursor, ok := e.recompact(raw, length); ok {
			e.idx.Insert(fp, index.Slot{Cursor: newCursor, Length: slot.Length, ExpireAtMs: slot.ExpireAtMs}, nowMillis())
			cursor = newCursor
			raw = e.data.Resolve(cursor, length)
		}
	}
	e.hot.Touch(bucket, cursor, length)

	keyEnd := uint64(arena.RecordHeaderSize) + uint64(hdr.KeyLen)
	valueEnd := keyEnd + uint64(hdr.ValueLen)
	value := raw[keyEnd:valueEnd]

	pinID := e.data.Pin(cursor, cursor+length)
	e.mu.Unlock()

	return &Item{engine: e, pinID: pinID, value: value, expireAtMs: slot.ExpireAtMs}, nil
}

// recompact re-appends raw near the write head and returns its new cursor,
// or false if there was no room to do so (a failed opportunistic compaction
// is not an error — the original entry is simply left in place).
func (e *Engine) recompact(raw []byte, length uint64) (uint64, bool) {
	res, err := e.data.Reserve(length)
	if err != nil {
		return 0, false
	}
	copy(res.Bytes(), raw)
	res.Commit()
	return res.Cursor(), true
}

// Remove erases key's index entry, if present, and drops it from hot-cache
// tracking. It reports whether an entry was actually present.
func (e *Engine) Remove(key []byte) (bool, error) {
	if e.closed.Load() {
		return false, errors.ErrClosed
	}
	fp := fingerprint.Of(e.seed, key)
	bucket := fingerprint.Bucket(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.idx.Remove(fp)
	e.hot.Forget(bucket)
	return removed, nil
}
