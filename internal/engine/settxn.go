package engine

import (
	"time"

	"github.com/kfabryczny/ybc/internal/arena"
	"github.com/kfabryczny/ybc/internal/index"
	"github.com/kfabryczny/ybc/pkg/errors"
	"github.com/kfabryczny/ybc/pkg/fingerprint"
)

// SetTxn is a two-phase write: Begin reserves space and hands back a
// writable value slice, the caller fills it, and exactly one of Commit,
// CommitItem, or Rollback finalizes the transaction (SPEC_FULL.md §4.E).
type SetTxn struct {
	engine *Engine

	fp         fingerprint.Key
	expireAtMs int64
	pinID      uint64

	reservation *arena.Reservation
	keyLen      uint32
	valueLen    uint32
}

// maxRecordSize bounds key+value lengths so header.KeyLen/ValueLen (uint32
// each) never silently truncate a larger request.
const maxRecordSize = 1 << 32

// Begin reserves room for key plus a valueSize-byte value and writes the
// record header and key bytes into place. ttl <= 0 means the entry never
// expires. Begin fails with errors.ErrBadSize if key or valueSize overflow
// the representable domain, or with errors.ErrNoRoom if the reservation
// would exceed the data region or overwrite a still-pinned range.
func (e *Engine) Begin(key []byte, valueSize int, ttl time.Duration) (*SetTxn, error) {
	if e.closed.Load() {
		return nil, errors.ErrClosed
	}
	if valueSize < 0 || len(key) == 0 || uint64(len(key))+uint64(valueSize) >= maxRecordSize {
		return nil, errors.ErrBadSize
	}

	fp := fingerprint.Of(e.seed, key)
	now := nowMillis()
	expireAtMs := index.MaxExpire
	if ttl > 0 {
		expireAtMs = now + ttl.Milliseconds()
	}

	recordLen := uint64(arena.RecordHeaderSize) + uint64(len(key)) + uint64(valueSize)

	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.data.Reserve(recordLen)
	if err != nil {
		return nil, err
	}

	buf := res.Bytes()
	arena.EncodeRecordHeader(buf[:arena.RecordHeaderSize], arena.Record{
		Fingerprint: uint64(fp),
		ExpireAtMs:  expireAtMs,
		KeyLen:      uint32(len(key)),
		ValueLen:    uint32(valueSize),
	})
	copy(buf[arena.RecordHeaderSize:], key)

	pinID := e.data.Pin(res.Cursor(), res.Cursor()+recordLen)

	return &SetTxn{
		engine:      e,
		fp:          fp,
		expireAtMs:  expireAtMs,
		pinID:       pinID,
		reservation: res,
		keyLen:      uint32(len(key)),
		valueLen:    uint32(valueSize),
	}, nil
}

// Value returns the writable value slice for the caller to fill.
func (t *SetTxn) Value() []byte {
	start := uint64(arena.RecordHeaderSize) + uint64(t.keyLen)
	end := start + uint64(t.valueLen)
	return t.reservation.Bytes()[start:end]
}

// UpdateValueSize shrinks (never grows) the value length recorded for this
// transaction. It re-encodes the record header in place; the reservation's
// physical footprint is unchanged, so bytes beyond the new length are
// simply not indexed once committed.
func (t *SetTxn) UpdateValueSize(n uint32) error {
	if n > t.valueLen {
		return errors.ErrBadSize
	}
	t.valueLen = n
	buf := t.reservation.Bytes()
	arena.EncodeRecordHeader(buf[:arena.RecordHeaderSize], arena.Record{
		Fingerprint: uint64(t.fp),
		ExpireAtMs:  t.expireAtMs,
		KeyLen:      t.keyLen,
		ValueLen:    t.valueLen,
	})
	return nil
}

func (t *SetTxn) recordLength() uint32 {
	return uint32(arena.RecordHeaderSize) + t.keyLen + t.valueLen
}

// Commit installs the index entry for this transaction's key, releases the
// internal pin taken at Begin, and clears the key's dogpile marker, waking
// any GetDE waiters.
func (t *SetTxn) Commit() error {
	t.engine.mu.Lock()
	defer t.engine.mu.Unlock()

	t.reservation.Commit()
	t.engine.idx.Insert(t.fp, index.Slot{
		Cursor:     t.reservation.Cursor(),
		Length:     t.recordLength(),
		ExpireAtMs: t.expireAtMs,
	}, nowMillis())
	t.engine.data.Release(t.pinID)
	t.engine.de.Commit(uint64(t.fp))
	return nil
}

// CommitItem installs the index entry like Commit, but transfers this
// transaction's pin to the returned Item instead of releasing it, so the
// caller can read the just-written value without racing a subsequent
// overwrite.
func (t *SetTxn) CommitItem() (*Item, error) {
	t.engine.mu.Lock()
	defer t.engine.mu.Unlock()

	t.reservation.Commit()
	t.engine.idx.Insert(t.fp, index.Slot{
		Cursor:     t.reservation.Cursor(),
		Length:     t.recordLength(),
		ExpireAtMs: t.expireAtMs,
	}, nowMillis())
	t.engine.de.Commit(uint64(t.fp))

	return &Item{
		engine:     t.engine,
		pinID:      t.pinID,
		value:      t.Value(),
		expireAtMs: t.expireAtMs,
	}, nil
}

// Rollback releases the internal pin and leaves no index entry. The
// reserved bytes become dead space, reclaimed once the write cursor laps
// them.
func (t *SetTxn) Rollback() error {
	t.engine.mu.Lock()
	defer t.engine.mu.Unlock()
	t.engine.data.Release(t.pinID)
	return nil
}
