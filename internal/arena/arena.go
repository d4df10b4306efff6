// Package arena implements the circular, mmap'd data region that backs
// every cache's payload bytes (SPEC_FULL.md §4.C). It generalizes the host
// project's segment-rotation storage engine (internal/storage, one active
// append-only file swapped out at a size threshold) into a single
// fixed-size, wrap-around region addressed by a monotonic write cursor —
// the structural idea paultag-go-diskring's Ring also builds on, though
// this arena resolves a wrap with two split copy() calls against the single
// mapped slice rather than diskring's double-mmap mirrored mapping, per
// SPEC_FULL.md §4.C's simpler "physical writes that straddle the end-of-file
// split into two copy() calls" design.
package arena

import (
	"go.uber.org/zap"

	"github.com/kfabryczny/ybc/internal/mmapfile"
	"github.com/kfabryczny/ybc/pkg/errors"
)

// Config configures an Arena.
type Config struct {
	// Path is the data file path; empty selects an anonymous mapping.
	Path string
	// Size is the fixed size of the circular region in bytes.
	Size uint64
	// Force creates a missing backing file instead of failing.
	Force bool
	Log   *zap.SugaredLogger
}

// Arena is the circular data region plus its live-pin watermark bookkeeping.
// Callers (internal/engine) are expected to serialize access under their own
// mutex; Arena performs no internal locking, matching SPEC_FULL.md §5's
// single-engine-mutex model.
type Arena struct {
	file   *mmapfile.File
	size   uint64
	cursor uint64

	pins      map[uint64]*pin
	nextPinID uint64

	log *zap.SugaredLogger
}

type pin struct {
	begin, end uint64
	refs       int
}

// Open creates or opens the data file. Unlike the index, the data file
// carries no header and is never validated on open (SPEC_FULL.md §4.H):
// payload self-validation on read covers stale or torn records.
func Open(cfg Config) (*Arena, error) {
	if cfg.Size == 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "arena size must be positive").
			WithField("Size").WithRule("required")
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	f, err := mmapfile.Open(cfg.Path, int64(cfg.Size), cfg.Force)
	if err != nil {
		return nil, err
	}

	log.Infow("arena opened", "path", cfg.Path, "size", cfg.Size)
	return &Arena{
		file: f, size: cfg.Size,
		pins: make(map[uint64]*pin),
		log:  log,
	}, nil
}

// Cursor returns the current monotonic write cursor.
func (a *Arena) Cursor() uint64 { return a.cursor }

// Size returns the fixed region size in bytes.
func (a *Arena) Size() uint64 { return a.size }

func (a *Arena) minPinBegin() (uint64, bool) {
	min := uint64(0)
	found := false
	for _, p := range a.pins {
		if !found || p.begin < min {
			min = p.begin
			found = true
		}
	}
	return min, found
}

// Reservation is a writable view over freshly reserved arena bytes. For a
// reservation that does not straddle the end of the region, Bytes() is a
// direct view into the mapped file; callers must not retain it once the
// reservation is committed or abandoned. A wrapping reservation instead hands back a
// scratch buffer that Commit copies into the mapped region in two pieces.
type Reservation struct {
	arena  *Arena
	cursor uint64
	n      uint64
	buf    []byte
	wraps  bool
}

// Cursor returns the monotonic cursor value this reservation begins at.
func (r *Reservation) Cursor() uint64 { return r.cursor }

// Bytes returns the writable buffer for the caller to fill.
func (r *Reservation) Bytes() []byte { return r.buf }

// Commit finalizes the reservation, flushing a wrapping scratch buffer into
// the mapped region. Non-wrapping reservations wrote directly into the
// mapped region already and need no extra step.
func (r *Reservation) Commit() {
	if !r.wraps {
		return
	}
	mapped := r.arena.file.Bytes()
	off := r.cursor % r.arena.size
	first := r.arena.size - off
	copy(mapped[off:], r.buf[:first])
	copy(mapped[0:], r.buf[first:])
}

// Reserve advances the write cursor by n bytes and returns a writable view
// over them. It fails with errors.ErrNoRoom if n exceeds the region size, or
// if advancing the cursor would overwrite a byte still covered by a live pin
// (SPEC_FULL.md §3 invariant 2, §4.C).
func (a *Arena) Reserve(n uint64) (*Reservation, error) {
	if n == 0 {
		return nil, errors.ErrBadSize
	}
	if n > a.size {
		return nil, errors.ErrNoRoom
	}

	newCursor := a.cursor + n
	if begin, ok := a.minPinBegin(); ok {
		if newCursor > begin+a.size {
			return nil, errors.ErrNoRoom
		}
	}

	off := a.cursor % a.size
	wraps := off+n > a.size

	r := &Reservation{arena: a, cursor: a.cursor, n: n}
	if wraps {
		r.buf = make([]byte, n)
		r.wraps = true
	} else {
		mapped := a.file.Bytes()
		r.buf = mapped[off : off+n]
	}

	a.cursor = newCursor
	return r, nil
}

// Resolve returns the n bytes starting at the given monotonic cursor. A
// non-wrapping range is returned as a direct view into the mapped file; a
// wrapping range is copied into a freshly allocated buffer since a
// contiguous Go slice cannot span the physical end-of-file boundary.
func (a *Arena) Resolve(cursor uint64, n uint64) []byte {
	mapped := a.file.Bytes()
	off := cursor % a.size
	if off+n <= a.size {
		return mapped[off : off+n]
	}
	out := make([]byte, n)
	first := a.size - off
	copy(out, mapped[off:])
	copy(out[first:], mapped[:n-first])
	return out
}

// Pin registers a live reference over cursor range [begin, end), returning a
// pin id to later pass to Release. While any pin overlaps a range, Reserve
// refuses to advance the cursor past it.
func (a *Arena) Pin(begin, end uint64) uint64 {
	id := a.nextPinID
	a.nextPinID++
	a.pins[id] = &pin{begin: begin, end: end, refs: 1}
	return id
}

// Release drops the pin identified by id. Releasing an unknown id is a no-op.
func (a *Arena) Release(id uint64) {
	if p, ok := a.pins[id]; ok {
		p.refs--
		if p.refs <= 0 {
			delete(a.pins, id)
		}
	}
}

// PinCount reports the number of currently live pins, for diagnostics.
func (a *Arena) PinCount() int { return len(a.pins) }

// Reset rewinds the write cursor to zero and drops all pin bookkeeping, for
// Engine.Clear (SPEC_FULL.md §8 "ybc_clear"). Like the original it models,
// it assumes no Item handles are outstanding when called — a pin surviving
// a reset would no longer bound anything, since the cursor no longer
// carries the history that pin's begin/end were computed against. The
// mapped bytes themselves are left untouched; they become unreachable
// garbage the cursor will overwrite as new records are written from zero.
func (a *Arena) Reset() {
	a.cursor = 0
	a.pins = make(map[uint64]*pin)
}

// Sync flushes the whole data mapping to its backing file.
func (a *Arena) Sync() error {
	return a.file.Sync(0, int(a.size))
}

// Close unmaps the data file.
func (a *Arena) Close() error {
	return a.file.Close()
}
