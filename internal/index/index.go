// Package index implements the fixed-size, open-addressed probe-window
// index table (SPEC_FULL.md §4.B): a power-of-two array of fingerprint →
// data-offset entries, memory-mapped for the cache's lifetime. All exported
// methods assume the caller (internal/engine) already holds the per-cache
// engine mutex; the table itself performs no internal locking, matching
// the single-engine-mutex concurrency model (SPEC_FULL.md §5).
package index

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kfabryczny/ybc/internal/mmapfile"
	"github.com/kfabryczny/ybc/pkg/archive"
	"github.com/kfabryczny/ybc/pkg/errors"
	"github.com/kfabryczny/ybc/pkg/fingerprint"
)

// Config configures a Table.
type Config struct {
	// Path is the index file path; empty selects an anonymous mapping.
	Path string
	// ArchiveDir receives corrupt-index snapshots; ignored for anonymous caches.
	ArchiveDir string
	// SlotCount is rounded up to the next power of two.
	SlotCount uint64
	// ProbeWindow bounds linear-probe distance on lookup/insert.
	ProbeWindow uint32
	// Force creates missing backing files instead of failing.
	Force bool
	// MaxArchives caps how many corrupt-index snapshots accumulate under
	// ArchiveDir; 0 keeps all of them.
	MaxArchives int
	Log         *zap.SugaredLogger
}

// Table is the open-addressed index table.
type Table struct {
	file        *mmapfile.File
	path        string
	archiveDir  string
	slotCount   uint64
	probeWindow uint32
	seed        fingerprint.Seed
	log         *zap.SugaredLogger
}

func nextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Open creates or opens the index file and validates its header. A missing
// or mismatched header for an existing file causes an empty-index recovery:
// the stale bytes are archived (if this is a named file) and the header is
// rewritten fresh, per SPEC_FULL.md §4.H.
func Open(cfg Config) (*Table, error) {
	if cfg.SlotCount == 0 {
		return nil, errors.NewValidationError(nil, errors.ErrorCodeInvalidInput, "slot count must be positive").
			WithField("SlotCount").WithRule("required")
	}
	slotCount := nextPow2(cfg.SlotCount)
	probeWindow := cfg.ProbeWindow
	if probeWindow == 0 {
		probeWindow = 16
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	size := fileSize(slotCount)
	_, statErr := os.Stat(cfg.Path)
	existed := cfg.Path != "" && statErr == nil
	f, err := mmapfile.Open(cfg.Path, size, cfg.Force)
	if err != nil {
		return nil, err
	}

	buf := f.Bytes()
	if h, ok := decodeHeader(buf[:headerSize]); ok && h.SlotCount == slotCount {
		t := &Table{
			file: f, path: cfg.Path, archiveDir: cfg.ArchiveDir,
			slotCount: h.SlotCount, probeWindow: h.ProbeWindow,
			seed: fingerprint.Seed{K0: h.SeedK0, K1: h.SeedK1},
			log:  log,
		}
		log.Infow("index opened", "path", cfg.Path, "slotCount", t.slotCount)
		return t, nil
	}

	cerr := errors.NewIndexCorruptionError("Open", int(slotCount), nil).WithDetail("path", cfg.Path)
	log.Warnw("index header invalid or absent, recovering empty index",
		"path", cfg.Path, "code", errors.GetErrorCode(cerr), "details", errors.GetErrorDetails(cerr))
	if existed {
		archiveDir := cfg.ArchiveDir
		if archiveDir == "" {
			archiveDir = filepath.Dir(cfg.Path)
		}
		if archivedPath, aerr := archiveCorrupt(archiveDir, cfg.Path, buf); aerr != nil {
			log.Warnw("failed to archive corrupt index", "error", aerr)
		} else if archivedPath != "" {
			log.Infow("archived corrupt index", "path", archivedPath)
			if perr := archive.Prune(archiveDir, filepath.Base(cfg.Path), cfg.MaxArchives); perr != nil {
				log.Warnw("failed to prune old corrupt-index archives", "error", perr)
			}
		}
	}

	seed := newSeed()
	h := newHeader(slotCount, probeWindow, seed)
	h.encode(buf[:headerSize])
	for i := headerSize; i < len(buf); i += entrySize {
		clearSlot(buf[i : i+entrySize])
	}

	return &Table{
		file: f, path: cfg.Path, archiveDir: cfg.ArchiveDir,
		slotCount: slotCount, probeWindow: probeWindow, seed: seed, log: log,
	}, nil
}

func archiveCorrupt(archiveDir, indexPath string, bytes []byte) (string, error) {
	if archiveDir == "" {
		archiveDir = filepath.Dir(indexPath)
	}
	prefix := filepath.Base(indexPath)
	name, err := archive.NextName(archiveDir, prefix)
	if err != nil {
		return "", err
	}
	snapshot := make([]byte, len(bytes))
	copy(snapshot, bytes)
	return archive.Write(archiveDir, name, snapshot)
}

func newSeed() fingerprint.Seed {
	now := uint64(time.Now().UnixNano())
	return fingerprint.Seed{K0: now, K1: now ^ 0x9e3779b97f4a7c15}
}

// Seed returns the table's SipHash keying material, for computing
// fingerprints consistent with this table's stored entries.
func (t *Table) Seed() fingerprint.Seed { return t.seed }

// ProbeWindow returns the configured linear-probe bound.
func (t *Table) ProbeWindow() uint32 { return t.probeWindow }

// SlotCount returns the (power-of-two) number of slots.
func (t *Table) SlotCount() uint64 { return t.slotCount }

func (t *Table) slotOffset(i uint64) int {
	return headerSize + int(i)*entrySize
}

func (t *Table) slotAt(i uint64) Slot {
	buf := t.file.Bytes()
	off := t.slotOffset(i)
	return readSlot(buf[off : off+entrySize])
}

func (t *Table) setSlotAt(i uint64, s Slot) {
	buf := t.file.Bytes()
	off := t.slotOffset(i)
	writeSlot(buf[off:off+entrySize], s)
}

// Lookup probes for fp starting at hash(fp) for up to ProbeWindow slots. It
// returns the slot and its index if found and not expired as of nowMs;
// expired entries are treated as absent (lazily ignored, §3 invariant 5).
func (t *Table) Lookup(fp fingerprint.Key, nowMs int64) (Slot, uint64, bool) {
	start := uint64(fp) & (t.slotCount - 1)
	for i := uint64(0); i < uint64(t.probeWindow); i++ {
		idx := (start + i) & (t.slotCount - 1)
		s := t.slotAt(idx)
		if s.empty() {
			return Slot{}, 0, false
		}
		if s.Fingerprint == uint64(fp) {
			if s.ExpireAtMs != MaxExpire && s.ExpireAtMs <= nowMs {
				return Slot{}, 0, false
			}
			return s, idx, true
		}
	}
	return Slot{}, 0, false
}

// Insert installs s under fp, picking the first empty or expired slot in the
// probe window, or evicting the slot with the smallest expiration (ties
// broken by smallest cursor) if the window is full of live entries
// (SPEC_FULL.md §4.B).
func (t *Table) Insert(fp fingerprint.Key, s Slot, nowMs int64) uint64 {
	start := uint64(fp) & (t.slotCount - 1)
	s.Fingerprint = uint64(fp)

	var evictIdx uint64
	haveEvictCandidate := false
	var evictExpire int64
	var evictCursor uint64

	for i := uint64(0); i < uint64(t.probeWindow); i++ {
		idx := (start + i) & (t.slotCount - 1)
		existing := t.slotAt(idx)

		if existing.empty() {
			t.setSlotAt(idx, s)
			return idx
		}
		if existing.Fingerprint == uint64(fp) {
			t.setSlotAt(idx, s)
			return idx
		}
		if existing.ExpireAtMs != MaxExpire && existing.ExpireAtMs <= nowMs {
			t.setSlotAt(idx, s)
			return idx
		}

		if !haveEvictCandidate ||
			existing.ExpireAtMs < evictExpire ||
			(existing.ExpireAtMs == evictExpire && existing.Cursor < evictCursor) {
			evictIdx = idx
			evictExpire = existing.ExpireAtMs
			evictCursor = existing.Cursor
			haveEvictCandidate = true
		}
	}

	t.setSlotAt(evictIdx, s)
	return evictIdx
}

// minThreshold is passed to Lookup when a caller wants to find fp's slot
// regardless of whether it has logically expired (Remove should erase a
// TTL'd entry that is still physically present just as readily as a
// permanent one; only MaxExpire-exempt entries skip the expiry check, and
// a vanishingly low threshold makes every finite ExpireAtMs compare as
// "not yet expired").
const minThreshold = int64(-1 << 63)

// Remove erases the slot currently holding fp, if any, regardless of its
// expiration state. It reports whether an entry was actually present.
func (t *Table) Remove(fp fingerprint.Key) bool {
	s, idx, ok := t.Lookup(fp, minThreshold)
	if !ok || s.empty() {
		return false
	}
	buf := t.file.Bytes()
	off := t.slotOffset(idx)
	clearSlot(buf[off : off+entrySize])
	return true
}

// Clear zeroes every slot in place, without touching the header or
// re-running CRC validation (§8 "ybc_clear").
func (t *Table) Clear() {
	buf := t.file.Bytes()
	for i := headerSize; i < len(buf); i += entrySize {
		clearSlot(buf[i : i+entrySize])
	}
}

// Sync flushes the whole index mapping to its backing file.
func (t *Table) Sync() error {
	return t.file.Sync(0, len(t.file.Bytes()))
}

// Close unmaps the index file.
func (t *Table) Close() error {
	return t.file.Close()
}
