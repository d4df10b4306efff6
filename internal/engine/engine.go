// Package engine provides the core cache engine implementation for ybc.
//
// The engine serves as the central coordinator and entry point for all cache
// operations. It orchestrates the interaction between four subsystems:
//   - index: the open-addressed fingerprint table mapping keys to data cursors
//   - arena: the circular mmap'd data region holding payload bytes
//   - hotcache: the bounded hot-key set driving opportunistic compaction
//   - dogpile: the thundering-herd guard for concurrent misses on the same key
//
// The engine implements a thread-safe interface with proper lifecycle
// management, ensuring resources are properly initialized and cleaned up. It
// uses atomic operations for state management and a single mutex guarding
// the index/arena/dogpile state, consistent with the single-engine-mutex
// concurrency model.
package engine

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kfabryczny/ybc/internal/arena"
	"github.com/kfabryczny/ybc/internal/dogpile"
	"github.com/kfabryczny/ybc/internal/hotcache"
	"github.com/kfabryczny/ybc/internal/index"
	"github.com/kfabryczny/ybc/pkg/errors"
	"github.com/kfabryczny/ybc/pkg/fingerprint"
	"github.com/kfabryczny/ybc/pkg/options"
)

// Engine represents the main cache engine that coordinates all subsystems.
// It acts as the primary interface for cache operations and manages the
// lifecycle of all internal components.
type Engine struct {
	mu     sync.Mutex
	opts   options.Options
	log    *zap.SugaredLogger
	closed atomic.Bool

	idx  *index.Table
	data *arena.Arena
	hot  *hotcache.Set
	de   *dogpile.Coordinator

	seed fingerprint.Seed

	syncCancel  context.CancelFunc
	syncDone    chan struct{}
	lastSyncErr atomic.Value // stores error; never poisons the cache (SPEC_FULL.md §9)
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Options options.Options
	Logger  *zap.SugaredLogger

	// Force creates missing index/data files instead of failing Open.
	Force bool

	// ArchiveDir receives corrupt-index snapshots. Empty defaults to the
	// index file's own directory.
	ArchiveDir string
}

func resolvePath(dataDir, file string) string {
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dataDir, file)
}

// New creates and initializes a new Engine instance with the provided
// configuration. This constructor follows the dependency injection pattern,
// making the engine testable and allowing for different configurations in
// different environments.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	indexPath := resolvePath(cfg.Options.DataDir, cfg.Options.IndexFile)
	dataPath := resolvePath(cfg.Options.DataDir, cfg.Options.DataFile)

	log.Infow("initializing cache engine",
		"indexPath", indexPath, "dataPath", dataPath,
		"maxItemsCount", cfg.Options.MaxItemsCount, "dataFileSize", cfg.Options.DataFileSize,
	)

	idx, err := index.Open(index.Config{
		Path:        indexPath,
		ArchiveDir:  cfg.ArchiveDir,
		SlotCount:   cfg.Options.MaxItemsCount,
		ProbeWindow: options.DefaultProbeWindow,
		Force:       cfg.Force,
		MaxArchives: cfg.Options.MaxArchives,
		Log:         log,
	})
	if err != nil {
		return nil, err
	}

	data, err := arena.Open(arena.Config{
		Path:  dataPath,
		Size:  cfg.Options.DataFileSize,
		Force: cfg.Force,
		Log:   log,
	})
	if err != nil {
		idx.Close()
		return nil, err
	}

	e := &Engine{
		opts: cfg.Options,
		log:  log,
		idx:  idx,
		data: data,
		hot:  hotcache.New(cfg.Options.HotItemsCount, cfg.Options.HotDataSize),
		de:   dogpile.New(cfg.Options.DEHashtableSize),
		seed: idx.Seed(),
	}

	e.startSync(ctx)

	log.Infow("cache engine initialized successfully")
	return e, nil
}

func (e *Engine) startSync(ctx context.Context) {
	if e.opts.SyncInterval <= 0 {
		return
	}
	syncCtx, cancel := context.WithCancel(ctx)
	e.syncCancel = cancel
	e.syncDone = make(chan struct{})
	go e.syncLoop(syncCtx)
}

// syncErrBox wraps an error so atomic.Value can store both the nil and
// non-nil cases through the same concrete type.
type syncErrBox struct{ err error }

func (e *Engine) syncLoop(ctx context.Context) {
	defer close(e.syncDone)

	ticker := time.NewTicker(e.opts.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			idxErr := e.idx.Sync()
			dataErr := e.data.Sync()
			e.mu.Unlock()

			if idxErr != nil {
				e.log.Errorw("background index sync failed", "error", idxErr)
				e.lastSyncErr.Store(syncErrBox{idxErr})
			} else if dataErr != nil {
				e.log.Errorw("background data sync failed", "error", dataErr)
				e.lastSyncErr.Store(syncErrBox{dataErr})
			} else {
				e.lastSyncErr.Store(syncErrBox{})
			}
		}
	}
}

// LastSyncError reports the error (if any) from the most recent background
// sync attempt. A platform I/O failure during sync is logged and recorded
// here but never poisons the cache — reads and writes keep working
// (SPEC_FULL.md §9).
func (e *Engine) LastSyncError() error {
	v, _ := e.lastSyncErr.Load().(syncErrBox)
	return v.err
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// Close gracefully shuts down the engine, stopping the background sync
// goroutine (if any) and releasing the index and data mappings.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return errors.ErrClosed
	}

	if e.syncCancel != nil {
		e.syncCancel()
		<-e.syncDone
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	if err := e.idx.Close(); err != nil {
		firstErr = err
	}
	if err := e.data.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	e.log.Infow("cache engine closed")
	return firstErr
}

// Clear empties the index, resets the data region's write cursor back to
// zero, and resets the hot-cache tracking set (SPEC_FULL.md §8 "ybc_clear").
// Like the original it models, it assumes no Item handles are outstanding
// when called; the mapped bytes themselves are left untouched and become
// unreachable garbage the cursor will overwrite from zero.
func (e *Engine) Clear() error {
	if e.closed.Load() {
		return errors.ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idx.Clear()
	e.data.Reset()
	e.hot = hotcache.New(e.opts.HotItemsCount, e.opts.HotDataSize)
	return nil
}
