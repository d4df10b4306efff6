// Package dogpile implements the dogpile-effect (thundering herd) guard
// described in SPEC_FULL.md §4.G: a small fixed table of per-fingerprint
// slots that lets exactly one caller "win the race" to recompute a missing
// or soon-to-expire value while every other caller waits for that result
// instead of recomputing it independently. The inflight-map-plus-sync.Cond
// shape is grounded on SnellerInc-sneller's tenant/dcache/cache.go
// (lockID/unlockID/cond.Broadcast over a shared mutex), adapted from
// per-key exclusive locks to a small, lossy, fingerprint-indexed table:
// collisions here are a deliberate cost/accuracy tradeoff (SPEC_FULL.md
// §4.G "collisions merge pending markers — benign"), not a bug.
package dogpile

import (
	"context"
	"sync"
	"time"
)

// Outcome tells a caller what to do after Probe.
type Outcome int

const (
	// Compute means the caller won the race for this fingerprint and must
	// call Commit or Abandon exactly once when it is done.
	Compute Outcome = iota
	// Wait means another caller is already computing; the caller should
	// invoke WaitForCommit (sync) or treat this as WouldBlock (async).
	Wait
)

type slotState int

const (
	idle slotState = iota
	pending
)

type tableSlot struct {
	state        slotState
	lastMissTime time.Time
}

// Coordinator is the fixed-size dogpile table for one cache.
type Coordinator struct {
	mu    sync.Mutex
	cond  *sync.Cond
	slots []tableSlot
	size  uint64
}

// New builds a Coordinator with the given table size (SPEC_FULL.md
// "de_hashtable_size"). A size of 0 is rejected by the caller before this is
// reached; New clamps to 1 defensively.
func New(size uint64) *Coordinator {
	if size == 0 {
		size = 1
	}
	c := &Coordinator{slots: make([]tableSlot, size), size: size}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Coordinator) index(fp uint64) uint64 { return fp % c.size }

// Probe checks the slot for fp. If idle, it transitions to pending and
// returns Compute — the caller now owns the obligation to call Commit or
// Abandon. If already pending, it returns Wait without blocking.
func (c *Coordinator) Probe(fp uint64) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(fp)
	if c.slots[i].state == idle {
		c.slots[i] = tableSlot{state: pending, lastMissTime: time.Now()}
		return Compute
	}
	return Wait
}

// WaitForCommit blocks until the pending marker for fp clears (via Commit or
// Abandon, from any caller — collisions mean this may be a different key
// sharing the slot), ctx is cancelled, or graceTTL elapses, whichever comes
// first. A graceTTL timeout returns nil, inviting the caller to re-probe the
// index directly. sync.Cond has no built-in deadline support, so a timer
// goroutine and (if ctx is cancellable) a watcher goroutine each broadcast
// once to unblock the wait, mirroring the approach SPEC_FULL.md §5 calls
// for explicitly.
func (c *Coordinator) WaitForCommit(ctx context.Context, fp uint64, graceTTL time.Duration) error {
	i := c.index(fp)
	deadline := time.Now().Add(graceTTL)

	timer := time.AfterFunc(graceTTL, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()

	if done := ctx.Done(); done != nil {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-done:
				c.mu.Lock()
				c.cond.Broadcast()
				c.mu.Unlock()
			case <-stop:
			}
		}()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for c.slots[i].state == pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			return nil
		}
		c.cond.Wait()
	}
	return nil
}

// Commit clears the pending marker for fp (the computing caller succeeded)
// and wakes every waiter, who will re-probe the index for the new value.
func (c *Coordinator) Commit(fp uint64) {
	c.mu.Lock()
	c.slots[c.index(fp)] = tableSlot{}
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Abandon clears the pending marker for fp without implying success (the
// computing caller failed or rolled back), so the next prober gets Compute.
func (c *Coordinator) Abandon(fp uint64) {
	c.Commit(fp)
}

// LastMiss reports the last time fp's slot (or whichever fingerprint last
// collided into it) transitioned to pending, for diagnostics.
func (c *Coordinator) LastMiss(fp uint64) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.slots[c.index(fp)]
	return s.lastMissTime, s.state == pending
}
