package engine

import (
	"context"
	"time"

	"github.com/kfabryczny/ybc/internal/dogpile"
	"github.com/kfabryczny/ybc/pkg/errors"
	"github.com/kfabryczny/ybc/pkg/fingerprint"
)

// DEResult classifies the outcome of GetDEAsync (SPEC_FULL.md §4.G).
type DEResult int

const (
	// DESuccess means the key was found live; Item is populated.
	DESuccess DEResult = iota
	// DENotFound means the key is missing and no one else is computing it;
	// the caller has won the race and must eventually call CommitDE or
	// AbandonDE.
	DENotFound
	// DEWouldBlock means another caller is already computing this key; the
	// synchronous GetDE would have slept, but the async variant never does.
	DEWouldBlock
)

// GetDE looks up key, treating it as missing if it is absent or will expire
// within graceTTL. On a miss it checks the dogpile coordinator: if no other
// caller is already computing this fingerprint, it returns errors.ErrMiss
// immediately (the caller must compute the value and call CommitDE or
// AbandonDE). If another caller is already computing it, GetDE blocks for
// up to graceTTL waiting for that caller's commit, then re-checks the index.
func (e *Engine) GetDE(ctx context.Context, key []byte, graceTTL time.Duration) (*Item, error) {
	item, err := e.getAt(key, nowMillis()+graceTTL.Milliseconds())
	if err == nil {
		return item, nil
	}
	if err != errors.ErrMiss {
		return nil, err
	}

	fp := fingerprint.Of(e.seed, key)
	switch e.de.Probe(uint64(fp)) {
	case dogpile.Compute:
		return nil, errors.ErrMiss
	default: // dogpile.Wait
		if werr := e.de.WaitForCommit(ctx, uint64(fp), graceTTL); werr != nil {
			return nil, werr
		}
		return e.getAt(key, nowMillis()+graceTTL.Milliseconds())
	}
}

// GetDEAsync is GetDE's non-blocking counterpart: it never sleeps, instead
// reporting DEWouldBlock when another caller already owns the compute slot.
func (e *Engine) GetDEAsync(key []byte, graceTTL time.Duration) (*Item, DEResult, error) {
	item, err := e.getAt(key, nowMillis()+graceTTL.Milliseconds())
	if err == nil {
		return item, DESuccess, nil
	}
	if err != errors.ErrMiss {
		return nil, DENotFound, err
	}

	fp := fingerprint.Of(e.seed, key)
	switch e.de.Probe(uint64(fp)) {
	case dogpile.Compute:
		return nil, DENotFound, nil
	default:
		return nil, DEWouldBlock, nil
	}
}

// CommitDE clears the pending dogpile marker for key after the caller that
// won a Compute outcome has successfully installed a value (typically via a
// SetTxn.Commit/CommitItem on the same key), waking any waiters to re-probe.
func (e *Engine) CommitDE(key []byte) {
	fp := fingerprint.Of(e.seed, key)
	e.de.Commit(uint64(fp))
}

// AbandonDE clears the pending dogpile marker for key without implying a
// value was installed, e.g. after the computing caller failed. The next
// prober gets DENotFound/Compute again.
func (e *Engine) AbandonDE(key []byte) {
	fp := fingerprint.Of(e.seed, key)
	e.de.Abandon(uint64(fp))
}
