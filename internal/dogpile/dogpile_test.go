package dogpile_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kfabryczny/ybc/internal/dogpile"
)

// Testable property 8: the first Probe on a fingerprint returns Compute; any
// subsequent Probe on the same fingerprint before Commit/Abandon returns
// Wait, regardless of how many times it is called or from which goroutine.
func Test_Probe_First_Caller_Computes_Rest_Wait(t *testing.T) {
	t.Parallel()

	c := dogpile.New(64)
	const fp = uint64(42)

	require.Equal(t, dogpile.Compute, c.Probe(fp))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.Equal(t, dogpile.Wait, c.Probe(fp))
		}()
	}
	wg.Wait()
}

func Test_Commit_Clears_The_Slot_For_Reprobing(t *testing.T) {
	t.Parallel()

	c := dogpile.New(64)
	const fp = uint64(7)

	require.Equal(t, dogpile.Compute, c.Probe(fp))
	require.Equal(t, dogpile.Wait, c.Probe(fp))

	c.Commit(fp)
	require.Equal(t, dogpile.Compute, c.Probe(fp), "after Commit, the next prober should win the race again")
}

func Test_Abandon_Clears_The_Slot_Like_Commit(t *testing.T) {
	t.Parallel()

	c := dogpile.New(64)
	const fp = uint64(9)

	require.Equal(t, dogpile.Compute, c.Probe(fp))
	c.Abandon(fp)
	require.Equal(t, dogpile.Compute, c.Probe(fp))
}

func Test_WaitForCommit_Returns_Once_Committed(t *testing.T) {
	t.Parallel()

	c := dogpile.New(64)
	const fp = uint64(1)
	require.Equal(t, dogpile.Compute, c.Probe(fp))

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Commit(fp)
	}()

	start := time.Now()
	err := c.WaitForCommit(context.Background(), fp, time.Second)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func Test_WaitForCommit_Times_Out_At_GraceTTL(t *testing.T) {
	t.Parallel()

	c := dogpile.New(64)
	const fp = uint64(2)
	require.Equal(t, dogpile.Compute, c.Probe(fp))

	start := time.Now()
	err := c.WaitForCommit(context.Background(), fp, 50*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err, "a grace-ttl timeout is not an error; the caller simply re-probes")
	require.Less(t, elapsed, 500*time.Millisecond)
}

func Test_WaitForCommit_Returns_Context_Error_On_Cancellation(t *testing.T) {
	t.Parallel()

	c := dogpile.New(64)
	const fp = uint64(3)
	require.Equal(t, dogpile.Compute, c.Probe(fp))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := c.WaitForCommit(ctx, fp, time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

// Collisions merge pending markers: two unrelated fingerprints sharing a slot
// serialize each other, which is benign per SPEC_FULL.md §4.G.
func Test_Colliding_Fingerprints_Share_A_Slot(t *testing.T) {
	t.Parallel()

	c := dogpile.New(1) // force every fingerprint into slot 0
	require.Equal(t, dogpile.Compute, c.Probe(10))
	require.Equal(t, dogpile.Wait, c.Probe(20), "a different fingerprint landing on the same slot must also wait")
}
