package cluster_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kfabryczny/ybc/internal/cluster"
	"github.com/kfabryczny/ybc/pkg/options"
)

func members(t *testing.T, n int) []options.Options {
	t.Helper()
	dir := t.TempDir()
	out := make([]options.Options, n)
	for i := range out {
		o := options.NewDefaultOptions()
		o.DataDir = dir
		o.IndexFile = fmt.Sprintf("index-%d", i)
		o.DataFile = fmt.Sprintf("data-%d", i)
		o.MaxItemsCount = 16
		o.DataFileSize = 1 << 16
		out[i] = o
	}
	return out
}

// Testable property 7: every key deterministically routes to the same member
// across repeated calls.
func Test_GetCache_Routes_Deterministically(t *testing.T) {
	t.Parallel()

	c, err := cluster.Open(context.Background(), cluster.Config{PerMember: members(t, 4), Force: true})
	require.NoError(t, err)
	defer c.Close()

	key := []byte("some-routed-key")
	first := c.GetCache(key)
	for i := 0; i < 50; i++ {
		require.Same(t, first, c.GetCache(key))
	}
}

func Test_GetCache_Distributes_Across_Members(t *testing.T) {
	t.Parallel()

	c, err := cluster.Open(context.Background(), cluster.Config{PerMember: members(t, 4), Force: true})
	require.NoError(t, err)
	defer c.Close()

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		m := c.GetCache([]byte(fmt.Sprintf("key-%d", i)))
		seen[m.ID] = true
	}
	require.Greater(t, len(seen), 1, "200 distinct keys should not all land on a single member")
}

// Open is all-or-nothing: a member that cannot open under force=false must
// cause the whole cluster open to fail, and already-opened members must not
// leak their mappings.
func Test_Open_Is_All_Or_Nothing(t *testing.T) {
	t.Parallel()

	opts := members(t, 3)

	// Create the first two members' backing files by opening and closing
	// once under Force, leaving the third member's files never created.
	warm, err := cluster.Open(context.Background(), cluster.Config{PerMember: opts[:2], Force: true})
	require.NoError(t, err)
	require.NoError(t, warm.Close())

	opts[2].IndexFile = filepath.Join("does-not-exist", "index")

	_, err = cluster.Open(context.Background(), cluster.Config{PerMember: opts, Force: false})
	require.Error(t, err, "a member that cannot open without Force must fail the whole cluster open")
}

func Test_Open_Rejects_Empty_Member_List(t *testing.T) {
	t.Parallel()

	_, err := cluster.Open(context.Background(), cluster.Config{PerMember: nil, Force: true})
	require.Error(t, err)
}

func Test_Clear_And_Close_Fan_Out_To_Every_Member(t *testing.T) {
	t.Parallel()

	c, err := cluster.Open(context.Background(), cluster.Config{PerMember: members(t, 3), Force: true})
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	require.NoError(t, c.Clear())
	require.NoError(t, c.Close())
}
