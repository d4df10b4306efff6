package ybc_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kfabryczny/ybc/pkg/options"
	"github.com/kfabryczny/ybc/pkg/ybc"
)

func open(t *testing.T, mutate func(*options.Options)) *ybc.Cache {
	t.Helper()
	o := options.NewDefaultOptions()
	o.DataDir = t.TempDir()
	o.IndexFile = "index"
	o.DataFile = "data"
	o.MaxItemsCount = 64
	o.DataFileSize = 1 << 16
	if mutate != nil {
		mutate(&o)
	}
	c, err := ybc.Open(context.Background(), "ybc_test", true, func(opts *options.Options) { *opts = o })
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Testable property 6: SimpleGet returns BufferTooSmall iff the caller's
// buffer is smaller than the stored value, reporting the needed size.
func Test_SimpleGet_Reports_Hit_Miss_And_BufferTooSmall(t *testing.T) {
	t.Parallel()

	c := open(t, nil)

	_, status, err := c.SimpleGet(context.Background(), []byte("absent"), make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, ybc.Miss, status)

	require.NoError(t, c.SimpleSet([]byte("k"), []byte("hello world"), 0))

	n, status, err := c.SimpleGet(context.Background(), []byte("k"), make([]byte, 4))
	require.NoError(t, err)
	require.Equal(t, ybc.BufferTooSmall, status)
	require.Equal(t, len("hello world"), n)

	buf := make([]byte, n)
	n, status, err = c.SimpleGet(context.Background(), []byte("k"), buf)
	require.NoError(t, err)
	require.Equal(t, ybc.Hit, status)
	require.True(t, bytes.Equal([]byte("hello world"), buf[:n]))
}

func Test_Set_Then_Get_Round_Trips(t *testing.T) {
	t.Parallel()

	c := open(t, nil)
	require.NoError(t, c.Set([]byte("k"), []byte("v"), 0))

	item, err := c.Get(context.Background(), []byte("k"))
	require.NoError(t, err)
	defer item.Release()
	require.Equal(t, "v", string(item.Value()))
}

func Test_Begin_Commit_Produces_A_Readable_Entry(t *testing.T) {
	t.Parallel()

	c := open(t, nil)
	txn, err := c.Begin([]byte("k"), 5, 0)
	require.NoError(t, err)
	copy(txn.Value(), "abcde")
	require.NoError(t, txn.Commit())

	item, err := c.Get(context.Background(), []byte("k"))
	require.NoError(t, err)
	defer item.Release()
	require.Equal(t, "abcde", string(item.Value()))
}

func Test_Remove_Reports_Presence(t *testing.T) {
	t.Parallel()

	c := open(t, nil)
	require.NoError(t, c.Set([]byte("k"), []byte("v"), 0))

	removed, err := c.Remove([]byte("k"))
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = c.Remove([]byte("k"))
	require.NoError(t, err)
	require.False(t, removed)
}

func Test_Clear_Empties_The_Cache(t *testing.T) {
	t.Parallel()

	c := open(t, nil)
	require.NoError(t, c.Set([]byte("k"), []byte("v"), 0))
	require.NoError(t, c.Clear())

	_, status, err := c.SimpleGet(context.Background(), []byte("k"), make([]byte, 16))
	require.NoError(t, err)
	require.Equal(t, ybc.Miss, status)
}

func Test_GetDEAsync_Tracks_Pending_State_Through_The_Facade(t *testing.T) {
	t.Parallel()

	c := open(t, nil)

	_, result, err := c.GetDEAsync([]byte("k"), 0)
	require.NoError(t, err)
	require.Equal(t, ybc.DENotFound, result)

	_, result, err = c.GetDEAsync([]byte("k"), 0)
	require.NoError(t, err)
	require.Equal(t, ybc.DEWouldBlock, result)

	require.NoError(t, c.Set([]byte("k"), []byte("v"), 0))
	c.CommitDE([]byte("k"))

	item, result, err := c.GetDEAsync([]byte("k"), 0)
	require.NoError(t, err)
	require.Equal(t, ybc.DESuccess, result)
	defer item.Release()
	require.Equal(t, "v", string(item.Value()))
}
