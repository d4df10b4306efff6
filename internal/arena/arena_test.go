package arena_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kfabryczny/ybc/internal/arena"
	"github.com/kfabryczny/ybc/pkg/errors"
)

func open(t *testing.T, size uint64) *arena.Arena {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data")
	a, err := arena.Open(arena.Config{Path: path, Size: size, Force: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func Test_Reserve_Advances_Cursor_By_N(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	r, err := a.Reserve(10)
	require.NoError(t, err)
	require.Equal(t, uint64(0), r.Cursor())
	require.Equal(t, uint64(10), a.Cursor())
}

func Test_Reserve_Writes_Are_Readable_Via_Resolve(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	r, err := a.Reserve(5)
	require.NoError(t, err)
	copy(r.Bytes(), "hello")
	r.Commit()

	got := a.Resolve(r.Cursor(), 5)
	require.Equal(t, "hello", string(got))
}

func Test_Reserve_Rejects_Zero_Length(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	_, err := a.Reserve(0)
	require.ErrorIs(t, err, errors.ErrBadSize)
}

func Test_Reserve_Rejects_Oversized_Request(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	_, err := a.Reserve(65)
	require.ErrorIs(t, err, errors.ErrNoRoom)
}

func Test_Reserve_Wraps_Around_The_End_Of_Region(t *testing.T) {
	t.Parallel()

	a := open(t, 16)

	_, err := a.Reserve(12)
	require.NoError(t, err)

	r2, err := a.Reserve(8) // straddles byte 16, the physical end-of-file
	require.NoError(t, err)
	copy(r2.Bytes(), "wraparnd")
	r2.Commit()

	got := a.Resolve(r2.Cursor(), 8)
	require.Equal(t, "wraparnd", string(got))
}

func Test_Reserve_Refuses_To_Overwrite_A_Live_Pin(t *testing.T) {
	t.Parallel()

	a := open(t, 16)

	r1, err := a.Reserve(8)
	require.NoError(t, err)
	pinID := a.Pin(r1.Cursor(), r1.Cursor()+8)

	// Reserving enough to wrap back over the pinned range must fail.
	_, err = a.Reserve(16)
	require.ErrorIs(t, err, errors.ErrNoRoom)

	a.Release(pinID)

	// With the pin gone, the same reservation should now succeed.
	_, err = a.Reserve(16)
	require.NoError(t, err)
}

func Test_Pin_And_Release_Track_PinCount(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	require.Equal(t, 0, a.PinCount())

	id := a.Pin(0, 8)
	require.Equal(t, 1, a.PinCount())

	a.Release(id)
	require.Equal(t, 0, a.PinCount())
}

func Test_Release_Of_Unknown_Pin_Is_A_No_Op(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	a.Release(9999)
	require.Equal(t, 0, a.PinCount())
}

func Test_Reset_Rewinds_Cursor_To_Zero(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	_, err := a.Reserve(40)
	require.NoError(t, err)
	require.Equal(t, uint64(40), a.Cursor())

	a.Reset()
	require.Equal(t, uint64(0), a.Cursor())
}

func Test_Reset_Drops_Live_Pins(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	a.Pin(0, 8)
	require.Equal(t, 1, a.PinCount())

	a.Reset()
	require.Equal(t, 0, a.PinCount())
}

func Test_Reset_Allows_A_Full_Size_Reservation_Again(t *testing.T) {
	t.Parallel()

	a := open(t, 64)
	_, err := a.Reserve(60)
	require.NoError(t, err)

	a.Reset()
	r, err := a.Reserve(64)
	require.NoError(t, err)
	require.Equal(t, uint64(0), r.Cursor())
}
