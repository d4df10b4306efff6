package options_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/kfabryczny/ybc/pkg/options"
)

func Test_NewDefaultOptions_Matches_Package_Defaults(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	require.Equal(t, options.DefaultMaxItemsCount, o.MaxItemsCount)
	require.Equal(t, options.DefaultDataFileSize, o.DataFileSize)
	require.Equal(t, options.DefaultHotItemsCount, o.HotItemsCount)
	require.Equal(t, options.DefaultHotDataSize, o.HotDataSize)
	require.Equal(t, options.DefaultDEHashtableSize, o.DEHashtableSize)
	require.Equal(t, options.DefaultSyncInterval, o.SyncInterval)
}

func Test_WithMaxItemsCount_Rejects_Out_Of_Range_Values(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	before := o.MaxItemsCount

	options.WithMaxItemsCount(0)(&o)
	require.Equal(t, before, o.MaxItemsCount, "too-small a value must be ignored, not silently clamped to zero")

	options.WithMaxItemsCount(options.MaxMaxItemsCount + 1)(&o)
	require.Equal(t, before, o.MaxItemsCount)

	options.WithMaxItemsCount(1024)(&o)
	require.Equal(t, uint64(1024), o.MaxItemsCount)
}

func Test_WithDataFileSize_Rejects_Out_Of_Range_Values(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	before := o.DataFileSize

	options.WithDataFileSize(1)(&o)
	require.Equal(t, before, o.DataFileSize)

	options.WithDataFileSize(1 << 20)(&o)
	require.Equal(t, uint64(1<<20), o.DataFileSize)
}

// HotItemsCount == 0 and HotDataSize == 0 disable their respective
// mechanisms; the option setters must not reject zero.
func Test_WithHotItemsCount_And_HotDataSize_Accept_Zero_To_Disable(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	options.WithHotItemsCount(0)(&o)
	options.WithHotDataSize(0)(&o)
	require.Zero(t, o.HotItemsCount)
	require.Zero(t, o.HotDataSize)
}

// SyncInterval == 0 disables background syncing.
func Test_WithSyncInterval_Accepts_Zero_To_Disable(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	options.WithSyncInterval(0)(&o)
	require.Zero(t, o.SyncInterval)
}

func Test_WithSyncInterval_Rejects_Negative(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	before := o.SyncInterval
	options.WithSyncInterval(-time.Second)(&o)
	require.Equal(t, before, o.SyncInterval)
}

func Test_WithIndexFile_And_DataFile_Trim_Whitespace(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	options.WithIndexFile("  myindex  ")(&o)
	options.WithDataFile("  mydata  ")(&o)
	require.Equal(t, "myindex", o.IndexFile)
	require.Equal(t, "mydata", o.DataFile)
}

func Test_WithDefaultOptions_Resets_Prior_Overrides(t *testing.T) {
	t.Parallel()

	o := options.NewDefaultOptions()
	options.WithMaxItemsCount(99999999)(&o)
	options.WithDefaultOptions()(&o)
	require.Equal(t, options.DefaultMaxItemsCount, o.MaxItemsCount)
}

func Test_LoadFromYAML_Overrides_Defaults(t *testing.T) {
	t.Parallel()

	raw := []byte(`
maxItemsCount: 4096
dataFileSize: 1048576
syncInterval: 5s
`)
	o, err := options.LoadFromYAML("config.yaml", raw)
	require.NoError(t, err)
	require.Equal(t, uint64(4096), o.MaxItemsCount)
	require.Equal(t, uint64(1048576), o.DataFileSize)
	require.Equal(t, 5*time.Second, o.SyncInterval)
	// Unspecified fields keep their package defaults.
	require.Equal(t, options.DefaultHotItemsCount, o.HotItemsCount)
}

func Test_LoadFromYAML_Rejects_Malformed_Input(t *testing.T) {
	t.Parallel()

	_, err := options.LoadFromYAML("config.yaml", []byte("not: [valid: yaml"))
	require.Error(t, err)
}

// A config loaded from YAML and the equivalent built from functional options
// must converge on the same Options value field-for-field, not just agree on
// the handful of fields the other tests spot-check.
func Test_LoadFromYAML_Matches_Equivalent_Functional_Options(t *testing.T) {
	t.Parallel()

	raw := []byte(`
maxItemsCount: 4096
dataFileSize: 1048576
syncInterval: 5s
`)
	fromYAML, err := options.LoadFromYAML("config.yaml", raw)
	require.NoError(t, err)

	fromFuncs := options.NewDefaultOptions()
	options.WithMaxItemsCount(4096)(&fromFuncs)
	options.WithDataFileSize(1048576)(&fromFuncs)
	options.WithSyncInterval(5 * time.Second)(&fromFuncs)

	if diff := cmp.Diff(fromFuncs, fromYAML); diff != "" {
		t.Fatalf("functional-options and YAML configuration diverged (-functional +yaml):\n%s", diff)
	}
}
