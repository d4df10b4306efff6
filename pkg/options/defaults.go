package options

import "time"

const (
	// DefaultDataDir is the base directory used to resolve relative IndexFile/
	// DataFile paths when neither is supplied as an absolute path.
	DefaultDataDir = "/var/lib/ybc"

	// DefaultMaxItemsCount is the default index slot count before rounding up
	// to the next power of two.
	DefaultMaxItemsCount uint64 = 1 << 16

	// MinMaxItemsCount is the smallest accepted slot count.
	MinMaxItemsCount uint64 = 1 << 4

	// MaxMaxItemsCount guards against a slot count that would make the index
	// file larger than any reasonable single mapping.
	MaxMaxItemsCount uint64 = 1 << 32

	// DefaultDataFileSize is the default size of the circular data arena (64MiB).
	DefaultDataFileSize uint64 = 64 * 1024 * 1024

	// MinDataFileSize is the smallest accepted data file size.
	MinDataFileSize uint64 = 4 * 1024

	// MaxDataFileSize guards against requesting a single mapping larger than
	// this module is willing to implicitly claim support for (1TiB).
	MaxDataFileSize uint64 = 1 << 40

	// DefaultHotItemsCount is the default hot-cache fingerprint-set cap.
	DefaultHotItemsCount uint64 = 1024

	// DefaultHotDataSize is the default hot-cache byte budget (4MiB).
	DefaultHotDataSize uint64 = 4 * 1024 * 1024

	// DefaultDEHashtableSize is the default dogpile-effect coordinator table size.
	DefaultDEHashtableSize uint64 = 1024

	// DefaultSyncInterval is the default background-flush period.
	DefaultSyncInterval = 10 * time.Second

	// DefaultProbeWindow bounds linear-probe cost on insert/lookup. It is not
	// exposed as a tunable (see SPEC_FULL.md §11): the distilled spec leaves
	// it an internal constant rather than a guessed parameter.
	DefaultProbeWindow = 16

	// DefaultMaxArchives is the default number of corrupt-index snapshots
	// retained under ArchiveDir before the oldest are pruned.
	DefaultMaxArchives = 10
)

// defaultOptions holds the baseline configuration for a new cache instance.
// Leaving IndexFile/DataFile empty selects anonymous (unlinked) mappings.
var defaultOptions = Options{
	DataDir:         DefaultDataDir,
	MaxItemsCount:   DefaultMaxItemsCount,
	DataFileSize:    DefaultDataFileSize,
	HotItemsCount:   DefaultHotItemsCount,
	HotDataSize:     DefaultHotDataSize,
	DEHashtableSize: DefaultDEHashtableSize,
	SyncInterval:    DefaultSyncInterval,
	MaxArchives:     DefaultMaxArchives,
}

// NewDefaultOptions returns a fresh copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
