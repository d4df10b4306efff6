// Package options provides data structures and functions for configuring
// the ybc cache engine. It defines the eight core configuration knobs the
// engine exposes — index/data file paths, capacity, hot-cache tuning, the
// dogpile coordinator's table size, and the background sync interval — plus
// DataDir and MaxArchives, each with a
// validate-and-clamp functional option in the style WithSegmentSize used in
// the host project's original configuration surface.
package options

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sigs.k8s.io/yaml"
)

// Options defines the configuration parameters for a single ybc cache instance.
type Options struct {
	// DataDir anchors relative IndexFile/DataFile paths. It has no effect once
	// IndexFile/DataFile are both absolute or both empty (anonymous cache).
	DataDir string `json:"dataDir"`

	// IndexFile is the path to the persistent index file. Empty means an
	// anonymous (unlinked) mapping that is discarded at Close.
	IndexFile string `json:"indexFile"`

	// DataFile is the path to the persistent data file. Empty means an
	// anonymous (unlinked) mapping that is discarded at Close.
	DataFile string `json:"dataFile"`

	// MaxItemsCount is the index slot count, rounded up to a power of two.
	MaxItemsCount uint64 `json:"maxItemsCount"`

	// DataFileSize is the size in bytes of the circular data arena.
	DataFileSize uint64 `json:"dataFileSize"`

	// HotItemsCount caps the hot-cache fingerprint set; 0 disables it.
	HotItemsCount uint64 `json:"hotItemsCount"`

	// HotDataSize caps the hot-cache's resident bytes; 0 disables compaction.
	HotDataSize uint64 `json:"hotDataSize"`

	// DEHashtableSize is the slot count for the dogpile-effect coordinator.
	DEHashtableSize uint64 `json:"deHashtableSize"`

	// SyncInterval is the background flush period; 0 disables syncing.
	SyncInterval time.Duration `json:"syncInterval"`

	// MaxArchives caps how many corrupt-index snapshots accumulate under
	// ArchiveDir before the oldest are pruned; 0 disables pruning (keep all).
	MaxArchives int `json:"maxArchives"`
}

// OptionFunc is a function type that modifies the cache's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions resets the Options struct to the package defaults.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the base directory used to resolve relative file paths.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithIndexFile sets the persistent index file path. An empty path (the
// zero value) keeps the cache anonymous.
func WithIndexFile(path string) OptionFunc {
	return func(o *Options) {
		o.IndexFile = strings.TrimSpace(path)
	}
}

// WithDataFile sets the persistent data file path. An empty path (the zero
// value) keeps the cache anonymous.
func WithDataFile(path string) OptionFunc {
	return func(o *Options) {
		o.DataFile = strings.TrimSpace(path)
	}
}

// WithMaxItemsCount sets the index slot count.
func WithMaxItemsCount(count uint64) OptionFunc {
	return func(o *Options) {
		if count >= MinMaxItemsCount && count <= MaxMaxItemsCount {
			o.MaxItemsCount = count
		}
	}
}

// WithDataFileSize sets the size of the circular data arena.
func WithDataFileSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size >= MinDataFileSize && size <= MaxDataFileSize {
			o.DataFileSize = size
		}
	}
}

// WithHotItemsCount sets the hot-cache fingerprint-set cap. 0 disables the
// hot-cache set entirely.
func WithHotItemsCount(count uint64) OptionFunc {
	return func(o *Options) {
		o.HotItemsCount = count
	}
}

// WithHotDataSize sets the hot-cache byte budget. 0 disables compaction.
func WithHotDataSize(size uint64) OptionFunc {
	return func(o *Options) {
		o.HotDataSize = size
	}
}

// WithDEHashtableSize sets the dogpile-effect coordinator's table size.
func WithDEHashtableSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.DEHashtableSize = size
		}
	}
}

// WithSyncInterval sets the background flush period. 0 disables syncing.
func WithSyncInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval >= 0 {
			o.SyncInterval = interval
		}
	}
}

// WithMaxArchives sets how many corrupt-index snapshots are retained under
// ArchiveDir before the oldest are pruned. A negative value is ignored.
func WithMaxArchives(count int) OptionFunc {
	return func(o *Options) {
		if count >= 0 {
			o.MaxArchives = count
		}
	}
}

// LoadFromYAML parses raw, the contents of a declarative configuration file
// (path is used only in error messages; the file is not read here), and
// merges it over the package defaults, so a deployment can check in a YAML file instead of (or
// alongside) code-based functional options. Both paths converge on the same
// Options struct.
func LoadFromYAML(path string, raw []byte) (Options, error) {
	opts := NewDefaultOptions()
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return Options{}, fmt.Errorf("options: failed to parse %s: %w", path, err)
	}
	return opts, nil
}

// UnmarshalJSON lets syncInterval be written either as a Go duration string
// ("5s", "500ms") or a bare number of nanoseconds; sigs.k8s.io/yaml converts
// YAML to JSON before this runs, so both styles work from a YAML config file
// too. All other fields unmarshal via the ordinary struct tags.
func (o *Options) UnmarshalJSON(data []byte) error {
	type alias Options
	aux := &struct {
		SyncInterval json.RawMessage `json:"syncInterval"`
		*alias
	}{alias: (*alias)(o)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.SyncInterval) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(aux.SyncInterval, &s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("options: invalid syncInterval %q: %w", s, err)
		}
		o.SyncInterval = d
		return nil
	}

	var nanos int64
	if err := json.Unmarshal(aux.SyncInterval, &nanos); err != nil {
		return fmt.Errorf("options: invalid syncInterval: %w", err)
	}
	o.SyncInterval = time.Duration(nanos)
	return nil
}
