// Package archive names and writes the forensic snapshots the index package
// produces when it resets a corrupted index file (SPEC_FULL.md §4.H). It
// generalizes the host project's segment-rotation naming convention
// (pkg/seginfo, "prefix_NNNNN_timestamp.seg") from rotating log segments to
// one-shot corruption archives ("prefix_NNNNN_timestamp.bad"), and writes
// them atomically so a crash mid-archive never leaves a half-written file
// that could itself be mistaken for evidence.
package archive

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/kfabryczny/ybc/pkg/errors"
	"github.com/kfabryczny/ybc/pkg/filesys"
)

const extension = ".bad"

// NextName returns the next properly formatted archive filename for prefix
// in dir, consulting existing archives to pick a non-colliding sequence
// number. Format: prefix_NNNNN_timestamp.bad.
func NextName(dir, prefix string) (string, error) {
	last, err := lastID(dir, prefix)
	if err != nil {
		return "", err
	}
	return GenerateName(last+1, prefix), nil
}

// GenerateName formats an archive filename for the given sequence id.
func GenerateName(id uint64, prefix string) string {
	if prefix == "" {
		prefix = "corrupt-index"
	}
	return fmt.Sprintf("%s_%05d_%d%s", prefix, id, time.Now().UnixNano(), extension)
}

// Write atomically writes contents to dir/name, creating dir if necessary.
func Write(dir, name string, contents []byte) (string, error) {
	if err := filesys.CreateDir(dir, 0755, true); err != nil {
		return "", errors.ClassifyDirectoryCreationError(err, dir)
	}
	path := filepath.Join(dir, name)
	if err := atomic.WriteFile(path, bytes.NewReader(contents)); err != nil {
		return "", err
	}
	return path, nil
}

func lastID(dir, prefix string) (uint64, error) {
	pattern := filepath.Join(dir, prefix+"*"+extension)
	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}
	slices.Sort(matches)
	id, err := ParseID(matches[len(matches)-1], prefix)
	if err != nil {
		return 0, nil // an unparsable prior archive should never block new ones
	}
	return id, nil
}

// ParseID extracts the sequence id from an archive filename produced by
// GenerateName.
func ParseID(fullPath, prefix string) (uint64, error) {
	_, name := filepath.Split(fullPath)
	if prefix == "" {
		prefix = "corrupt-index"
	}
	if !strings.HasPrefix(name, prefix) {
		return 0, fmt.Errorf("archive: filename %s does not start with prefix %s", name, prefix)
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, prefix), extension)
	parts := strings.Split(rest, "_")
	if len(parts) < 3 {
		return 0, fmt.Errorf("archive: filename %s has unexpected format", name)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("archive: failed to parse id from %s: %w", name, err)
	}
	return id, nil
}

// Exists reports whether path exists, via pkg/filesys.
func Exists(path string) (bool, error) {
	return filesys.Exists(path)
}

// Prune removes all but the keep newest archives matching prefix in dir,
// keeping corruption snapshots from accumulating without bound on a cache
// instance that corrupts and recovers repeatedly. keep <= 0 is a no-op.
func Prune(dir, prefix string, keep int) error {
	if keep <= 0 {
		return nil
	}
	found, err := filesys.SearchFileExtensions(dir, nil, extension)
	if err != nil {
		return err
	}

	matches := found[:0]
	for _, path := range found {
		if strings.HasPrefix(filepath.Base(path), prefix) {
			matches = append(matches, path)
		}
	}
	if len(matches) <= keep {
		return nil
	}
	slices.Sort(matches)

	for _, path := range matches[:len(matches)-keep] {
		if err := filesys.DeleteFile(path); err != nil {
			return err
		}
	}
	return nil
}
