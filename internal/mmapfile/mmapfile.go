// Package mmapfile opens, creates, and maps the two files a cache instance
// owns: the index file and the data file. It generalizes the mmap pattern
// from SnellerInc's ion/blockfmt/mmap_linux.go (a bare syscall.Mmap/Munmap
// pair) to the portable golang.org/x/sys/unix wrapper, and borrows the
// advisory-lock retry loop from calvinalkan-agent-task's lock.go to detect a
// second process opening the same persistent cache for read-write.
package mmapfile

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kfabryczny/ybc/pkg/errors"
)

// File is a memory-mapped, fixed-size region backed either by a named file
// on disk or by an anonymous (unlinked) mapping.
type File struct {
	path   string
	fd     *os.File // nil for anonymous mappings
	bytes  []byte
	locked bool
}

// Open maps size bytes of path. If path is empty, an anonymous MAP_PRIVATE
// mapping is created instead and discarded at Close. If path is non-empty
// and does not exist, it is created (truncated to size) only when force is
// true; otherwise Open fails with errors.ErrNoSuchCache.
func Open(path string, size int64, force bool) (*File, error) {
	if path == "" {
		return openAnonymous(size)
	}

	fd, existed, err := openNamed(path, size, force)
	if err != nil {
		return nil, err
	}

	locked := tryLock(fd)

	data, err := unix.Mmap(int(fd.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		fd.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeMmapFailed, "mmap failed").
			WithPath(path)
	}

	if !existed {
		// Freshly created file: zero the view explicitly even though a
		// freshly truncated file already reads as zero, so callers never
		// depend on an implicit filesystem guarantee.
		for i := range data {
			data[i] = 0
		}
	}

	return &File{path: path, fd: fd, bytes: data, locked: locked}, nil
}

func openNamed(path string, size int64, force bool) (*os.File, bool, error) {
	_, statErr := os.Stat(path)
	existed := statErr == nil
	if !existed && !force {
		return nil, false, errors.ErrNoSuchCache
	}

	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, false, errors.ClassifyFileOpenError(err, path, path)
	}

	if !existed {
		if err := fd.Truncate(size); err != nil {
			fd.Close()
			return nil, false, errors.NewStorageError(err, errors.ErrorCodeIO, "truncate failed").WithPath(path)
		}
	} else {
		info, err := fd.Stat()
		if err != nil {
			fd.Close()
			return nil, false, errors.NewStorageError(err, errors.ErrorCodeIO, "stat failed").WithPath(path)
		}
		if info.Size() != size {
			if err := fd.Truncate(size); err != nil {
				fd.Close()
				return nil, false, errors.NewStorageError(err, errors.ErrorCodeIO, "resize failed").WithPath(path)
			}
		}
	}

	return fd, existed, nil
}

func openAnonymous(size int64) (*File, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeMmapFailed, "anonymous mmap failed")
	}
	return &File{bytes: data}, nil
}

// tryLock attempts a non-blocking advisory exclusive lock on fd, retrying
// briefly in the style of calvinalkan-agent-task's acquireLockWithTimeout.
// Failure to lock is never fatal and is not reported: Open proceeds without
// the lock. The YBC model only promises single-process semantics, so this is
// not a correctness mechanism.
func tryLock(fd *os.File) bool {
	deadline := time.Now().Add(200 * time.Millisecond)
	for {
		err := unix.Flock(int(fd.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Bytes returns the mapped region. Callers must not retain slices derived
// from it past Close.
func (f *File) Bytes() []byte { return f.bytes }

// Sync flushes the mapped range [begin, end) to the backing file. It is a
// no-op for anonymous mappings.
func (f *File) Sync(begin, end int) error {
	if f.fd == nil || len(f.bytes) == 0 {
		return nil
	}
	if begin < 0 {
		begin = 0
	}
	if end > len(f.bytes) {
		end = len(f.bytes)
	}
	if begin >= end {
		return nil
	}
	if err := unix.Msync(f.bytes[begin:end], unix.MS_ASYNC); err != nil {
		return errors.ClassifySyncError(err, f.path, f.path, begin)
	}
	return nil
}

// Close unmaps the region and, for named files, releases the advisory lock
// and closes the descriptor.
func (f *File) Close() error {
	var err error
	if len(f.bytes) > 0 {
		err = unix.Munmap(f.bytes)
		f.bytes = nil
	}
	if f.fd != nil {
		if f.locked {
			unix.Flock(int(f.fd.Fd()), unix.LOCK_UN)
		}
		if cerr := f.fd.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Remove deletes the backing file at path, if any. It does not touch any
// open mapping; a missing file is not an error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove file").WithPath(path)
	}
	return nil
}
