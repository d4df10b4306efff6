// Package filesys provides the small set of filesystem primitives the rest
// of ybc needs: creating a cache's data directory, finding and pruning
// corrupt-index archives by extension, copying files for ybcctl backup, and
// plain existence checks.
package filesys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at the specified path with the given permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	// Get file information for the given path.
	stat, err := os.Stat(dirPath)
	switch {
	case err == nil:
		// Path exists: without force that's an error; with force it's fine
		// as long as it's actually a directory.
		if !stat.IsDir() {
			return ErrIsNotDir
		}
		if !force {
			return os.ErrExist
		}
	case !os.IsNotExist(err):
		// Some other stat failure (permission denied, etc).
		return err
	}

	// Create all necessary parent directories if they don't exist, with the specified permissions.
	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	// Set the directory's permissions to the requested value.
	return os.Chmod(dirPath, permission)
}

// ReadDir reads the directory specified by `dirName` and returns a list of matching file paths.
// It uses `filepath.Glob` which means `dirName` can contain glob patterns (e.g., "mydir/*.txt").
func ReadDir(dirName string) ([]string, error) {
	files, err := filepath.Glob(dirName)
	return files, err
}

// DeleteFile deletes the file at the specified `filePath`.
// It returns an error if the file cannot be removed.
func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}

// CopyFile copies a single file from `sourcePath` to `destPath`.
// It reads the entire content of the source file into memory and then writes it to the destination.
// The destination file will have default permissions (0644).
func CopyFile(sourcePath, destPath string) error {
	// Read the entire content of the source file.
	input, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	// Write the content to the destination file with permissions 0644 (rw-r--r--).
	return os.WriteFile(destPath, input, 0644)
}

// SearchFileExtensions searches for files with a specific `extension` within `sourceDir`.
// It excludes directories listed in `excludeDirs` from the search.
// It returns a slice of full paths to the found files.
func SearchFileExtensions(sourceDir string, excludeDirs []string, extension string) ([]string, error) {
	files := make([]string, 0) // Initialize an empty slice to store found file paths.

	// Walk the directory tree rooted at `sourceDir`.
	if err := filepath.WalkDir(sourceDir, fs.WalkDirFunc(func(path string, ds fs.DirEntry, err error) error {
		// If an error occurred during walking, return it.
		if err != nil {
			return err
		}

		// Check if the current entry is a regular file, not within an excluded directory,
		// and its extension matches the `extension`.
		if !ds.IsDir() && !isAncestor(excludeDirs, path) && filepath.Ext(path) == extension {
			files = append(files, path) // Add the file path to the results.
		}
		return nil
	})); err != nil {
		return nil, err
	}

	return files, nil
}

// Exists checks if a file or directory at the given `file` path exists.
// It returns true if the file/directory exists, false if it does not,
// and an error if there's any other issue checking its status.
func Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil // Path exists.
	}
	// If the error indicates that the file does not exist, return false.
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// isAncestor checks if any of the `excludeDirs` are ancestors (or part of the path) of `path`.
// It returns true if `path` contains any of the `excludeDirs` as a substring, false otherwise.
func isAncestor(excludeDirs []string, path string) bool {
	for _, excludeDir := range excludeDirs {
		if strings.Contains(path, excludeDir) {
			return true
		}
	}
	return false
}
