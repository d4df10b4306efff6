package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kfabryczny/ybc/pkg/filesys"
)

// cmdBackup copies a cache's index and data files into a destination
// directory. The files are plain mmap-backed files, so a cold copy (taken
// while the owning process is not actively writing) is a valid point-in-time
// snapshot — no special serialization is needed.
func cmdBackup(_ context.Context, out, errOut io.Writer, args []string) int {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	indexFile := fs.String("index", "", "path to the index file")
	dataFile := fs.String("data", "", "path to the data file")
	toDir := fs.String("to", "", "destination directory for the backup")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if *indexFile == "" || *dataFile == "" || *toDir == "" {
		fmt.Fprintln(errOut, "error: --index, --data, and --to are all required")
		return 1
	}

	if err := filesys.CreateDir(*toDir, 0755, true); err != nil {
		fmt.Fprintln(errOut, "error: creating backup directory:", err)
		return 1
	}

	for _, src := range []string{*indexFile, *dataFile} {
		exists, err := filesys.Exists(src)
		if err != nil {
			fmt.Fprintln(errOut, "error: checking", src, ":", err)
			return 1
		}
		if !exists {
			fmt.Fprintln(errOut, "error: no such file:", src)
			return 1
		}
		dst := filepath.Join(*toDir, filepath.Base(src))
		if err := filesys.CopyFile(src, dst); err != nil {
			fmt.Fprintln(errOut, "error: copying", src, "to", dst, ":", err)
			return 1
		}
	}

	fmt.Fprintln(out, "ok")
	return 0
}
