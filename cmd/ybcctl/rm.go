package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kfabryczny/ybc/pkg/options"
	"github.com/kfabryczny/ybc/pkg/ybc"
)

func cmdRm(ctx context.Context, out, errOut io.Writer, args []string) int {
	fs, indexFile, dataFile, key := newCommonFlags("rm")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if *key == "" {
		fmt.Fprintln(errOut, "error: --key is required")
		return 1
	}

	cache, err := ybc.Open(ctx, "ybcctl", false,
		options.WithIndexFile(*indexFile), options.WithDataFile(*dataFile))
	if err != nil {
		fmt.Fprintln(errOut, "error: open:", err)
		return 1
	}
	defer cache.Close()

	removed, err := cache.Remove([]byte(*key))
	if err != nil {
		fmt.Fprintln(errOut, "error: rm:", err)
		return 1
	}
	if removed {
		fmt.Fprintln(out, "removed")
	} else {
		fmt.Fprintln(out, "(not found)")
	}
	return 0
}
