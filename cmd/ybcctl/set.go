package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kfabryczny/ybc/pkg/options"
	"github.com/kfabryczny/ybc/pkg/ybc"
)

func cmdSet(ctx context.Context, out, errOut io.Writer, args []string) int {
	fs, indexFile, dataFile, key := newCommonFlags("set")
	value := fs.String("value", "", "value to store")
	ttl := fs.Duration("ttl", 0, "expiration (0 means never)")
	maxItems := fs.Uint64("max-items", options.DefaultMaxItemsCount, "index slot count for a newly created cache")
	dataSize := fs.Uint64("data-size", options.DefaultDataFileSize, "data region size for a newly created cache")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	if *key == "" {
		fmt.Fprintln(errOut, "error: --key is required")
		return 1
	}

	cache, err := ybc.Open(ctx, "ybcctl", true,
		options.WithIndexFile(*indexFile), options.WithDataFile(*dataFile),
		options.WithMaxItemsCount(*maxItems), options.WithDataFileSize(*dataSize))
	if err != nil {
		fmt.Fprintln(errOut, "error: open:", err)
		return 1
	}
	defer cache.Close()

	if err := cache.Set([]byte(*key), []byte(*value), *ttl); err != nil {
		fmt.Fprintln(errOut, "error: set:", err)
		return 1
	}

	fmt.Fprintln(out, "ok")
	return 0
}
