package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kfabryczny/ybc/pkg/errors"
	"github.com/kfabryczny/ybc/pkg/options"
	"github.com/kfabryczny/ybc/pkg/ybc"
)

func cmdGet(ctx context.Context, out, errOut io.Writer, args []string) int {
	fs, indexFile, dataFile, key := newCommonFlags("get")
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

	item, err := cache.Get(ctx, []byte(*key))
	if err != nil {
		if err == errors.ErrMiss {
			fmt.Fprintln(out, "(miss)")
			return 0
		}
		fmt.Fprintln(errOut, "error: get:", err)
		return 1
	}
	defer item.Release()

	fmt.Fprintln(out, string(item.Value()))
	return 0
}
