// Command ybcctl is a small inspection and scripting CLI over a persistent
// ybc cache: get/set/rm a single key against an on-disk index+data file pair
// without writing a Go program.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 || hasHelpFlag(args) {
		printUsage(out)
		return 0
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "get":
		return cmdGet(context.Background(), out, errOut, rest)
	case "set":
		return cmdSet(context.Background(), out, errOut, rest)
	case "rm":
		return cmdRm(context.Background(), out, errOut, rest)
	case "backup":
		return cmdBackup(context.Background(), out, errOut, rest)
	default:
		fmt.Fprintln(errOut, "error: unknown subcommand:", sub)
		printUsage(errOut)
		return 1
	}
}

func hasHelpFlag(args []string) bool {
	for _, a := range args {
		if a == "-h" || a == "--help" {
			return true
		}
	}
	return false
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: ybcctl <get|set|rm|backup> [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  get    --index=<path> --data=<path> --key=<key>")
	fmt.Fprintln(out, "  set    --index=<path> --data=<path> --key=<key> --value=<value> [--ttl=<duration>]")
	fmt.Fprintln(out, "  rm     --index=<path> --data=<path> --key=<key>")
	fmt.Fprintln(out, "  backup --index=<path> --data=<path> --to=<dir>")
}

func newCommonFlags(name string) (*flag.FlagSet, *string, *string, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	indexFile := fs.String("index", "", "path to the index file")
	dataFile := fs.String("data", "", "path to the data file")
	key := fs.String("key", "", "cache key")
	return fs, indexFile, dataFile, key
}
