package main

import (
	"fmt"
	"os"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  prose run <file.prose> [args]")
	fmt.Fprintln(os.Stderr, "  prose run            (uses the entry from prose.yml)")
	fmt.Fprintln(os.Stderr, "  prose <file.prose> [args]")
	fmt.Fprintln(os.Stderr, "  prose check [file.prose]")
	fmt.Fprintln(os.Stderr, "  prose build [-o dir] [file.prose]")
	fmt.Fprintln(os.Stderr, "  prose repl")
	fmt.Fprintln(os.Stderr, "  prose deps")
}
