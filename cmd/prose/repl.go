package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/interp"
	"github.com/prose-lang/prose/pkg/parser"
)

func runRepl(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "prose repl does not take arguments (received %s)\n", strings.Join(args, " "))
		return 1
	}
	return repl(os.Stdin, os.Stdout)
}

// repl reads statement groups from the input: lines accumulate until a
// blank line runs them against a persistent global environment. "quit"
// on its own line exits.
func repl(in *os.File, out *os.File) int {
	caps := capability.Defaults()
	caps.Output = capability.NewOutput(out)
	caps.Input = capability.NewInput(in, out)
	it := interp.New(caps)

	fmt.Fprintln(out, cliToolVersion)
	fmt.Fprintln(out, `Blank line runs the buffered statements. Type "quit" to exit.`)

	scanner := bufio.NewScanner(in)
	var buffered []string
	prompt := func() {
		if len(buffered) == 0 {
			fmt.Fprint(out, "> ")
		} else {
			fmt.Fprint(out, ". ")
		}
	}

	flush := func() {
		source := strings.Join(buffered, "\n")
		buffered = buffered[:0]
		if strings.TrimSpace(source) == "" {
			return
		}
		prog, err := parser.Parse(source)
		if err != nil {
			fmt.Fprintln(out, err)
			return
		}
		if err := it.Run(prog); err != nil {
			fmt.Fprintln(out, err)
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "quit" && len(buffered) == 0:
			return 0
		case strings.TrimSpace(line) == "":
			flush()
		default:
			buffered = append(buffered, line)
		}
		prompt()
	}
	flush()
	return 0
}
