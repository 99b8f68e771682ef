package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prose-lang/prose/pkg/capability"
	"github.com/prose-lang/prose/pkg/driver"
	"github.com/prose-lang/prose/pkg/interp"
)

func runEntry(args []string) int {
	entry, programArgs, err := resolveEntry(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	program, err := driver.Load(entry)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	caps := capability.Defaults()
	caps.Args = programArgs

	it := interp.New(caps)
	if program.Manifest != nil {
		it.SetLoopCap(program.Manifest.Settings.LoopCap)
	}
	if err := it.Run(program.AST); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runCheck(args []string) int {
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "prose check takes at most one file (received %d arguments)\n", len(args))
		return 1
	}
	entry, _, err := resolveEntry(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := driver.Check(entry); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintln(os.Stdout, "check: ok")
	return 0
}

// resolveEntry turns CLI arguments into an entry file plus program
// arguments, falling back to the manifest entry when no file is given.
func resolveEntry(args []string) (string, []string, error) {
	if len(args) > 0 {
		return args[0], append([]string{}, args[1:]...), nil
	}

	manifestPath, err := driver.FindManifest(".")
	if err != nil {
		return "", nil, fmt.Errorf("locate %s: %w", driver.ManifestName, err)
	}
	if manifestPath == "" {
		return "", nil, fmt.Errorf("no source file given and no %s found", driver.ManifestName)
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		return "", nil, err
	}
	if manifest.Entry == "" {
		return "", nil, fmt.Errorf("%s has no entry; pass a source file instead", driver.ManifestName)
	}
	return filepath.Join(filepath.Dir(manifestPath), manifest.Entry), nil, nil
}
