package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prose-lang/prose/pkg/driver"
)

func runDeps(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "prose deps does not take arguments (received %d)\n", len(args))
		return 1
	}

	manifestPath, err := driver.FindManifest(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if manifestPath == "" {
		fmt.Fprintf(os.Stderr, "prose deps requires a %s\n", driver.ManifestName)
		return 1
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(manifest.Dependencies) == 0 {
		fmt.Fprintln(os.Stdout, "no dependencies declared")
		return 0
	}

	root := filepath.Dir(manifestPath)
	fetcher, err := driver.NewGitFetcher(filepath.Join(root, ".prose", "cache"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	lock, err := fetcher.Sync(manifest, cliToolVersion)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	lockPath := filepath.Join(root, driver.LockfileName)
	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, pkg := range lock.Packages {
		fmt.Fprintf(os.Stdout, "fetched %s %s\n", pkg.Name, pkg.Version)
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", lockPath)
	return 0
}
