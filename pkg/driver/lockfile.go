package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName sits next to prose.yml and pins resolved dependencies.
const LockfileName = "prose.lock"

// Lockfile models the prose.lock contents.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Packages  []*LockedPackage
}

// LockedPackage captures a single resolved dependency.
type LockedPackage struct {
	Name     string
	Version  string
	Source   string
	Checksum string
}

type lockfileDisk struct {
	Root      string              `yaml:"root"`
	Generated string              `yaml:"generated"`
	Tool      string              `yaml:"tool"`
	Packages  []lockedPackageDisk `yaml:"packages"`
}

type lockedPackageDisk struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Checksum string `yaml:"checksum"`
}

// NewLockfile constructs a lockfile seeded for the given project.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      strings.TrimSpace(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Packages:  []*LockedPackage{},
	}
}

// LoadLockfile parses prose.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := &Lockfile{
		Path:      abs,
		Root:      raw.Root,
		Generated: raw.Generated,
		Tool:      raw.Tool,
	}
	for _, pkg := range raw.Packages {
		lock.Packages = append(lock.Packages, &LockedPackage{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Checksum: pkg.Checksum,
		})
	}
	lock.normalize()
	return lock, nil
}

// WriteLockfile serialises the lockfile, refreshing its timestamp.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	lock.Generated = time.Now().UTC().Format(time.RFC3339)
	lock.normalize()

	disk := lockfileDisk{
		Root:      lock.Root,
		Generated: lock.Generated,
		Tool:      lock.Tool,
		Packages:  make([]lockedPackageDisk, 0, len(lock.Packages)),
	}
	for _, pkg := range lock.Packages {
		disk.Packages = append(disk.Packages, lockedPackageDisk{
			Name:     pkg.Name,
			Version:  pkg.Version,
			Source:   pkg.Source,
			Checksum: pkg.Checksum,
		})
	}
	data, err := yaml.Marshal(disk)
	if err != nil {
		return fmt.Errorf("lockfile: encode: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	lock.Path = abs
	return nil
}

// Upsert replaces or adds the entry for a package by name.
func (l *Lockfile) Upsert(pkg *LockedPackage) {
	if pkg == nil {
		return
	}
	for n, existing := range l.Packages {
		if existing.Name == pkg.Name {
			l.Packages[n] = pkg
			return
		}
	}
	l.Packages = append(l.Packages, pkg)
}

func (l *Lockfile) normalize() {
	sort.Slice(l.Packages, func(a, b int) bool {
		return l.Packages[a].Name < l.Packages[b].Name
	})
}
