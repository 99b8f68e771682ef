package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitFetcher materialises git-sourced Prose libraries into a cache
// directory, one checkout per pinned revision.
type GitFetcher struct {
	cacheDir string
}

func NewGitFetcher(cacheDir string) (*GitFetcher, error) {
	if cacheDir == "" {
		return nil, fmt.Errorf("deps: empty cache dir")
	}
	abs, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("deps: resolve cache dir %s: %w", cacheDir, err)
	}
	return &GitFetcher{cacheDir: abs}, nil
}

// Dir is the checkout directory a fetched package lives in.
func (g *GitFetcher) Dir(name, version string) string {
	return filepath.Join(g.cacheDir, "src", sanitizeSegment(name), sanitizeSegment(version))
}

// Fetch clones and checks out one dependency, returning its lock entry.
// An already-present pinned checkout is reused without touching the
// network.
func (g *GitFetcher) Fetch(name string, spec *DependencySpec) (*LockedPackage, error) {
	url := strings.TrimSpace(spec.Git)
	if url == "" {
		return nil, fmt.Errorf("dependency %q: git URL required", name)
	}
	baseDir := filepath.Join(g.cacheDir, "src", sanitizeSegment(name))
	version, commit, err := g.ensureCheckout(baseDir, url, spec)
	if err != nil {
		return nil, err
	}
	checkoutDir := filepath.Join(baseDir, sanitizeSegment(version))
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, err
	}
	return &LockedPackage{
		Name:     name,
		Version:  version,
		Source:   fmt.Sprintf("git+%s@%s", url, commit),
		Checksum: checksum,
	}, nil
}

// Sync fetches every manifest dependency and returns the refreshed
// lockfile, packages sorted by name.
func (g *GitFetcher) Sync(manifest *Manifest, tool string) (*Lockfile, error) {
	lock := NewLockfile(manifest.Name, tool)
	names := make([]string, 0, len(manifest.Dependencies))
	for name := range manifest.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pkg, err := g.Fetch(name, manifest.Dependencies[name])
		if err != nil {
			return nil, err
		}
		lock.Upsert(pkg)
	}
	return lock, nil
}

func (g *GitFetcher) ensureCheckout(baseDir, url string, spec *DependencySpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}
	revision, descriptor, err := revisionFromSpec(spec)
	if err != nil {
		return "", "", err
	}

	// A fully pinned rev that is already on disk needs no clone.
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		existing := filepath.Join(baseDir, sanitizeSegment(rev))
		if _, err := os.Stat(existing); err == nil {
			return rev, rev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}
	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := pinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizeSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}
	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func revisionFromSpec(spec *DependencySpec) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(spec.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(spec.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(spec.Branch); branch != "" {
		return plumbing.Revision("refs/heads/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git dependencies require rev, tag, or branch")
}

func pinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.Base(p)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "head"
	}
	return b.String()
}
