package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ManifestName, `name: calculator
entry: main.prose
settings:
  loop_cap: 500
dependencies:
  strings-extra:
    git: https://example.com/strings-extra.git
    tag: v1.2.0
`)
	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if manifest.Name != "calculator" || manifest.Entry != "main.prose" {
		t.Errorf("parsed name/entry = %q/%q", manifest.Name, manifest.Entry)
	}
	if manifest.Settings.LoopCap != 500 {
		t.Errorf("loop_cap = %d, want 500", manifest.Settings.LoopCap)
	}
	dep := manifest.Dependencies["strings-extra"]
	if dep == nil || dep.Git != "https://example.com/strings-extra.git" || dep.Tag != "v1.2.0" {
		t.Errorf("dependency = %+v", dep)
	}
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ManifestName, "name: demo\nbogus_key: 1\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("load succeeded, want unknown-field error")
	}
}

func TestLoadManifestValidation(t *testing.T) {
	cases := []struct {
		label   string
		content string
		want    string
	}{
		{"missing name", "entry: main.prose\n", "name must be provided"},
		{"negative loop cap", "name: demo\nsettings:\n  loop_cap: -1\n", "loop_cap must not be negative"},
		{"dep without git", "name: demo\ndependencies:\n  lib:\n    tag: v1\n", `dependency "lib" requires a git URL`},
		{"dep without pin", "name: demo\ndependencies:\n  lib:\n    git: https://example.com/lib.git\n", "requires rev, tag, or branch"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		path := writeFile(t, dir, ManifestName, tc.content)
		_, err := LoadManifest(path)
		if err == nil {
			t.Errorf("%s: load succeeded, want validation error", tc.label)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: error = %q, want mention of %q", tc.label, err, tc.want)
		}
	}
}

func TestLoadManifestEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ManifestName, "")
	_, err := LoadManifest(path)
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("error = %v, want empty-file message", err)
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ManifestName, "name: demo\n")
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if filepath.Dir(found) != root {
		t.Errorf("found %q, want manifest in %q", found, root)
	}
	missing, err := FindManifest(t.TempDir())
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if missing != "" {
		t.Errorf("found %q in empty tree, want none", missing)
	}
}

func TestLoadParsesEntryAndManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ManifestName, "name: demo\nentry: main.prose\n")
	entry := writeFile(t, dir, "main.prose", "Say hello.\n")
	program, err := Load(entry)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if program.AST == nil || len(program.AST.Statements) != 1 {
		t.Fatalf("parsed AST = %+v", program.AST)
	}
	if program.Manifest == nil || program.Manifest.Name != "demo" {
		t.Errorf("manifest = %+v, want demo", program.Manifest)
	}
}

func TestLoadWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.prose", "Say hello.\n")
	program, err := Load(entry)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if program.Manifest != nil && program.Manifest.Name != "" {
		// A manifest above the temp dir would be surprising but harmless.
		t.Logf("picked up enclosing manifest %q", program.Manifest.Path)
	}
}

func TestCheckReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "broken.prose", "Let x be 5\n")
	if err := Check(entry); err == nil {
		t.Fatal("check succeeded on malformed source")
	}
	good := writeFile(t, dir, "good.prose", "Say hi.\n")
	if err := Check(good); err != nil {
		t.Fatalf("check failed on valid source: %v", err)
	}
}

func TestLockfileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lock := NewLockfile("demo", "prose 0.1.0-dev")
	lock.Upsert(&LockedPackage{Name: "zlib", Version: "v2", Source: "git+https://example.com/z.git@abc", Checksum: "feed"})
	lock.Upsert(&LockedPackage{Name: "alib", Version: "v1", Source: "git+https://example.com/a.git@def", Checksum: "beef"})

	path := filepath.Join(dir, LockfileName)
	if err := WriteLockfile(lock, path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	loaded, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Root != "demo" || loaded.Tool != "prose 0.1.0-dev" {
		t.Errorf("root/tool = %q/%q", loaded.Root, loaded.Tool)
	}
	if len(loaded.Packages) != 2 {
		t.Fatalf("got %d packages, want 2", len(loaded.Packages))
	}
	if loaded.Packages[0].Name != "alib" || loaded.Packages[1].Name != "zlib" {
		t.Errorf("packages not sorted by name: %q, %q", loaded.Packages[0].Name, loaded.Packages[1].Name)
	}
	if loaded.Packages[0].Checksum != "beef" {
		t.Errorf("alib checksum = %q", loaded.Packages[0].Checksum)
	}
}

func TestLockfileUpsertReplaces(t *testing.T) {
	lock := NewLockfile("demo", "tool")
	lock.Upsert(&LockedPackage{Name: "lib", Version: "v1"})
	lock.Upsert(&LockedPackage{Name: "lib", Version: "v2"})
	if len(lock.Packages) != 1 {
		t.Fatalf("got %d entries, want 1", len(lock.Packages))
	}
	if lock.Packages[0].Version != "v2" {
		t.Errorf("version = %q, want v2", lock.Packages[0].Version)
	}
}

func TestGitFetcherRequiresPin(t *testing.T) {
	fetcher, err := NewGitFetcher(t.TempDir())
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	_, err = fetcher.Fetch("lib", &DependencySpec{Git: "https://example.com/lib.git"})
	if err == nil || !strings.Contains(err.Error(), "rev, tag, or branch") {
		t.Fatalf("error = %v, want pin requirement", err)
	}
	_, err = fetcher.Fetch("lib", &DependencySpec{})
	if err == nil || !strings.Contains(err.Error(), "git URL required") {
		t.Fatalf("error = %v, want URL requirement", err)
	}
}

func TestGitFetcherReusesPinnedCheckout(t *testing.T) {
	cache := t.TempDir()
	fetcher, err := NewGitFetcher(cache)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	// A pinned rev already on disk must be served without cloning.
	rev := "0123456789abcdef0123456789abcdef01234567"
	checkout := fetcher.Dir("lib", rev)
	writeFile(t, checkout, "lib.prose", "Say hi.\n")

	pkg, err := fetcher.Fetch("lib", &DependencySpec{Git: "https://example.invalid/lib.git", Rev: rev})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if pkg.Version != rev {
		t.Errorf("version = %q, want pinned rev", pkg.Version)
	}
	if pkg.Checksum == "" {
		t.Error("checksum missing for cached checkout")
	}
}

func TestSanitizeSegment(t *testing.T) {
	if got := sanitizeSegment("refs/heads/main"); got != "refs_heads_main" {
		t.Errorf("sanitized = %q", got)
	}
	if got := sanitizeSegment(""); got != "head" {
		t.Errorf("empty segment = %q, want head", got)
	}
}
