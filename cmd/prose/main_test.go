package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// captureStdout swaps os.Stdout for a pipe while fn runs and returns what
// was printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured output: %v", err)
	}
	return string(data)
}

func TestNoArgumentsShowsUsage(t *testing.T) {
	if code := run(nil); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
}

func TestVersionFlag(t *testing.T) {
	out := captureStdout(t, func() {
		if code := run([]string{"--version"}); code != 0 {
			t.Errorf("exit = %d, want 0", code)
		}
	})
	if !strings.Contains(out, cliToolVersion) {
		t.Errorf("output = %q, want version string", out)
	}
}

func TestRunExecutesSourceFile(t *testing.T) {
	entry := writeSource(t, t.TempDir(), "main.prose", "Say hello.\n")
	out := captureStdout(t, func() {
		if code := run([]string{"run", entry}); code != 0 {
			t.Errorf("exit = %d, want 0", code)
		}
	})
	if out != "hello\n" {
		t.Errorf("output = %q, want hello", out)
	}
}

func TestBareFileArgumentRuns(t *testing.T) {
	entry := writeSource(t, t.TempDir(), "main.prose", "Say 2 plus 2.\n")
	out := captureStdout(t, func() {
		if code := run([]string{entry}); code != 0 {
			t.Errorf("exit = %d, want 0", code)
		}
	})
	if out != "4\n" {
		t.Errorf("output = %q, want 4", out)
	}
}

func TestRunMissingFileFails(t *testing.T) {
	if code := run([]string{"run", filepath.Join(t.TempDir(), "absent.prose")}); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
}

func TestCheckValidSource(t *testing.T) {
	entry := writeSource(t, t.TempDir(), "main.prose", "Say hi.\n")
	out := captureStdout(t, func() {
		if code := run([]string{"check", entry}); code != 0 {
			t.Errorf("exit = %d, want 0", code)
		}
	})
	if !strings.Contains(out, "check: ok") {
		t.Errorf("output = %q, want check: ok", out)
	}
}

func TestCheckMalformedSource(t *testing.T) {
	entry := writeSource(t, t.TempDir(), "broken.prose", "Let x be 5\n")
	if code := run([]string{"check", entry}); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
}

func TestBuildWritesGeneratedGo(t *testing.T) {
	dir := t.TempDir()
	entry := writeSource(t, dir, "main.prose", "Say hi.\n")
	outDir := filepath.Join(dir, "out")
	if code := run([]string{"build", "-o", outDir, entry}); code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	for _, name := range []string{"program.go", "main.go"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestReplRunsGroupsAndQuits(t *testing.T) {
	in, inWriter, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	outReader, out, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	go func() {
		io.WriteString(inWriter, "Let x be 2.\nSay x plus 1.\n\nquit\n")
		inWriter.Close()
	}()
	if code := repl(in, out); code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	out.Close()
	data, err := io.ReadAll(outReader)
	if err != nil {
		t.Fatalf("read repl output: %v", err)
	}
	if !strings.Contains(string(data), "3") {
		t.Errorf("repl output = %q, want it to print 3", data)
	}
}
