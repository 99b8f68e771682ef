package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestName is the project file looked up next to (or above) the entry
// source.
const ManifestName = "prose.yml"

// Manifest represents the parsed contents of prose.yml.
type Manifest struct {
	Path         string
	Name         string
	Entry        string
	Settings     Settings
	Dependencies map[string]*DependencySpec
}

// Settings are the tunable runtime knobs a project may pin.
type Settings struct {
	// LoopCap overrides the runaway-loop guard threshold. Zero keeps the
	// default.
	LoopCap int `yaml:"loop_cap"`
}

// DependencySpec describes one git-sourced Prose library.
type DependencySpec struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type manifestFile struct {
	Name         string                     `yaml:"name"`
	Entry        string                     `yaml:"entry"`
	Settings     Settings                   `yaml:"settings"`
	Dependencies map[string]*DependencySpec `yaml:"dependencies"`
}

// LoadManifest parses prose.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", abs, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", abs)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", abs, err)
	}

	manifest := &Manifest{
		Path:         abs,
		Name:         strings.TrimSpace(raw.Name),
		Entry:        strings.TrimSpace(raw.Entry),
		Settings:     raw.Settings,
		Dependencies: raw.Dependencies,
	}
	if manifest.Dependencies == nil {
		manifest.Dependencies = map[string]*DependencySpec{}
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Settings.LoopCap < 0 {
		errs.Issues = append(errs.Issues, "settings.loop_cap must not be negative")
	}
	for name, dep := range m.Dependencies {
		if dep == nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependency %q must describe a git source", name))
			continue
		}
		if strings.TrimSpace(dep.Git) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependency %q requires a git URL", name))
		}
		if strings.TrimSpace(dep.Rev) == "" && strings.TrimSpace(dep.Tag) == "" && strings.TrimSpace(dep.Branch) == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependency %q requires rev, tag, or branch", name))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// FindManifest walks from dir upward looking for prose.yml. It returns ""
// without error when no manifest exists.
func FindManifest(dir string) (string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(cur, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", nil
		}
		cur = parent
	}
}
