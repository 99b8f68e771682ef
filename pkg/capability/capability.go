// Package capability holds the side-effect boundary of the runtime. The
// evaluator and the generated-code bridge talk to these interfaces only,
// so tests and embedders can swap any of them without touching semantics.
package capability

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"
)

// Set bundles every capability a running program may touch. Zero fields
// are not allowed; build one with Defaults and override as needed.
type Set struct {
	Output  Output
	Input   Input
	Files   Files
	Network Network
	Storage Storage
	UI      UI

	// Args are the program arguments visible to "the command line arguments".
	Args []string

	// LookupEnv resolves "the environment variable N". Defaults to os.LookupEnv.
	LookupEnv func(name string) (string, bool)

	// Now supplies the clock for "the current date and time" and friends.
	Now func() time.Time

	// Rand drives "random number between A and B".
	Rand *rand.Rand
}

// Defaults returns a Set wired to the host process: stdout/stdin, the real
// filesystem, a shared HTTP client, an unopened lazy store, and a headless
// UI.
func Defaults() *Set {
	return &Set{
		Output:    NewOutput(os.Stdout),
		Input:     NewInput(os.Stdin, os.Stdout),
		Files:     OSFiles{},
		Network:   NewHTTPNetwork(),
		Storage:   NewLazyStore(""),
		UI:        Headless{},
		LookupEnv: os.LookupEnv,
		Now:       time.Now,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Output receives the text produced by Say and Display, one line per call.
type Output interface {
	Print(line string)
}

type writerOutput struct {
	w io.Writer
}

// NewOutput wraps an io.Writer as an Output, appending a newline per line.
func NewOutput(w io.Writer) Output {
	return &writerOutput{w: w}
}

func (o *writerOutput) Print(line string) {
	fmt.Fprintln(o.w, line)
}

// Input supplies Ask statements. ReadLine shows the prompt and returns the
// entered line without its trailing newline; end of input yields "".
type Input interface {
	ReadLine(prompt string) (string, error)
}

type readerInput struct {
	r      *bufio.Reader
	prompt io.Writer
}

// NewInput builds an Input reading from r and echoing prompts to prompt.
func NewInput(r io.Reader, prompt io.Writer) Input {
	return &readerInput{r: bufio.NewReader(r), prompt: prompt}
}

func (in *readerInput) ReadLine(prompt string) (string, error) {
	fmt.Fprint(in.prompt, prompt)
	line, err := in.r.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return "", nil
		}
		return "", err
	}
	line = trimNewline(line)
	return line, nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// Files isolates filesystem access for Write/Append statements, "the
// contents of file", and "file F exists".
type Files interface {
	Read(path string) (string, error)
	Write(path, content string) error
	Append(path, content string) error
	Exists(path string) bool
}

// OSFiles is the real filesystem.
type OSFiles struct{}

func (OSFiles) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (OSFiles) Write(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func (OSFiles) Append(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

func (OSFiles) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
