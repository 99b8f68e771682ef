package capability

import "errors"

// UI abstracts the window toolkit behind "Create a window", widget
// placement, and "Run the window". Event callbacks are invoked on the
// toolkit's own loop; implementations decide what that means.
type UI interface {
	// CreateWindow makes a new top-level window with the given title and
	// size in pixels.
	CreateWindow(title string, width, height int) (Window, error)
}

// Window is one open top-level window.
type Window interface {
	// AddWidget places a widget on the grid. Kind is "button", "label"
	// or "input". OnPress is only consulted for buttons and may be nil.
	AddWidget(kind, name, text string, row, col, span int, onPress func()) error

	// SetTitle replaces the window title.
	SetTitle(title string) error

	// SetText replaces the text of a named widget.
	SetText(name, text string) error

	// Text reads the current text of a named widget.
	Text(name string) (string, error)

	// Bind registers an event handler. Event is "enter", "escape",
	// "key:<k>" (optionally scoped to a named widget), "close", or
	// "change" on a named widget.
	Bind(event, widget string, handler func()) error

	// Run enters the event loop and blocks until the window closes.
	Run() error
}

// Headless is the default UI. Every call fails with the same message so
// GUI programs degrade with one clear explanation instead of a crash
// per widget.
type Headless struct{}

func (Headless) CreateWindow(string, int, int) (Window, error) {
	return nil, ErrNoGUI
}

// ErrNoGUI is returned by Headless for every window operation.
var ErrNoGUI = errors.New("GUI support is not available in this build.")
