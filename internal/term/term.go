// Package term defines the terminal contract kept deliberately out of
// scope of the core domain logic: double-buffered canvas, line drawing
// primitives, style application, event polling, cursor placement.
// internal/app only
// ever depends on the Canvas interface below, so the event loop and state
// machine are fully testable against a fake; the only concrete
// implementation wraps github.com/gdamore/tcell/v2, the natural Go
// counterpart of whatever terminal layer the origin system hand-rolled.
package term

// Style is a foreground/background/attribute triple. The zero value is
// the terminal's default colours with no attributes.
type Style struct {
	Fg, Bg  Color
	Bold    bool
	Reverse bool
}

// Color is an indexed or default terminal color.
type Color int32

// ColorDefault selects the terminal's default color.
const ColorDefault Color = -1

// Key enumerates the subset of key presses the application state machine
// reacts to; Rune carries the literal character for KeyRune.
type Key int

const (
	KeyRune Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackspace
	KeyCtrlC
	KeyPgUp
	KeyPgDn
	KeyHome
	KeyEnd
	KeyUnknown
)

// Event is whatever PollEvent returns: a key press, a resize, or nothing
// (a poll timeout, letting the foreground loop re-check worker progress).
type Event struct {
	Kind    EventKind
	Key     Key
	Rune    rune
	Mod     ModMask
	Width   int // EventResize
	Height  int // EventResize
}

// EventKind discriminates Event's meaning.
type EventKind int

const (
	EventNone EventKind = iota
	EventKey
	EventResize
)

// ModMask is a bitmask of held modifier keys.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
)

// Canvas is the double-buffered drawing surface and input source the
// application state machine is built against. PollEvent must return
// EventNone after its internal timeout elapses — the foreground suspends
// inside the input-event poll with a 250ms timeout — so the
// foreground loop can re-poll background worker progress without
// blocking indefinitely.
type Canvas interface {
	// Size returns the current drawable area in cells.
	Size() (width, height int)
	// SetCell draws one rune at (x,y) with style. Writes outside the
	// current Size are silently ignored, mirroring tcell's SetContent.
	SetCell(x, y int, ch rune, style Style)
	// Clear erases the back buffer.
	Clear()
	// Show flushes the back buffer to the terminal.
	Show()
	// PollEvent blocks for at most one input event or its internal
	// timeout, whichever comes first, returning EventNone on timeout.
	PollEvent() Event
	// Close restores the terminal to its original state.
	Close()
}
