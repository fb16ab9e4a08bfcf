package term

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// pollTimeout bounds how long PollEvent blocks before returning EventNone,
// giving the foreground loop a chance to re-check background worker
// progress between keystrokes.
const pollTimeout = 250 * time.Millisecond

// TcellCanvas adapts a github.com/gdamore/tcell/v2 Screen to Canvas.
type TcellCanvas struct {
	screen tcell.Screen
	events chan tcell.Event
	quit   chan struct{}
}

// NewTcellCanvas initializes the terminal and returns a ready Canvas.
func NewTcellCanvas() (*TcellCanvas, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Wrap(err, "allocate tcell screen")
	}
	if err := screen.Init(); err != nil {
		return nil, errors.Wrap(err, "init tcell screen")
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	c := &TcellCanvas{
		screen: screen,
		events: make(chan tcell.Event, 8),
		quit:   make(chan struct{}),
	}
	screen.EnablePaste()
	go screen.ChannelEvents(c.events, c.quit)
	return c, nil
}

// Size returns the current terminal size in cells.
func (c *TcellCanvas) Size() (int, int) {
	return c.screen.Size()
}

// SetCell draws ch at (x,y) in style, translated to a tcell.Style.
func (c *TcellCanvas) SetCell(x, y int, ch rune, style Style) {
	c.screen.SetContent(x, y, ch, nil, toTcellStyle(style))
}

// Clear erases the back buffer.
func (c *TcellCanvas) Clear() {
	c.screen.Clear()
}

// Show flushes pending draws to the terminal.
func (c *TcellCanvas) Show() {
	c.screen.Show()
}

// PollEvent waits for the next key or resize event, or returns EventNone
// after pollTimeout elapses.
func (c *TcellCanvas) PollEvent() Event {
	select {
	case ev := <-c.events:
		return fromTcellEvent(ev)
	case <-time.After(pollTimeout):
		return Event{Kind: EventNone}
	}
}

// Close restores the terminal and stops the event-forwarding goroutine.
func (c *TcellCanvas) Close() {
	close(c.quit)
	c.screen.Fini()
}

func toTcellStyle(s Style) tcell.Style {
	st := tcell.StyleDefault
	if s.Fg != ColorDefault {
		st = st.Foreground(tcell.PaletteColor(int(s.Fg)))
	}
	if s.Bg != ColorDefault {
		st = st.Background(tcell.PaletteColor(int(s.Bg)))
	}
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Reverse {
		st = st.Reverse(true)
	}
	return st
}

func fromTcellEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Kind: EventResize, Width: w, Height: h}
	case *tcell.EventKey:
		return Event{
			Kind: EventKey,
			Key:  toKey(e.Key()),
			Rune: e.Rune(),
			Mod:  toModMask(e.Modifiers()),
		}
	default:
		return Event{Kind: EventNone}
	}
}

func toKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyLeft:
		return KeyLeft
	case tcell.KeyRight:
		return KeyRight
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyTab:
		return KeyTab
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return KeyBackspace
	case tcell.KeyCtrlC:
		return KeyCtrlC
	case tcell.KeyPgUp:
		return KeyPgUp
	case tcell.KeyPgDn:
		return KeyPgDn
	case tcell.KeyHome:
		return KeyHome
	case tcell.KeyEnd:
		return KeyEnd
	case tcell.KeyRune:
		return KeyRune
	default:
		return KeyUnknown
	}
}

func toModMask(m tcell.ModMask) ModMask {
	var out ModMask
	if m&tcell.ModShift != 0 {
		out |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		out |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		out |= ModAlt
	}
	return out
}
