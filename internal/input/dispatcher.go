// Package input synthesizes cursor and keyboard events: it plans curved
// cursor paths, paces them with human timing, and delivers the events
// through an OS-level dispatcher.
package input

import (
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

func (b Button) String() string {
	if b == ButtonRight {
		return "right"
	}
	return "left"
}

// Key names a keyboard key in the dispatcher's vocabulary.
type Key string

const (
	KeyEscape Key = "esc"
	KeyEnter  Key = "enter"
	KeySpace  Key = "space"
)

// DispatchError reports the OS refusing a synthetic input event. The
// session treats it as fatal: once events stop landing there is no safe
// way to keep driving the client.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("input dispatch %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher delivers cursor and key events to the OS. Coordinates are
// client-window relative; implementations translate them to whatever
// space the OS expects.
type Dispatcher interface {
	// MoveCursor places the cursor on p.
	MoveCursor(p image.Point) error
	// PressButton holds b down for hold, then releases it.
	PressButton(b Button, hold time.Duration) error
	// SendKey holds k down for hold, then releases it.
	SendKey(k Key, hold time.Duration) error
	// CursorPosition reports where the cursor currently sits.
	CursorPosition() (image.Point, error)
}

// RobotDispatcher sends events through the OS input queue via robotgo.
type RobotDispatcher struct {
	origin image.Point
}

// NewRobotDispatcher returns a dispatcher anchored at origin, the
// client window's top-left corner in screen coordinates.
func NewRobotDispatcher(origin image.Point) *RobotDispatcher {
	return &RobotDispatcher{origin: origin}
}

// SetOrigin re-anchors window-relative coordinates after the client
// window moves.
func (d *RobotDispatcher) SetOrigin(p image.Point) {
	d.origin = p
}

func (d *RobotDispatcher) MoveCursor(p image.Point) error {
	robotgo.Move(p.X+d.origin.X, p.Y+d.origin.Y)
	return nil
}

func (d *RobotDispatcher) PressButton(b Button, hold time.Duration) error {
	if err := robotgo.Toggle(b.String(), "down"); err != nil {
		return &DispatchError{Op: "button down", Err: err}
	}
	time.Sleep(hold)
	if err := robotgo.Toggle(b.String(), "up"); err != nil {
		return &DispatchError{Op: "button up", Err: err}
	}
	return nil
}

func (d *RobotDispatcher) SendKey(k Key, hold time.Duration) error {
	if err := robotgo.KeyToggle(string(k), "down"); err != nil {
		return &DispatchError{Op: "key down", Err: err}
	}
	time.Sleep(hold)
	if err := robotgo.KeyToggle(string(k), "up"); err != nil {
		return &DispatchError{Op: "key up", Err: err}
	}
	return nil
}

func (d *RobotDispatcher) CursorPosition() (image.Point, error) {
	x, y := robotgo.Location()
	return image.Pt(x-d.origin.X, y-d.origin.Y), nil
}
