package input

import (
	"image"
	"sync"
	"time"
)

// RecordedEvent is one input event captured by a Recorder.
type RecordedEvent struct {
	Kind   string // "move", "button" or "key"
	Point  image.Point
	Button Button
	Key    Key
	Hold   time.Duration
}

// Recorder is a Dispatcher that captures events instead of delivering
// them. It backs dry runs and tests.
type Recorder struct {
	mu     sync.Mutex
	cursor image.Point
	events []RecordedEvent

	// Fail, when set, is returned by every dispatch call. Lets tests
	// exercise the fatal-error path without touching the OS.
	Fail error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) MoveCursor(p image.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.cursor = p
	r.events = append(r.events, RecordedEvent{Kind: "move", Point: p})
	return nil
}

func (r *Recorder) PressButton(b Button, hold time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.events = append(r.events, RecordedEvent{Kind: "button", Point: r.cursor, Button: b, Hold: hold})
	return nil
}

func (r *Recorder) SendKey(k Key, hold time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.events = append(r.events, RecordedEvent{Kind: "key", Point: r.cursor, Key: k, Hold: hold})
	return nil
}

func (r *Recorder) CursorPosition() (image.Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor, nil
}

// Events returns a copy of everything captured so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Reset drops captured events but keeps the cursor position.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
