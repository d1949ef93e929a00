package input

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/grimleaf/grimleaf/internal/humanize"
)

func testRig(seed int64) (*Mouse, *Keyboard, *Recorder) {
	rng := humanize.NewRNG(seed)
	behavior := humanize.NewBehavior(humanize.DefaultBehaviorConfig(), rng)
	behavior.StartSession()
	timing := humanize.NewTiming(humanize.DefaultTimingConfig(), rng, behavior)
	rec := NewRecorder()
	planner := NewPlanner(DefaultMotionConfig(), rng)
	return NewMouse(rec, planner, timing), NewKeyboard(rec, timing), rec
}

func TestMouseMoveToWalksWaypoints(t *testing.T) {
	m, _, rec := testRig(1)
	target := image.Pt(40, 30)
	if err := m.MoveTo(context.Background(), target); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	events := rec.Events()
	if len(events) < 4 {
		t.Fatalf("move produced %d events, want a multi-waypoint walk", len(events))
	}
	for _, ev := range events {
		if ev.Kind != "move" {
			t.Fatalf("unexpected %q event during a plain move", ev.Kind)
		}
	}
	last := events[len(events)-1].Point
	if last != target {
		t.Errorf("cursor finished at %v, want %v", last, target)
	}
	if pos, _ := rec.CursorPosition(); pos != target {
		t.Errorf("recorder cursor = %v, want %v", pos, target)
	}
}

func TestMouseMoveToHonorsCancel(t *testing.T) {
	m, _, rec := testRig(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.MoveTo(ctx, image.Pt(500, 500))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("MoveTo on cancelled ctx returned %v, want context.Canceled", err)
	}
	if n := len(rec.Events()); n != 0 {
		t.Errorf("cancelled move still dispatched %d events", n)
	}
}

func TestMouseClickPressesInsideRegion(t *testing.T) {
	m, _, rec := testRig(3)
	region := image.Rect(0, 0, 10, 10)
	if err := m.Click(context.Background(), ButtonLeft, region); err != nil {
		t.Fatalf("Click: %v", err)
	}
	var buttons []RecordedEvent
	for _, ev := range rec.Events() {
		if ev.Kind == "button" {
			buttons = append(buttons, ev)
		}
	}
	if len(buttons) != 1 {
		t.Fatalf("click produced %d button events, want 1", len(buttons))
	}
	b := buttons[0]
	if b.Button != ButtonLeft {
		t.Errorf("pressed %v, want left", b.Button)
	}
	if !b.Point.In(region) {
		t.Errorf("click landed at %v, outside %v", b.Point, region)
	}
	if b.Hold < 50*time.Millisecond || b.Hold > 200*time.Millisecond {
		t.Errorf("button hold %v outside [50ms,200ms]", b.Hold)
	}
}

func TestMouseDoubleClick(t *testing.T) {
	m, _, rec := testRig(5)
	region := image.Rect(0, 0, 8, 8)
	if err := m.DoubleClick(context.Background(), ButtonLeft, region); err != nil {
		t.Fatalf("DoubleClick: %v", err)
	}
	var buttons []RecordedEvent
	for _, ev := range rec.Events() {
		if ev.Kind == "button" {
			buttons = append(buttons, ev)
		}
	}
	if len(buttons) != 2 {
		t.Fatalf("double click produced %d presses, want 2", len(buttons))
	}
	if buttons[0].Point != buttons[1].Point {
		t.Errorf("double click moved between presses: %v then %v", buttons[0].Point, buttons[1].Point)
	}
}

func TestMouseClickSurfacesDispatchError(t *testing.T) {
	m, _, rec := testRig(6)
	rec.Fail = &DispatchError{Op: "move", Err: errors.New("input blocked")}
	err := m.Click(context.Background(), ButtonLeft, image.Rect(0, 0, 10, 10))
	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("Click returned %v, want a *DispatchError", err)
	}
	if derr.Op != "move" {
		t.Errorf("DispatchError op = %q, want move", derr.Op)
	}
}

func TestKeyboardPress(t *testing.T) {
	_, kb, rec := testRig(7)
	ctx := context.Background()
	if err := kb.Press(ctx, KeyEscape); err != nil {
		t.Fatalf("Press: %v", err)
	}
	if err := kb.Press(ctx, KeyEnter); err != nil {
		t.Fatalf("second Press: %v", err)
	}
	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 key taps", len(events))
	}
	if events[0].Key != KeyEscape || events[1].Key != KeyEnter {
		t.Errorf("keys = %q, %q; want esc, enter", events[0].Key, events[1].Key)
	}
	for _, ev := range events {
		if ev.Kind != "key" {
			t.Fatalf("unexpected %q event", ev.Kind)
		}
		if ev.Hold < 30*time.Millisecond || ev.Hold > 200*time.Millisecond {
			t.Errorf("key hold %v outside [30ms,200ms]", ev.Hold)
		}
	}
}

func TestButtonNames(t *testing.T) {
	if ButtonLeft.String() != "left" || ButtonRight.String() != "right" {
		t.Errorf("button names = %q/%q, want left/right", ButtonLeft, ButtonRight)
	}
}
