package health

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/grimleaf/grimleaf/internal/screen"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCaptureMonitorReportsRepeatedFailures(t *testing.T) {
	inner := &screen.StaticCapturer{Err: errors.New("display gone")}
	m := NewCaptureMonitor(testLogger(), "test", inner, 50*time.Millisecond, time.Second)

	fired := 0
	m.SetCallback(func() { fired++ })

	for i := 0; i < stallFailureCount-1; i++ {
		if _, err := m.Capture(); err == nil {
			t.Fatal("expected capture error")
		}
	}
	if fired != 0 {
		t.Fatalf("callback fired after %d failures", stallFailureCount-1)
	}

	if _, err := m.Capture(); err == nil {
		t.Fatal("expected capture error")
	}
	if fired != 1 {
		t.Fatalf("callback fired %d times, want 1", fired)
	}

	// Further failures in the same stretch stay quiet.
	_, _ = m.Capture()
	if fired != 1 {
		t.Fatalf("callback refired without recovery, count %d", fired)
	}

	// A success resets the failure streak, so a fresh stretch reports
	// again.
	inner.Err = nil
	inner.Buffer = image.NewRGBA(image.Rect(0, 0, 4, 4))
	if _, err := m.Capture(); err != nil {
		t.Fatalf("capture after recovery: %v", err)
	}
	inner.Err = errors.New("display gone")
	inner.Buffer = nil
	for i := 0; i < stallFailureCount; i++ {
		_, _ = m.Capture()
	}
	if fired != 2 {
		t.Fatalf("callback fired %d times after second stretch, want 2", fired)
	}
}

func TestCaptureMonitorSustainedLatency(t *testing.T) {
	inner := &screen.StaticCapturer{
		Buffer: image.NewRGBA(image.Rect(0, 0, 4, 4)),
		Delay:  3 * time.Millisecond,
	}
	m := NewCaptureMonitor(testLogger(), "test", inner, time.Millisecond, 10*time.Millisecond)

	fired := 0
	m.SetCallback(func() { fired++ })

	deadline := time.Now().Add(2 * time.Second)
	for fired == 0 && time.Now().Before(deadline) {
		if _, err := m.Capture(); err != nil {
			t.Fatalf("capture: %v", err)
		}
	}
	if fired == 0 {
		t.Fatal("sustained slow captures never triggered the callback")
	}
}

func TestCaptureMonitorDisabled(t *testing.T) {
	inner := &screen.StaticCapturer{Err: errors.New("display gone")}
	m := NewCaptureMonitor(testLogger(), "test", inner, time.Millisecond, time.Millisecond)
	m.Disable()

	fired := false
	m.SetCallback(func() { fired = true })

	for i := 0; i < stallFailureCount+1; i++ {
		_, _ = m.Capture()
	}
	if fired {
		t.Error("disabled monitor fired callback")
	}
}
