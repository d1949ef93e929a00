package health

import (
	"image"
	"log/slog"
	"time"

	"github.com/grimleaf/grimleaf/internal/event"
)

// Consecutive capture failures before the monitor reports a stall.
const stallFailureCount = 3

// Capturer matches the screen capture surface the monitor wraps.
type Capturer interface {
	Capture() (*image.RGBA, error)
}

// CaptureMonitor decorates a Capturer and tracks sustained slow or
// failing captures. A degraded capture path usually means the client
// window moved, minimized or the display changed; the monitor logs it,
// emits an event and fires the callback so the app shell can react.
// Capture is called from the controller loop only; the monitor keeps
// no locks.
type CaptureMonitor struct {
	HighLatencyThreshold time.Duration
	HighLatencySustained time.Duration
	Enabled              bool
	Logger               *slog.Logger

	inner     Capturer
	session   string
	slowStart time.Time
	failures  int
	onStalled func()
}

func NewCaptureMonitor(logger *slog.Logger, session string, inner Capturer, threshold, sustained time.Duration) *CaptureMonitor {
	return &CaptureMonitor{
		HighLatencyThreshold: threshold,
		HighLatencySustained: sustained,
		Enabled:              true,
		Logger:               logger,
		inner:                inner,
		session:              session,
	}
}

// Capture delegates to the wrapped capturer and feeds the watchdog.
func (m *CaptureMonitor) Capture() (*image.RGBA, error) {
	start := time.Now()
	buf, err := m.inner.Capture()
	m.observe(time.Since(start), err)
	return buf, err
}

func (m *CaptureMonitor) observe(latency time.Duration, err error) {
	if !m.Enabled {
		return
	}

	if err != nil {
		m.failures++
		if m.failures == stallFailureCount {
			m.Logger.Error("capture repeatedly failing",
				slog.Int("failures", m.failures),
				slog.Any("error", err))
			event.Send(event.CaptureStalled(event.Text(m.session, "screen capture repeatedly failing"), m.failures))
			m.fire()
		}
		return
	}
	m.failures = 0

	now := time.Now()
	if latency > m.HighLatencyThreshold {
		if m.slowStart.IsZero() {
			m.slowStart = now
			m.Logger.Warn("slow capture detected, starting monitor",
				slog.Duration("latency", latency),
				slog.Duration("threshold", m.HighLatencyThreshold),
				slog.Duration("sustainedDuration", m.HighLatencySustained))
			return
		}
		elapsed := now.Sub(m.slowStart)
		if elapsed >= m.HighLatencySustained {
			m.Logger.Error("sustained slow capture detected",
				slog.Duration("latency", latency),
				slog.Duration("duration", elapsed))
			event.Send(event.CaptureStalled(event.Text(m.session, "capture latency sustained above threshold"), 0))
			m.fire()
			// Start a fresh window so the next report needs another
			// full sustained period.
			m.slowStart = time.Time{}
			return
		}
		m.Logger.Debug("slow capture still sustained",
			slog.Duration("latency", latency),
			slog.Duration("elapsed", elapsed),
			slog.Duration("remaining", m.HighLatencySustained-elapsed))
		return
	}

	if !m.slowStart.IsZero() {
		m.Logger.Info("capture latency returned to normal",
			slog.Duration("latency", latency),
			slog.Duration("slowDuration", now.Sub(m.slowStart)))
		m.slowStart = time.Time{}
	}
}

func (m *CaptureMonitor) fire() {
	if m.onStalled != nil {
		m.onStalled()
	}
}

// Reset clears the slow-capture tracking state.
func (m *CaptureMonitor) Reset() {
	m.slowStart = time.Time{}
	m.failures = 0
}

// SetCallback sets the function to call when a stall is detected.
func (m *CaptureMonitor) SetCallback(callback func()) {
	m.onStalled = callback
}

// Enable turns the watchdog on.
func (m *CaptureMonitor) Enable() {
	m.Enabled = true
	m.Logger.Info("capture monitoring enabled",
		slog.Duration("threshold", m.HighLatencyThreshold),
		slog.Duration("sustainedDuration", m.HighLatencySustained))
}

// Disable turns the watchdog off and clears its state.
func (m *CaptureMonitor) Disable() {
	m.Enabled = false
	m.Reset()
	m.Logger.Info("capture monitoring disabled")
}
