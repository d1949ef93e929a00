package event

import (
	"image"
	"time"
)

// FinishReason explains why a session ended.
type FinishReason string

const (
	FinishedOK      FinishReason = "ok"
	FinishedStopped FinishReason = "stopped"
	FinishedError   FinishReason = "error"
)

// Event is anything worth telling the outside world about. Remote
// notifiers and the web UI consume these.
type Event interface {
	Message() string
	Screenshot() image.Image
	OccurredAt() time.Time
	Session() string
}

type BaseEvent struct {
	message    string
	screenshot image.Image
	occurredAt time.Time
	session    string
}

func (b BaseEvent) Message() string {
	return b.message
}

func (b BaseEvent) Screenshot() image.Image {
	return b.screenshot
}

func (b BaseEvent) OccurredAt() time.Time {
	return b.occurredAt
}

func (b BaseEvent) Session() string {
	return b.session
}

// Text builds the base for a plain message event.
func Text(session, message string) BaseEvent {
	return BaseEvent{message: message, occurredAt: time.Now(), session: session}
}

// WithScreenshot attaches a frame to the event, typically the capture
// that triggered an error.
func WithScreenshot(session, message string, img image.Image) BaseEvent {
	return BaseEvent{message: message, screenshot: img, occurredAt: time.Now(), session: session}
}

// SessionStartedEvent fires once when a session begins driving the client.
type SessionStartedEvent struct {
	BaseEvent
	Profile string
}

func SessionStarted(be BaseEvent, profile string) SessionStartedEvent {
	return SessionStartedEvent{BaseEvent: be, Profile: profile}
}

// SessionFinishedEvent fires once when a session ends, for any reason.
type SessionFinishedEvent struct {
	BaseEvent
	Reason FinishReason
}

func SessionFinished(be BaseEvent, reason FinishReason) SessionFinishedEvent {
	return SessionFinishedEvent{BaseEvent: be, Reason: reason}
}

// StateChangedEvent fires on every controller state transition.
type StateChangedEvent struct {
	BaseEvent
	From string
	To   string
}

func StateChanged(be BaseEvent, from, to string) StateChangedEvent {
	return StateChangedEvent{BaseEvent: be, From: from, To: to}
}

// CycleCompletedEvent fires after a full bank-and-process round trip.
type CycleCompletedEvent struct {
	BaseEvent
	Cycle     int
	Processed int
	Elapsed   time.Duration
}

func CycleCompleted(be BaseEvent, cycle, processed int, elapsed time.Duration) CycleCompletedEvent {
	return CycleCompletedEvent{BaseEvent: be, Cycle: cycle, Processed: processed, Elapsed: elapsed}
}

// BreakStartedEvent fires when the scheduler pauses the session.
type BreakStartedEvent struct {
	BaseEvent
	Kind     string
	Duration time.Duration
}

func BreakStarted(be BaseEvent, kind string, duration time.Duration) BreakStartedEvent {
	return BreakStartedEvent{BaseEvent: be, Kind: kind, Duration: duration}
}

// BreakFinishedEvent fires when play resumes after a break.
type BreakFinishedEvent struct {
	BaseEvent
	Kind string
}

func BreakFinished(be BaseEvent, kind string) BreakFinishedEvent {
	return BreakFinishedEvent{BaseEvent: be, Kind: kind}
}

// RecoveryAttemptedEvent fires each time the controller backs off after
// a perception failure.
type RecoveryAttemptedEvent struct {
	BaseEvent
	Attempt int
	Cause   string
}

func RecoveryAttempted(be BaseEvent, attempt int, cause string) RecoveryAttemptedEvent {
	return RecoveryAttemptedEvent{BaseEvent: be, Attempt: attempt, Cause: cause}
}

// CaptureStalledEvent fires when screen capture keeps failing and the
// session can no longer see the client.
type CaptureStalledEvent struct {
	BaseEvent
	Failures int
}

func CaptureStalled(be BaseEvent, failures int) CaptureStalledEvent {
	return CaptureStalledEvent{BaseEvent: be, Failures: failures}
}
