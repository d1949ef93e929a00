// Package humanize injects the statistical irregularities of a human operator
// into machine-driven play: right-skewed delays, fatigue that builds across a
// session, scheduled breaks, attention drift and the occasional misclick.
// Everything here is driven by one injected generator per session, so a fixed
// seed replays identical behavior.
package humanize

import (
	"math"
	"math/rand"
	"time"
)

type BehaviorConfig struct {
	// FatigueOnset is how long a session runs before fatigue starts building.
	FatigueOnset time.Duration
	// MaxSlowdown is the fraction added to every delay at full fatigue.
	MaxSlowdown float64
	// Misclick probability interpolates between these two as fatigue rises.
	MisclickRateBase float64
	MisclickRateMax  float64
}

func DefaultBehaviorConfig() BehaviorConfig {
	return BehaviorConfig{
		FatigueOnset:     30 * time.Minute,
		MaxSlowdown:      0.5,
		MisclickRateBase: 0.01,
		MisclickRateMax:  0.05,
	}
}

// Behavior is the per-session operator model. Fatigue derives from elapsed
// session time, recovers with breaks, and feeds the timing engine and the
// misclick draw. Single-writer: only the controller tick loop reads and
// mutates it.
type Behavior struct {
	cfg BehaviorConfig
	rng *rand.Rand
	now func() time.Time

	sessionStart time.Time
	lastBreak    time.Time
}

func NewBehavior(cfg BehaviorConfig, rng *rand.Rand) *Behavior {
	return &Behavior{cfg: cfg, rng: rng, now: time.Now}
}

// StartSession resets fatigue to a fresh operator.
func (b *Behavior) StartSession() {
	t := b.now()
	b.sessionStart = t
	b.lastBreak = t
}

func (b *Behavior) SessionDuration() time.Duration {
	if b.sessionStart.IsZero() {
		return 0
	}
	return b.now().Sub(b.sessionStart)
}

func (b *Behavior) TimeSinceBreak() time.Duration {
	if b.lastBreak.IsZero() {
		return b.SessionDuration()
	}
	return b.now().Sub(b.lastBreak)
}

// RecordBreak credits a completed break against accumulated fatigue. A five
// minute break wipes it entirely; shorter ones recover proportionally. The
// credit is applied by moving the effective session start forward.
func (b *Behavior) RecordBreak(d time.Duration) {
	t := b.now()
	b.lastBreak = t
	if b.sessionStart.IsZero() {
		return
	}
	recovery := math.Min(1, d.Seconds()/300)
	elapsed := t.Sub(b.sessionStart)
	b.sessionStart = b.sessionStart.Add(time.Duration(float64(elapsed) * recovery))
}

// FatigueLevel is 0 before onset, then climbs toward 1: roughly 0.7 two hours
// past onset, 0.95 after four. Each read carries a little jitter so the level
// never looks like a clean curve.
func (b *Behavior) FatigueLevel() float64 {
	mins := b.SessionDuration().Minutes()
	onset := b.cfg.FatigueOnset.Minutes()
	if mins < onset {
		return 0
	}
	level := 1 - math.Exp(-(mins-onset)/60)
	return clamp(level*uniform(b.rng, 0.9, 1.1), 0, 1)
}

// SlowdownMultiplier scales delays up as fatigue builds.
func (b *Behavior) SlowdownMultiplier() float64 {
	return (1 + b.FatigueLevel()*b.cfg.MaxSlowdown) * uniform(b.rng, 0.95, 1.05)
}

// MisclickRate is the per-action probability of deliberately missing.
func (b *Behavior) MisclickRate() float64 {
	span := b.cfg.MisclickRateMax - b.cfg.MisclickRateBase
	return b.cfg.MisclickRateBase + b.FatigueLevel()*span
}

// ShouldMisclick draws against the current misclick rate.
func (b *Behavior) ShouldMisclick() bool {
	return b.rng.Float64() < b.MisclickRate()
}

// AccuracyModifier widens movement scatter as fatigue builds, up to 30%.
func (b *Behavior) AccuracyModifier() float64 {
	return 1 + b.FatigueLevel()*0.3
}

// ShouldLapse reports a momentary attention lapse; the chance grows with
// fatigue up to 5%.
func (b *Behavior) ShouldLapse() bool {
	return b.rng.Float64() < b.FatigueLevel()*0.05
}

func (b *Behavior) LapseDuration() time.Duration {
	return time.Duration(uniform(b.rng, 1, 5) * float64(time.Second))
}

// BehaviorStatus is a point-in-time snapshot for operators, not for control
// flow: the jittered reads make consecutive snapshots differ slightly.
type BehaviorStatus struct {
	SessionMinutes    float64 `json:"sessionMinutes"`
	SinceBreakMinutes float64 `json:"sinceBreakMinutes"`
	FatigueLevel      float64 `json:"fatigueLevel"`
	Slowdown          float64 `json:"slowdown"`
	MisclickRate      float64 `json:"misclickRate"`
}

func (b *Behavior) Status() BehaviorStatus {
	return BehaviorStatus{
		SessionMinutes:    b.SessionDuration().Minutes(),
		SinceBreakMinutes: b.TimeSinceBreak().Minutes(),
		FatigueLevel:      b.FatigueLevel(),
		Slowdown:          b.SlowdownMultiplier(),
		MisclickRate:      b.MisclickRate(),
	}
}
