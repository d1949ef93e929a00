package humanize

import (
	"testing"
	"time"
)

// clockAt pins a Behavior to a controllable clock and starts its session.
func clockAt(seed int64) (*Behavior, *time.Time) {
	b := NewBehavior(DefaultBehaviorConfig(), NewRNG(seed))
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	b.StartSession()
	return b, &clock
}

func TestFatigueZeroBeforeOnset(t *testing.T) {
	b, clock := clockAt(1)

	*clock = clock.Add(20 * time.Minute)
	if level := b.FatigueLevel(); level != 0 {
		t.Errorf("Fatigue %f before onset, want 0", level)
	}
	if m := b.SlowdownMultiplier(); m < 0.95 || m > 1.05 {
		t.Errorf("Fresh slowdown %f outside jitter band [0.95,1.05]", m)
	}
	if r := b.MisclickRate(); r != DefaultBehaviorConfig().MisclickRateBase {
		t.Errorf("Fresh misclick rate %f, want base %f", r, DefaultBehaviorConfig().MisclickRateBase)
	}
}

func TestFatigueRisesAfterOnset(t *testing.T) {
	b, clock := clockAt(2)

	// 90 minutes in: 60 past onset, base level 1-e^-1 = 0.632 plus jitter.
	*clock = clock.Add(90 * time.Minute)
	level := b.FatigueLevel()
	if level < 0.55 || level > 0.70 {
		t.Errorf("Fatigue %f at 90min, want ~0.63 within jitter", level)
	}

	m := b.SlowdownMultiplier()
	if m < 1.20 || m > 1.45 {
		t.Errorf("Slowdown %f at 90min, want within [1.20,1.45]", m)
	}

	r := b.MisclickRate()
	if r < 0.03 || r > 0.04 {
		t.Errorf("Misclick rate %f at 90min, want within [0.03,0.04]", r)
	}

	if a := b.AccuracyModifier(); a < 1.15 || a > 1.22 {
		t.Errorf("Accuracy modifier %f at 90min, want ~1.19", a)
	}
}

func TestRecordBreakReducesFatigue(t *testing.T) {
	b, clock := clockAt(3)

	*clock = clock.Add(90 * time.Minute)
	before := b.FatigueLevel()
	if before <= 0 {
		t.Fatalf("Expected fatigue before the break, got %f", before)
	}

	// A 2.5 minute break recovers half the elapsed session.
	b.RecordBreak(150 * time.Second)
	after := b.FatigueLevel()
	if after > before {
		t.Errorf("Fatigue rose across a break: %f -> %f", before, after)
	}
	if d := b.SessionDuration(); d < 44*time.Minute || d > 46*time.Minute {
		t.Errorf("Session duration %v after half recovery, want ~45m", d)
	}
}

func TestRecordBreakFullRecovery(t *testing.T) {
	b, clock := clockAt(4)

	*clock = clock.Add(2 * time.Hour)

	// Five minutes or more resets the session clock entirely.
	b.RecordBreak(5 * time.Minute)
	if d := b.SessionDuration(); d != 0 {
		t.Errorf("Session duration %v after a full break, want 0", d)
	}
	if level := b.FatigueLevel(); level != 0 {
		t.Errorf("Fatigue %f after a full break, want 0", level)
	}
}

func TestTimeSinceBreak(t *testing.T) {
	b, clock := clockAt(5)

	*clock = clock.Add(10 * time.Minute)
	b.RecordBreak(5 * time.Second)
	*clock = clock.Add(7 * time.Minute)

	if d := b.TimeSinceBreak(); d != 7*time.Minute {
		t.Errorf("TimeSinceBreak %v, want 7m", d)
	}
}

func TestShouldMisclickFrequency(t *testing.T) {
	b, _ := clockAt(6)

	// Fresh session: rate pinned at the 1% base.
	hits := 0
	for i := 0; i < 20000; i++ {
		if b.ShouldMisclick() {
			hits++
		}
	}
	freq := float64(hits) / 20000
	if freq < 0.005 || freq > 0.016 {
		t.Errorf("Misclick frequency %.4f, want ~0.01", freq)
	}
}
