package humanize

import (
	"testing"
	"time"
)

func testScheduler(seed int64) (*Scheduler, *time.Time) {
	s := NewScheduler(DefaultBreakConfig(), NewRNG(seed))
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	s.StartSession()
	return s, &clock
}

func TestNoBreakBeforeDue(t *testing.T) {
	s, clock := testScheduler(1)

	// Micro breaks are at least 8 minutes out.
	*clock = clock.Add(7 * time.Minute)
	if brk, due := s.Check(); due {
		t.Fatalf("Break %v fired %v before anything was due", brk.Kind, brk.Duration)
	}
}

func TestMicroBreakFiresWhenDue(t *testing.T) {
	s, clock := testScheduler(2)

	*clock = s.micro.Due
	brk, due := s.Check()
	if !due {
		t.Fatalf("Expected a break at the micro due time")
	}
	if brk.Kind != BreakMicro {
		t.Errorf("Break kind %v, want micro", brk.Kind)
	}
	// Scheduled draw is 2-10s; the fired duration carries 80-120% jitter.
	if brk.Duration < 1600*time.Millisecond || brk.Duration > 12*time.Second {
		t.Errorf("Micro duration %v outside the jittered band", brk.Duration)
	}
}

func TestNextDueStrictlyAfterCompletion(t *testing.T) {
	s, clock := testScheduler(3)

	*clock = s.micro.Due
	brk, due := s.Check()
	if !due {
		t.Fatalf("Expected a due break")
	}

	*clock = clock.Add(brk.Duration)
	s.Complete(brk)

	if !s.micro.Due.After(*clock) {
		t.Errorf("Next micro due %v not after completion %v", s.micro.Due, *clock)
	}
}

func TestLongBreakTakesPrecedence(t *testing.T) {
	s, clock := testScheduler(4)

	// Jump past both due times at once.
	later := s.micro.Due
	if s.long.Due.After(later) {
		later = s.long.Due
	}
	*clock = later

	brk, due := s.Check()
	if !due || brk.Kind != BreakLong {
		t.Fatalf("Expected the long break to win, got %v (due=%v)", brk.Kind, due)
	}

	// Completing the long break defers the still-due micro break instead of
	// firing it back-to-back.
	*clock = clock.Add(brk.Duration)
	s.Complete(brk)
	if _, due := s.Check(); due {
		t.Errorf("A break fired immediately after the long break completed")
	}
	if !s.micro.Due.After(*clock) {
		t.Errorf("Deferred micro due %v not pushed past %v", s.micro.Due, *clock)
	}
}

func TestFiredDurationJitterBounds(t *testing.T) {
	s, clock := testScheduler(5)

	for i := 0; i < 200; i++ {
		*clock = s.micro.Due
		brk, due := s.Check()
		if !due {
			t.Fatalf("Expected a due micro break")
		}
		min := time.Duration(0.8 * float64(DefaultBreakConfig().MicroDuration.Min))
		max := time.Duration(1.2 * float64(DefaultBreakConfig().MicroDuration.Max))
		if brk.Duration < min || brk.Duration > max {
			t.Fatalf("Fired duration %v outside [%v,%v]", brk.Duration, min, max)
		}
		s.Complete(brk)
	}

	if got := s.Count(BreakMicro); got != 200 {
		t.Errorf("Micro count %d, want 200", got)
	}
	if s.TotalBreakTime() <= 0 {
		t.Errorf("Total break time %v, want positive", s.TotalBreakTime())
	}
}

func TestForceMicro(t *testing.T) {
	s, clock := testScheduler(6)

	brk := s.ForceMicro()
	if brk.Kind != BreakMicro {
		t.Errorf("Forced kind %v, want micro", brk.Kind)
	}
	if brk.Due.After(*clock) {
		t.Errorf("Forced break due %v in the future", brk.Due)
	}
	if brk.Duration <= 0 {
		t.Errorf("Forced duration %v, want positive", brk.Duration)
	}
}

func TestNextReportsSoonerSchedule(t *testing.T) {
	s, clock := testScheduler(7)

	next, wait := s.Next()
	if next.Kind != BreakMicro {
		t.Errorf("Next kind %v, want micro (micro intervals are shorter)", next.Kind)
	}
	if wait <= 0 {
		t.Errorf("Wait %v, want positive before anything is due", wait)
	}

	*clock = s.micro.Due.Add(time.Minute)
	if _, wait := s.Next(); wait != 0 {
		t.Errorf("Wait %v past due, want 0", wait)
	}
}
