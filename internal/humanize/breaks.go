package humanize

import (
	"math/rand"
	"time"
)

type BreakKind int

const (
	BreakMicro BreakKind = iota
	BreakLong
)

func (k BreakKind) String() string {
	if k == BreakLong {
		return "long"
	}
	return "micro"
}

// Span is an inclusive duration range draws come from.
type Span struct {
	Min time.Duration
	Max time.Duration
}

func (s Span) draw(rng *rand.Rand) time.Duration {
	return time.Duration(uniform(rng, float64(s.Min), float64(s.Max)))
}

type BreakConfig struct {
	MicroInterval Span // time between micro breaks
	MicroDuration Span
	LongInterval  Span
	LongDuration  Span
}

func DefaultBreakConfig() BreakConfig {
	return BreakConfig{
		MicroInterval: Span{8 * time.Minute, 15 * time.Minute},
		MicroDuration: Span{2 * time.Second, 10 * time.Second},
		LongInterval:  Span{45 * time.Minute, 90 * time.Minute},
		LongDuration:  Span{1 * time.Minute, 5 * time.Minute},
	}
}

// Break is one scheduled rest. Duration is what the schedule drew; Check
// jitters it when the break actually fires.
type Break struct {
	Kind     BreakKind
	Due      time.Time
	Duration time.Duration
}

// Scheduler keeps two independent break schedules, micro and long. Each
// redraws its next due time right after its break completes, never on a fixed
// cadence. The controller consults it once per tick and suspends itself for
// the returned duration.
type Scheduler struct {
	cfg BreakConfig
	rng *rand.Rand
	now func() time.Time

	micro Break
	long  Break

	taken []Break
}

func NewScheduler(cfg BreakConfig, rng *rand.Rand) *Scheduler {
	return &Scheduler{cfg: cfg, rng: rng, now: time.Now}
}

// StartSession draws the first due time for both schedules.
func (s *Scheduler) StartSession() {
	s.taken = s.taken[:0]
	s.scheduleMicro()
	s.scheduleLong()
}

// Check reports the break due right now, if any. When both schedules are due
// at once the long break wins and the micro schedule is deferred: it stays
// due and gets redrawn at Complete time rather than being skipped. The fired
// duration carries 80-120% jitter over the scheduled draw.
func (s *Scheduler) Check() (Break, bool) {
	now := s.now()
	if !s.long.Due.IsZero() && !now.Before(s.long.Due) {
		return s.fire(s.long), true
	}
	if !s.micro.Due.IsZero() && !now.Before(s.micro.Due) {
		return s.fire(s.micro), true
	}
	return Break{}, false
}

func (s *Scheduler) fire(brk Break) Break {
	brk.Duration = time.Duration(float64(brk.Duration) * uniform(s.rng, 0.8, 1.2))
	return brk
}

// Complete records that brk was taken and redraws its schedule. A completed
// long break also redraws the micro schedule, pushing any deferred micro
// break out instead of firing it back-to-back.
func (s *Scheduler) Complete(brk Break) {
	s.taken = append(s.taken, brk)
	switch brk.Kind {
	case BreakLong:
		s.scheduleLong()
		s.scheduleMicro()
	default:
		s.scheduleMicro()
	}
}

// ForceMicro returns an immediately due micro break, jittered like a
// scheduled one. Complete still applies.
func (s *Scheduler) ForceMicro() Break {
	return s.fire(Break{
		Kind:     BreakMicro,
		Due:      s.now(),
		Duration: s.cfg.MicroDuration.draw(s.rng),
	})
}

// Next reports the sooner of the two pending breaks and how far away it is.
func (s *Scheduler) Next() (Break, time.Duration) {
	next := s.micro
	if !s.long.Due.IsZero() && (next.Due.IsZero() || !s.long.Due.After(next.Due)) {
		next = s.long
	}
	wait := next.Due.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	return next, wait
}

// Count returns how many breaks of the given kind have completed.
func (s *Scheduler) Count(kind BreakKind) int {
	n := 0
	for _, b := range s.taken {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

// TotalBreakTime is the summed duration of all completed breaks.
func (s *Scheduler) TotalBreakTime() time.Duration {
	var total time.Duration
	for _, b := range s.taken {
		total += b.Duration
	}
	return total
}

func (s *Scheduler) scheduleMicro() {
	s.micro = Break{
		Kind:     BreakMicro,
		Due:      s.now().Add(s.cfg.MicroInterval.draw(s.rng)),
		Duration: s.cfg.MicroDuration.draw(s.rng),
	}
}

func (s *Scheduler) scheduleLong() {
	s.long = Break{
		Kind:     BreakLong,
		Due:      s.now().Add(s.cfg.LongInterval.draw(s.rng)),
		Duration: s.cfg.LongDuration.draw(s.rng),
	}
}
