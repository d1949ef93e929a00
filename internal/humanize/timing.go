package humanize

import (
	"image"
	"math"
	"math/rand"
	"time"
)

// Action classifies what the next input is for, which decides its timing
// profile.
type Action int

const (
	ActionClickItem Action = iota
	ActionOpenBank
	ActionDeposit
	ActionWithdraw
	ActionCloseBank
	ActionTravel
)

func (a Action) String() string {
	switch a {
	case ActionClickItem:
		return "click_item"
	case ActionOpenBank:
		return "open_bank"
	case ActionDeposit:
		return "deposit"
	case ActionWithdraw:
		return "withdraw"
	case ActionCloseBank:
		return "close_bank"
	case ActionTravel:
		return "travel"
	default:
		return "unknown"
	}
}

// TimingConfig parameterises every delay draw. All values are milliseconds.
type TimingConfig struct {
	// Item clicks are the fast, repetitive work.
	ClickItemMean float64
	ClickItemStd  float64
	ClickItemMin  float64
	ClickItemMax  float64

	// Bank interactions are slower and more deliberate.
	BankActionMean float64
	BankActionStd  float64
	BankActionMin  float64
	BankActionMax  float64

	// Settle time after each banking step completes.
	AfterOpenBank  float64
	AfterDeposit   float64
	AfterWithdraw  float64
	AfterCloseBank float64

	// Button/key hold duration.
	ClickHoldMean float64
	ClickHoldMin  float64
	ClickHoldMax  float64

	// Per-call probabilities of stacking a pause on top of the base draw.
	ThinkChance float64
	MicroChance float64
}

func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		ClickItemMean:  250,
		ClickItemStd:   75,
		ClickItemMin:   150,
		ClickItemMax:   500,
		BankActionMean: 800,
		BankActionStd:  200,
		BankActionMin:  500,
		BankActionMax:  1500,
		AfterOpenBank:  400,
		AfterDeposit:   300,
		AfterWithdraw:  300,
		AfterCloseBank: 200,
		ClickHoldMean:  100,
		ClickHoldMin:   50,
		ClickHoldMax:   200,
		ThinkChance:    0.05,
		MicroChance:    0.02,
	}
}

// Timing draws every delay, hold duration and click coordinate the executor
// needs. Draws come from right-skewed distributions, not uniform ranges:
// uniform randomness is itself a detectable fingerprint. Every duration is
// stretched by the behavior model's current fatigue.
type Timing struct {
	cfg      TimingConfig
	rng      *rand.Rand
	behavior *Behavior
	now      func() time.Time

	lastKey time.Time
}

func NewTiming(cfg TimingConfig, rng *rand.Rand, behavior *Behavior) *Timing {
	return &Timing{cfg: cfg, rng: rng, behavior: behavior, now: time.Now}
}

// DelayBefore is the pause preceding an action. On top of the base draw, each
// call independently risks a think pause (rare, long) and a micro pause
// (frequent, short); the two can stack.
func (t *Timing) DelayBefore(action Action) time.Duration {
	ms := t.baseDelay(action) * t.fatigue()

	if t.rng.Float64() < t.cfg.ThinkChance {
		ms += math.Min(sampleGamma(t.rng, 2, 300)+500, 2000)
	}
	if t.rng.Float64() < t.cfg.MicroChance {
		ms += math.Min(sampleGamma(t.rng, 2, 200)+300, 1500)
	}
	return durationMs(ms)
}

func (t *Timing) baseDelay(action Action) float64 {
	c := t.cfg
	switch action {
	case ActionClickItem:
		return gammaClamped(t.rng, c.ClickItemMean, c.ClickItemStd, c.ClickItemMin, c.ClickItemMax)
	case ActionOpenBank, ActionDeposit, ActionWithdraw:
		return gammaClamped(t.rng, c.BankActionMean, c.BankActionStd, c.BankActionMin, c.BankActionMax)
	case ActionCloseBank:
		base := c.AfterCloseBank
		return gammaClamped(t.rng, base, base*0.3, base*0.5, base*2)
	default:
		return gammaClamped(t.rng, 500, 100, 300, 1000)
	}
}

// PostActionDelay is the settle time after an action completes, 80-120% of
// the configured base. Only banking steps carry a settle time; everything
// else returns zero and relies on DelayBefore pacing.
func (t *Timing) PostActionDelay(action Action) time.Duration {
	var base float64
	switch action {
	case ActionOpenBank:
		base = t.cfg.AfterOpenBank
	case ActionDeposit:
		base = t.cfg.AfterDeposit
	case ActionWithdraw:
		base = t.cfg.AfterWithdraw
	case ActionCloseBank:
		base = t.cfg.AfterCloseBank
	default:
		return 0
	}
	return durationMs(base * uniform(t.rng, 0.8, 1.2) * t.fatigue())
}

// ReactionDelay models noticing something changed on screen.
func (t *Timing) ReactionDelay() time.Duration {
	return durationMs(clamp(t.rng.NormFloat64()*50+250, 150, 500))
}

// KeyDelay is the pause before a keypress. The first key after mouse work
// carries hand-travel time; keys in quick succession come much faster.
func (t *Timing) KeyDelay() time.Duration {
	if !t.lastKey.IsZero() && t.now().Sub(t.lastKey) < 2*time.Second {
		return durationMs(uniform(t.rng, 50, 150))
	}
	return durationMs(math.Min(sampleGamma(t.rng, 2, 80)+150, 400))
}

// RecordKeyPress marks the moment a key went down; KeyDelay keys off it.
func (t *Timing) RecordKeyPress() {
	t.lastKey = t.now()
}

// ClickHold is how long the mouse button stays down.
func (t *Timing) ClickHold() time.Duration {
	ms := sampleGamma(t.rng, 2, t.cfg.ClickHoldMean/4) * 2
	return durationMs(clamp(ms, t.cfg.ClickHoldMin, t.cfg.ClickHoldMax))
}

// KeyHold is how long a key stays down.
func (t *Timing) KeyHold() time.Duration {
	return durationMs(clamp(sampleGamma(t.rng, 2, 30), 30, 200))
}

// DoubleClickDelay separates the two presses of a double click.
func (t *Timing) DoubleClickDelay() time.Duration {
	return durationMs(uniform(t.rng, 100, 250))
}

// ClickPoint picks where inside region to aim: a 2-D Gaussian around the
// center with spread proportional to the region's size, clamped to stay
// inside it.
func (t *Timing) ClickPoint(region image.Rectangle) image.Point {
	cx := float64(region.Min.X+region.Max.X) / 2
	cy := float64(region.Min.Y+region.Max.Y) / 2
	x := t.rng.NormFloat64()*float64(region.Dx())/6 + cx
	y := t.rng.NormFloat64()*float64(region.Dy())/6 + cy
	return image.Pt(
		int(math.Round(clamp(x, float64(region.Min.X), float64(region.Max.X-1)))),
		int(math.Round(clamp(y, float64(region.Min.Y), float64(region.Max.Y-1)))),
	)
}

// MisclickPoint lands near the target but decidedly off it, the way a tired
// miss hits an adjacent slot.
func (t *Timing) MisclickPoint(target image.Point) image.Point {
	angle := uniform(t.rng, 0, 2*math.Pi)
	dist := uniform(t.rng, 20, 50)
	return image.Pt(
		target.X+int(dist*math.Cos(angle)),
		target.Y+int(dist*math.Sin(angle)),
	)
}

func (t *Timing) fatigue() float64 {
	m := t.behavior.SlowdownMultiplier()
	if m < 1 {
		return 1
	}
	return m
}

func durationMs(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
