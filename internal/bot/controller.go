package bot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/grimleaf/grimleaf/internal/event"
	"github.com/grimleaf/grimleaf/internal/humanize"
	"github.com/grimleaf/grimleaf/internal/input"
	"github.com/grimleaf/grimleaf/internal/utils"
	"github.com/grimleaf/grimleaf/internal/vision"
)

// Capturer grabs one frame of the client window.
type Capturer interface {
	Capture() (*image.RGBA, error)
}

// InventoryPerception is the slice of the vision layer the controller
// needs for inventory work.
type InventoryPerception interface {
	Locate(buf *image.RGBA) (vision.SlotLayout, error)
	RawSlots(buf *image.RGBA, layout vision.SlotLayout, tpl *vision.Template) []int
}

// BankPerception is the slice of the vision layer the controller needs
// for bank work.
type BankPerception interface {
	Locate(buf *image.RGBA) (vision.BankView, error)
	IsOpen(buf *image.RGBA) bool
	FindDeposit(buf *image.RGBA) (vision.MatchResult, bool)
	FindBooth(buf *image.RGBA) (vision.MatchResult, bool)
	IdentifyVisibleItem(buf *image.RGBA, view vision.BankView, candidates []string) (vision.MatchResult, bool)
}

// ControllerConfig tunes the decision layer.
type ControllerConfig struct {
	// Session names this run in logs and events.
	Session string
	// Candidates are the raw item templates the bank slot may hold.
	Candidates []string
	// ProcessedTemplate is the finished item's template, used to decide
	// whether a deposit is needed.
	ProcessedTemplate string
	// MaxRecoveries bounds perception retries before giving up.
	MaxRecoveries int
	// RecoveryBase and RecoveryMax shape the retry backoff.
	RecoveryBase time.Duration
	RecoveryMax  time.Duration
	// SkipSlotChance occasionally processes slots out of order.
	SkipSlotChance float64
	// EscCloseChance picks ESC over clicking the close control.
	EscCloseChance float64
	// DepositClickChance deposits by clicking an item instead of the
	// deposit-all control.
	DepositClickChance float64
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Session:            "grimleaf",
		MaxRecoveries:      5,
		RecoveryBase:       2 * time.Second,
		RecoveryMax:        30 * time.Second,
		SkipSlotChance:     0.05,
		EscCloseChance:     0.70,
		DepositClickChance: 0.30,
	}
}

// Deps are the collaborators the controller drives. Perception and
// input are interfaces so tests can run the loop against fakes.
type Deps struct {
	Capturer  Capturer
	Inventory InventoryPerception
	Bank      BankPerception
	Store     *vision.Store
	Executor  *Executor
	Mouse     *input.Mouse
	Timing    *humanize.Timing
	Behavior  *humanize.Behavior
	Breaks    *humanize.Scheduler
	Drift     *humanize.Drift
	RNG       *rand.Rand
	Stats     *Stats
}

// Controller is the finite-state tick loop: each tick checks
// cancellation, breaks and attention drift, perceives for the current
// state, decides the next state plus intents, and executes the intents
// through the humanized input stack. Everything runs on one goroutine.
type Controller struct {
	log  *slog.Logger
	cfg  ControllerConfig
	deps Deps

	state        State
	identified   string // raw item template picked at the bank
	pending      []Intent
	pendingNext  State
	recoverState State
	recoverCause error
	attempts     int

	cause      error
	cycleStart time.Time
	cycleItems int
	itemStart  time.Time
}

func NewController(log *slog.Logger, cfg ControllerConfig, deps Deps) *Controller {
	if cfg.MaxRecoveries <= 0 {
		cfg.MaxRecoveries = 5
	}
	if cfg.RecoveryBase <= 0 {
		cfg.RecoveryBase = 2 * time.Second
	}
	if cfg.RecoveryMax <= 0 {
		cfg.RecoveryMax = 30 * time.Second
	}
	return &Controller{
		log:   log,
		cfg:   cfg,
		deps:  deps,
		state: Idle,
	}
}

// State reports the current controller state. Only meaningful from the
// loop goroutine; concurrent readers use Stats.Snapshot.
func (c *Controller) State() State {
	return c.state
}

// Run drives the tick loop until the session stops. Cancellation is a
// normal stop and returns nil; a fatal dispatch error or exhausted
// recovery returns the cause.
func (c *Controller) Run(ctx context.Context) error {
	c.deps.Behavior.StartSession()
	c.deps.Breaks.StartSession()
	c.cycleStart = time.Now()
	c.deps.Stats.SetState(c.state.String())

	for c.state != Stopped {
		c.Tick(ctx)
		c.deps.Stats.SetFatigue(c.deps.Behavior.Status())
	}

	if c.cause != nil && !errors.Is(c.cause, context.Canceled) {
		return c.cause
	}
	return nil
}

// Tick advances the loop by one decision. Exported so tests can drive
// the controller step by step.
func (c *Controller) Tick(ctx context.Context) {
	// 1. Emergency stop wins over everything, including pending work.
	if ctx.Err() != nil {
		c.stop(ctx.Err())
		return
	}

	// 2. Scheduled breaks suspend the loop without changing state.
	if brk, due := c.deps.Breaks.Check(); due {
		c.takeBreak(ctx, brk)
		return
	}

	// 3. Fatigue-driven attention wobbles: a lapse stalls, a drift
	// glances at some other part of the screen.
	if c.deps.Behavior.ShouldLapse() {
		if err := utils.Sleep(ctx, c.deps.Behavior.LapseDuration()); err != nil {
			c.stop(err)
		}
		return
	}
	if c.deps.Drift.ShouldDrift(c.deps.Behavior.FatigueLevel()) {
		c.glance(ctx)
		return
	}

	// 4. A misclick from the previous tick left the real intents
	// pending; finish them before deciding anything new.
	if len(c.pending) > 0 {
		intents := c.pending
		c.pending = nil
		c.execute(ctx, intents, c.pendingNext)
		return
	}

	if c.state == Recovering {
		c.recoverTick(ctx)
		return
	}

	// 5. Perceive and decide.
	buf, err := c.deps.Capturer.Capture()
	if err != nil {
		c.fail(fmt.Errorf("capture: %w", err))
		return
	}
	intents, next, err := c.decide(buf)
	if err != nil {
		c.fail(err)
		return
	}

	// 6. Misclick injection: press beside the first click target now,
	// defer the real intents to the next tick.
	if i := firstClick(intents); i >= 0 && c.deps.Behavior.ShouldMisclick() {
		c.pending = intents
		c.pendingNext = next
		c.misclick(ctx, intents[i])
		return
	}

	// 7. Execute and advance.
	c.execute(ctx, intents, next)
}

// decide dispatches to the current state's handler. Handlers only emit
// intents and the next state; execution happens afterwards.
func (c *Controller) decide(buf *image.RGBA) ([]Intent, State, error) {
	switch c.state {
	case Idle:
		return c.decideIdle()
	case Traveling:
		return c.decideTraveling(buf)
	case BankOpening:
		return c.decideBankOpening(buf)
	case BankDepositing:
		return c.decideBankDepositing(buf)
	case BankIdentifying:
		return c.decideBankIdentifying(buf)
	case BankWithdrawing:
		return c.decideBankWithdrawing(buf)
	case BankClosing:
		return c.decideBankClosing(buf)
	case Processing:
		return c.decideProcessing(buf)
	}
	return nil, c.state, fmt.Errorf("no handler for state %s", c.state)
}

func (c *Controller) decideIdle() ([]Intent, State, error) {
	// Settle in before touching anything.
	return []Intent{WaitIntent(c.deps.Timing.ReactionDelay())}, Traveling, nil
}

func (c *Controller) decideTraveling(buf *image.RGBA) ([]Intent, State, error) {
	booth, ok := c.deps.Bank.FindBooth(buf)
	if !ok {
		return nil, c.state, fmt.Errorf("bank booth: %w", vision.ErrTemplateNotFound)
	}
	// Give the panel time to appear before the next tick verifies it.
	intents := []Intent{
		ClickIntent(booth.Bounds(), humanize.ActionTravel),
		WaitIntent(c.deps.Timing.PostActionDelay(humanize.ActionOpenBank)),
	}
	return intents, BankOpening, nil
}

func (c *Controller) decideBankOpening(buf *image.RGBA) ([]Intent, State, error) {
	if !c.deps.Bank.IsOpen(buf) {
		return nil, c.state, fmt.Errorf("bank panel not visible after opening: %w", vision.ErrAnchorNotFound)
	}

	// Finished items still in the inventory go back first.
	next := BankIdentifying
	if c.cfg.ProcessedTemplate != "" {
		if tpl, err := c.deps.Store.Get(c.cfg.ProcessedTemplate); err == nil {
			if layout, err := c.deps.Inventory.Locate(buf); err == nil {
				if len(c.deps.Inventory.RawSlots(buf, layout, tpl)) > 0 {
					next = BankDepositing
				}
			}
		}
	}
	return nil, next, nil
}

func (c *Controller) decideBankDepositing(buf *image.RGBA) ([]Intent, State, error) {
	if c.cfg.DepositClickChance > 0 && c.deps.RNG.Float64() < c.cfg.DepositClickChance {
		if tpl, err := c.deps.Store.Get(c.cfg.ProcessedTemplate); err == nil {
			if layout, err := c.deps.Inventory.Locate(buf); err == nil {
				if slots := c.deps.Inventory.RawSlots(buf, layout, tpl); len(slots) > 0 {
					target := layout.Slot(slots[0])
					return []Intent{ClickIntent(target, humanize.ActionDeposit)}, BankIdentifying, nil
				}
			}
		}
	}
	dep, ok := c.deps.Bank.FindDeposit(buf)
	if !ok {
		return nil, c.state, fmt.Errorf("deposit control: %w", vision.ErrTemplateNotFound)
	}
	return []Intent{ClickIntent(dep.Bounds(), humanize.ActionDeposit)}, BankIdentifying, nil
}

func (c *Controller) decideBankIdentifying(buf *image.RGBA) ([]Intent, State, error) {
	view, err := c.deps.Bank.Locate(buf)
	if err != nil {
		return nil, c.state, err
	}
	m, ok := c.deps.Bank.IdentifyVisibleItem(buf, view, c.cfg.Candidates)
	if !ok {
		return nil, c.state, fmt.Errorf("no candidate item identified in bank: %w", vision.ErrTemplateNotFound)
	}
	c.identified = m.Name
	c.log.Info("identified bank item", "item", m.Name, "confidence", m.Confidence)
	return nil, BankWithdrawing, nil
}

func (c *Controller) decideBankWithdrawing(buf *image.RGBA) ([]Intent, State, error) {
	view, err := c.deps.Bank.Locate(buf)
	if err != nil {
		return nil, c.state, err
	}
	m, ok := c.deps.Bank.IdentifyVisibleItem(buf, view, []string{c.identified})
	if !ok {
		return nil, c.state, fmt.Errorf("withdraw target %q: %w", c.identified, vision.ErrTemplateNotFound)
	}
	c.deps.Stats.RecordBankTrip()
	return []Intent{ClickIntent(m.Bounds(), humanize.ActionWithdraw)}, BankClosing, nil
}

func (c *Controller) decideBankClosing(buf *image.RGBA) ([]Intent, State, error) {
	if c.deps.RNG.Float64() < c.cfg.EscCloseChance {
		return []Intent{KeyIntent(input.KeyEscape, humanize.ActionCloseBank)}, Processing, nil
	}
	// Click the close control; if the anchor has already gone, ESC
	// still closes whatever is left.
	if view, err := c.deps.Bank.Locate(buf); err == nil {
		return []Intent{ClickIntent(view.Anchor.Bounds(), humanize.ActionCloseBank)}, Processing, nil
	}
	return []Intent{KeyIntent(input.KeyEscape, humanize.ActionCloseBank)}, Processing, nil
}

func (c *Controller) decideProcessing(buf *image.RGBA) ([]Intent, State, error) {
	layout, err := c.deps.Inventory.Locate(buf)
	if err != nil {
		return nil, c.state, err
	}
	if c.identified == "" {
		return nil, Traveling, nil
	}
	tpl, err := c.deps.Store.Get(c.identified)
	if err != nil {
		return nil, c.state, fmt.Errorf("raw item template %q: %w", c.identified, err)
	}
	slots := c.deps.Inventory.RawSlots(buf, layout, tpl)
	if len(slots) == 0 {
		c.finishCycle()
		return nil, Traveling, nil
	}

	idx := slots[0]
	if len(slots) > 1 && c.deps.RNG.Float64() < c.cfg.SkipSlotChance {
		idx = slots[1]
	}

	now := time.Now()
	if c.itemStart.IsZero() {
		c.deps.Stats.RecordItem(0)
	} else {
		c.deps.Stats.RecordItem(now.Sub(c.itemStart))
	}
	c.itemStart = now
	c.cycleItems++

	return []Intent{ClickIntent(layout.Slot(idx), humanize.ActionClickItem)}, Processing, nil
}

func (c *Controller) finishCycle() {
	elapsed := time.Since(c.cycleStart)
	c.deps.Stats.RecordCycle()
	c.log.Info("cycle complete", "items", c.cycleItems, "elapsed", elapsed)
	event.Send(event.CycleCompleted(
		event.Text(c.cfg.Session, fmt.Sprintf("processed %d items", c.cycleItems)),
		c.deps.Stats.Snapshot().Cycles, c.cycleItems, elapsed,
	))
	c.cycleStart = time.Now()
	c.cycleItems = 0
	c.itemStart = time.Time{}
}

// execute runs intents and advances to next. Dispatch errors are fatal;
// cancellation stops the session normally.
func (c *Controller) execute(ctx context.Context, intents []Intent, next State) {
	if err := c.deps.Executor.Run(ctx, intents); err != nil {
		c.execFail(err)
		return
	}
	c.attempts = 0
	c.setState(next)
}

func (c *Controller) execFail(err error) {
	var derr *input.DispatchError
	if errors.As(err, &derr) {
		c.log.Error("input dispatch rejected, stopping session", "op", derr.Op, "error", derr.Err)
	}
	c.stop(err)
}

// fail routes a perception failure into Recovering, remembering which
// state to resume.
func (c *Controller) fail(err error) {
	c.attempts++
	if c.state != Recovering {
		c.recoverState = c.state
	}
	c.recoverCause = err
	c.deps.Stats.RecordRecovery()
	c.log.Warn("perception failure", "state", c.recoverState.String(), "attempt", c.attempts, "error", err)
	c.setState(Recovering)
}

// recoverTick backs off, then resumes the failed state for another
// perception attempt. Exhausted retries stop the session with the root
// cause.
func (c *Controller) recoverTick(ctx context.Context) {
	if c.attempts > c.cfg.MaxRecoveries {
		c.log.Error("recovery exhausted", "attempts", c.attempts-1, "cause", c.recoverCause)
		c.stop(fmt.Errorf("recovery exhausted after %d attempts: %w", c.attempts-1, c.recoverCause))
		return
	}
	delay := utils.RetryDelay(c.attempts, c.cfg.RecoveryBase, c.cfg.RecoveryMax)
	event.Send(event.RecoveryAttempted(
		event.Text(c.cfg.Session, "retrying perception"),
		c.attempts, c.recoverCause.Error(),
	))
	if err := utils.Sleep(ctx, delay); err != nil {
		c.stop(err)
		return
	}
	c.setState(c.recoverState)
}

func (c *Controller) takeBreak(ctx context.Context, brk humanize.Break) {
	c.log.Info("taking a break", "kind", brk.Kind.String(), "duration", brk.Duration)
	event.Send(event.BreakStarted(event.Text(c.cfg.Session, "taking a break"), brk.Kind.String(), brk.Duration))
	if err := utils.Sleep(ctx, brk.Duration); err != nil {
		c.stop(err)
		return
	}
	c.deps.Breaks.Complete(brk)
	c.deps.Behavior.RecordBreak(brk.Duration)
	c.deps.Stats.RecordBreakTaken()
	event.Send(event.BreakFinished(event.Text(c.cfg.Session, "back from break"), brk.Kind.String()))
}

// glance wanders the cursor to an uninteresting part of the window and
// lingers there, the way eyes do.
func (c *Controller) glance(ctx context.Context) {
	name, target := c.deps.Drift.Target()
	c.log.Debug("attention drift", "target", name)
	if err := c.deps.Mouse.MoveTo(ctx, target); err != nil {
		c.execFail(err)
		return
	}
	if err := utils.Sleep(ctx, c.deps.Drift.Dwell()); err != nil {
		c.stop(err)
		return
	}
	c.deps.Stats.RecordGlance()
}

// misclick presses beside the real target; the deferred intents carry
// the corrective click on the next tick.
func (c *Controller) misclick(ctx context.Context, it Intent) {
	target := c.deps.Timing.ClickPoint(it.Target)
	stray := c.deps.Timing.MisclickPoint(target)
	c.log.Debug("misclick injected", "state", c.state.String())
	c.deps.Stats.RecordMisclick()
	if err := utils.Sleep(ctx, c.deps.Timing.DelayBefore(it.Action)); err != nil {
		c.stop(err)
		return
	}
	if err := c.deps.Mouse.ClickAt(ctx, it.Button, stray); err != nil {
		c.execFail(err)
		return
	}
}

func (c *Controller) stop(cause error) {
	if c.cause == nil {
		c.cause = cause
	}
	c.setState(Stopped)
}

func (c *Controller) setState(next State) {
	if next == c.state {
		return
	}
	c.log.Debug("state transition", "from", c.state.String(), "to", next.String())
	event.Send(event.StateChanged(event.Text(c.cfg.Session, "entering "+next.String()), c.state.String(), next.String()))
	c.state = next
	c.deps.Stats.SetState(next.String())
}

func firstClick(intents []Intent) int {
	for i, it := range intents {
		if it.Kind == IntentClick {
			return i
		}
	}
	return -1
}
