package bot

import (
	"context"

	"github.com/grimleaf/grimleaf/internal/humanize"
	"github.com/grimleaf/grimleaf/internal/input"
	"github.com/grimleaf/grimleaf/internal/utils"
)

// Executor is the physical half of the decide/execute split: it turns
// intents into cursor paths, presses and key taps, wrapped in the
// timing engine's pre- and post-delays. ctx is polled before every
// step, so cancellation lands mid-sequence.
type Executor struct {
	mouse    *input.Mouse
	keyboard *input.Keyboard
	timing   *humanize.Timing
}

func NewExecutor(mouse *input.Mouse, keyboard *input.Keyboard, timing *humanize.Timing) *Executor {
	return &Executor{mouse: mouse, keyboard: keyboard, timing: timing}
}

// Run performs intents in order, stopping at the first failure.
func (e *Executor) Run(ctx context.Context, intents []Intent) error {
	for _, it := range intents {
		if err := e.perform(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) perform(ctx context.Context, it Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch it.Kind {
	case IntentWait:
		return utils.Sleep(ctx, it.Wait)
	case IntentMove:
		if err := utils.Sleep(ctx, e.timing.DelayBefore(it.Action)); err != nil {
			return err
		}
		return e.mouse.MoveTo(ctx, e.timing.ClickPoint(it.Target))
	case IntentClick:
		if err := utils.Sleep(ctx, e.timing.DelayBefore(it.Action)); err != nil {
			return err
		}
		if err := e.mouse.Click(ctx, it.Button, it.Target); err != nil {
			return err
		}
		return utils.Sleep(ctx, e.timing.PostActionDelay(it.Action))
	case IntentKeyPress:
		if err := utils.Sleep(ctx, e.timing.DelayBefore(it.Action)); err != nil {
			return err
		}
		if err := e.keyboard.Press(ctx, it.Key); err != nil {
			return err
		}
		return utils.Sleep(ctx, e.timing.PostActionDelay(it.Action))
	}
	return nil
}
