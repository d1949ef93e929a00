package input

import (
	"context"

	"github.com/grimleaf/grimleaf/internal/humanize"
	"github.com/grimleaf/grimleaf/internal/utils"
)

// Keyboard forwards key taps with typist-style pacing: rapid inside a
// burst, slower after the hands have been off the keys.
type Keyboard struct {
	dispatch Dispatcher
	timing   *humanize.Timing
}

func NewKeyboard(dispatch Dispatcher, timing *humanize.Timing) *Keyboard {
	return &Keyboard{dispatch: dispatch, timing: timing}
}

// Press taps key after waiting out the inter-key gap.
func (k *Keyboard) Press(ctx context.Context, key Key) error {
	if err := utils.Sleep(ctx, k.timing.KeyDelay()); err != nil {
		return err
	}
	if err := k.dispatch.SendKey(key, k.timing.KeyHold()); err != nil {
		return err
	}
	k.timing.RecordKeyPress()
	return nil
}
