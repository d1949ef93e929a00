package bot

import (
	"image"
	"time"

	"github.com/grimleaf/grimleaf/internal/humanize"
	"github.com/grimleaf/grimleaf/internal/input"
)

// IntentKind classifies a physical action.
type IntentKind int

const (
	IntentMove IntentKind = iota
	IntentClick
	IntentKeyPress
	IntentWait
)

// Intent is one physical action decided by a state handler. Handlers
// only emit intents; the executor performs them. Each intent is
// consumed exactly once.
type Intent struct {
	Kind   IntentKind
	Target image.Rectangle // destination for moves and clicks
	Button input.Button
	Key    input.Key
	Action humanize.Action // timing class for the surrounding delays
	Wait   time.Duration   // pause length for IntentWait
}

func ClickIntent(target image.Rectangle, action humanize.Action) Intent {
	return Intent{Kind: IntentClick, Target: target, Button: input.ButtonLeft, Action: action}
}

func MoveIntent(target image.Rectangle, action humanize.Action) Intent {
	return Intent{Kind: IntentMove, Target: target, Action: action}
}

func KeyIntent(key input.Key, action humanize.Action) Intent {
	return Intent{Kind: IntentKeyPress, Key: key, Action: action}
}

func WaitIntent(d time.Duration) Intent {
	return Intent{Kind: IntentWait, Wait: d}
}
