package event

import (
	"context"
	"log/slog"
)

type Handler func(ctx context.Context, e Event) error

var events = make(chan Event, 32)

// Send publishes e to the running listener. It never blocks: when the
// queue is full the event is dropped rather than stalling the tick loop.
func Send(e Event) {
	select {
	case events <- e:
	default:
	}
}

// Listener fans incoming events out to registered handlers on a single
// goroutine.
type Listener struct {
	log      *slog.Logger
	handlers []Handler
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{log: logger}
}

// Register adds a handler. Not safe to call once Listen is running.
func (l *Listener) Register(h Handler) {
	l.handlers = append(l.handlers, h)
}

// Listen drains the event queue until ctx is cancelled. Handler errors
// are logged and never stop the loop.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case e := <-events:
			for _, h := range l.handlers {
				if err := h(ctx, e); err != nil {
					l.log.Error("error running event handler", slog.Any("error", err))
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}
