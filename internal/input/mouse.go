package input

import (
	"context"
	"image"

	"github.com/grimleaf/grimleaf/internal/humanize"
	"github.com/grimleaf/grimleaf/internal/utils"
)

// Mouse drives the cursor along planned paths and clicks with sampled
// hold times. Every wait polls ctx, so a stop lands between waypoints
// rather than after the move finishes.
type Mouse struct {
	dispatch Dispatcher
	planner  *Planner
	timing   *humanize.Timing
}

func NewMouse(dispatch Dispatcher, planner *Planner, timing *humanize.Timing) *Mouse {
	return &Mouse{dispatch: dispatch, planner: planner, timing: timing}
}

// MoveTo walks the cursor to target one waypoint at a time.
func (m *Mouse) MoveTo(ctx context.Context, target image.Point) error {
	from, err := m.dispatch.CursorPosition()
	if err != nil {
		return err
	}
	for _, pt := range m.planner.Plan(from, target) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.dispatch.MoveCursor(image.Pt(pt.X, pt.Y)); err != nil {
			return err
		}
		if pt.Delay > 0 {
			if err := utils.Sleep(ctx, pt.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// Click picks a humanly jittered point inside region and presses btn
// there.
func (m *Mouse) Click(ctx context.Context, btn Button, region image.Rectangle) error {
	return m.ClickAt(ctx, btn, m.timing.ClickPoint(region))
}

// ClickAt presses btn on an exact point.
func (m *Mouse) ClickAt(ctx context.Context, btn Button, target image.Point) error {
	if err := m.MoveTo(ctx, target); err != nil {
		return err
	}
	return m.dispatch.PressButton(btn, m.timing.ClickHold())
}

// DoubleClick presses btn twice on the same point with a sampled gap.
func (m *Mouse) DoubleClick(ctx context.Context, btn Button, region image.Rectangle) error {
	target := m.timing.ClickPoint(region)
	if err := m.ClickAt(ctx, btn, target); err != nil {
		return err
	}
	if err := utils.Sleep(ctx, m.timing.DoubleClickDelay()); err != nil {
		return err
	}
	return m.dispatch.PressButton(btn, m.timing.ClickHold())
}
