package screen

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/kbinani/screenshot"
)

var ErrWindowNotFound = errors.New("capture window not found")

// Capturer acquires a fresh pixel buffer of the client window. Buffers are
// never mutated by callers, only read.
type Capturer interface {
	Capture() (*image.RGBA, error)
}

// DisplayCapturer grabs a region of a physical display. The zero region means
// the whole display. Window tracking (moving clients, multi-window setups) is
// deliberately out of scope: the agent assumes a fixed client placement, same
// as the reference setups it was tuned on.
type DisplayCapturer struct {
	Display int
	Region  image.Rectangle
}

func NewDisplayCapturer(display int, region image.Rectangle) *DisplayCapturer {
	return &DisplayCapturer{Display: display, Region: region}
}

// Bounds reports the effective capture rectangle in screen coordinates,
// after clipping the configured region to the display. Input dispatch
// anchors window-relative coordinates at its top-left corner.
func (c *DisplayCapturer) Bounds() (image.Rectangle, error) {
	if c.Display < 0 || c.Display >= screenshot.NumActiveDisplays() {
		return image.Rectangle{}, fmt.Errorf("display %d: %w", c.Display, ErrWindowNotFound)
	}

	bounds := screenshot.GetDisplayBounds(c.Display)
	if !c.Region.Empty() {
		bounds = c.Region.Intersect(bounds)
		if bounds.Empty() {
			return image.Rectangle{}, fmt.Errorf("region %v outside display %d: %w", c.Region, c.Display, ErrWindowNotFound)
		}
	}
	return bounds, nil
}

func (c *DisplayCapturer) Capture() (*image.RGBA, error) {
	bounds, err := c.Bounds()
	if err != nil {
		return nil, err
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capturing display %d: %w", c.Display, err)
	}
	return img, nil
}

// StaticCapturer always returns the same buffer. Used by tests and by the
// calibration tooling to replay saved captures.
type StaticCapturer struct {
	Buffer *image.RGBA
	Err    error
	Delay  time.Duration
}

func (c *StaticCapturer) Capture() (*image.RGBA, error) {
	if c.Delay > 0 {
		time.Sleep(c.Delay)
	}
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Buffer == nil {
		return nil, ErrWindowNotFound
	}
	return c.Buffer, nil
}
