package vision

import (
	"errors"
	"fmt"
	"image"
)

var (
	ErrAnchorNotFound    = errors.New("bank anchor not found")
	ErrRegionOutOfBounds = errors.New("derived region out of bounds")
	ErrInventoryNotFound = errors.New("inventory grid not found")
	ErrTemplateNotFound  = errors.New("template not found")
)

// PerceptionError carries enough context to reproduce a failed detection
// without inspecting internal state: which locator failed, the region it was
// looking at and the best confidence it saw.
type PerceptionError struct {
	Locator    string
	Region     image.Rectangle
	Confidence float64
	Err        error
}

func (e *PerceptionError) Error() string {
	return fmt.Sprintf("%s: %v (region=%v, confidence=%.3f)", e.Locator, e.Err, e.Region, e.Confidence)
}

func (e *PerceptionError) Unwrap() error {
	return e.Err
}
