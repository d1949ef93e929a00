package vision

import (
	"image"
	"math"
)

// SlotLayout is the on-screen inventory grid: one region divided into
// Rows×Cols slot rectangles in row-major order.
type SlotLayout struct {
	Grid image.Rectangle
	Rows int
	Cols int
}

func (l SlotLayout) Count() int {
	return l.Rows * l.Cols
}

// Slot returns the i-th slot rectangle, row-major. Slots partition the grid
// by even division so they never overlap.
func (l SlotLayout) Slot(i int) image.Rectangle {
	row, col := i/l.Cols, i%l.Cols
	x0 := l.Grid.Min.X + col*l.Grid.Dx()/l.Cols
	x1 := l.Grid.Min.X + (col+1)*l.Grid.Dx()/l.Cols
	y0 := l.Grid.Min.Y + row*l.Grid.Dy()/l.Rows
	y1 := l.Grid.Min.Y + (row+1)*l.Grid.Dy()/l.Rows
	return image.Rect(x0, y0, x1, y1)
}

func (l SlotLayout) Slots() []image.Rectangle {
	slots := make([]image.Rectangle, l.Count())
	for i := range slots {
		slots[i] = l.Slot(i)
	}
	return slots
}

type InventoryConfig struct {
	Rows int
	Cols int

	// Slot pitch at scale 1.0; the proportional fallback sizes its grid
	// from these.
	SlotWidth  int
	SlotHeight int

	// PanelTemplate is the captured reference of the full inventory panel.
	PanelTemplate  string
	PanelThreshold float64

	// Proportional fallback placement as a fraction of the window, clipped
	// to keep EdgeMargin pixels inside the window bounds.
	FallbackX  float64
	FallbackY  float64
	EdgeMargin int

	// Per-slot item checks run single-scale at this reduced threshold:
	// inside an already-located grid, position is certain and cheap checks
	// beat multi-scale accuracy.
	SlotThreshold float64
}

func DefaultInventoryConfig() InventoryConfig {
	return InventoryConfig{
		Rows:           7,
		Cols:           4,
		SlotWidth:      42,
		SlotHeight:     36,
		PanelTemplate:  "inventory_panel",
		PanelThreshold: 0.70,
		FallbackX:      0.73,
		FallbackY:      0.42,
		EdgeMargin:     10,
		SlotThreshold:  0.60,
	}
}

// Inventory background in HSV: the brown panel texture the color heuristic
// scans for.
var invBackground = hsvRange{
	hMin: 20, hMax: 50,
	sMin: 0.08, sMax: 0.31,
	vMin: 0.16, vMax: 0.39,
}

type hsvRange struct {
	hMin, hMax float64
	sMin, sMax float64
	vMin, vMax float64
}

func (r hsvRange) contains(h, s, v float64) bool {
	return h >= r.hMin && h <= r.hMax && s >= r.sMin && s <= r.sMax && v >= r.vMin && v <= r.vMax
}

type locateStrategy struct {
	name    string
	attempt func(buf *image.RGBA) (image.Rectangle, bool)
}

// InventoryLocator finds the inventory grid with a cascade of strategies,
// first validated success wins: panel template match, then the background
// color heuristic, then proportional placement. Every result is validated
// before acceptance; an invalid one falls through to the next strategy. All
// three failing is a hard failure, never a default guess.
type InventoryLocator struct {
	matcher    *Matcher
	store      *Store
	cfg        InventoryConfig
	strategies []locateStrategy
}

func NewInventoryLocator(matcher *Matcher, store *Store, cfg InventoryConfig) *InventoryLocator {
	l := &InventoryLocator{matcher: matcher, store: store, cfg: cfg}
	l.strategies = []locateStrategy{
		{name: "template", attempt: l.byTemplate},
		{name: "color", attempt: l.byBackgroundColor},
		{name: "proportional", attempt: l.byProportion},
	}
	return l
}

func (l *InventoryLocator) Locate(buf *image.RGBA) (SlotLayout, error) {
	for _, s := range l.strategies {
		region, ok := s.attempt(buf)
		if !ok {
			continue
		}
		if !l.validGrid(buf, region) {
			continue
		}
		return SlotLayout{Grid: region, Rows: l.cfg.Rows, Cols: l.cfg.Cols}, nil
	}

	return SlotLayout{}, &PerceptionError{
		Locator: "inventory",
		Region:  buf.Bounds(),
		Err:     ErrInventoryNotFound,
	}
}

// RawSlots returns the indices of slots still holding the raw item, checked
// per slot against tpl at the reduced slot threshold.
func (l *InventoryLocator) RawSlots(buf *image.RGBA, layout SlotLayout, tpl *Template) []int {
	var raw []int
	single := NewMatcher(MatcherConfig{
		Threshold:  l.cfg.SlotThreshold,
		ScaleMin:   1.0,
		ScaleMax:   1.0,
		ScaleSteps: 1,
	})
	for i := 0; i < layout.Count(); i++ {
		if _, ok := single.MatchIn(buf, tpl, layout.Slot(i)); ok {
			raw = append(raw, i)
		}
	}
	return raw
}

func (l *InventoryLocator) byTemplate(buf *image.RGBA) (image.Rectangle, bool) {
	tpl, err := l.store.Get(l.cfg.PanelTemplate)
	if err != nil {
		return image.Rectangle{}, false
	}
	m, ok := l.matcher.MatchThreshold(buf, tpl, buf.Bounds(), l.cfg.PanelThreshold)
	if !ok {
		return image.Rectangle{}, false
	}
	return m.Bounds(), true
}

// byBackgroundColor finds the largest connected component of pixels inside
// the inventory background range and takes its bounding box, accepting it
// only when the box is grid-sized and grid-shaped.
func (l *InventoryLocator) byBackgroundColor(buf *image.RGBA) (image.Rectangle, bool) {
	b := buf.Bounds()
	w, h := b.Dx(), b.Dy()

	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		off := buf.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			p := buf.Pix[off+x*4 : off+x*4+3 : off+x*4+3]
			hue, sat, val := rgbToHSV(p[0], p[1], p[2])
			mask[y*w+x] = invBackground.contains(hue, sat, val)
		}
	}

	box, count := largestComponent(mask, w, h)
	if count == 0 {
		return image.Rectangle{}, false
	}

	minW := int(float64(l.cfg.Cols*l.cfg.SlotWidth) * 0.6)
	minH := int(float64(l.cfg.Rows*l.cfg.SlotHeight) * 0.6)
	if box.Dx() < minW || box.Dy() < minH {
		return image.Rectangle{}, false
	}

	wantAspect := float64(l.cfg.Cols*l.cfg.SlotWidth) / float64(l.cfg.Rows*l.cfg.SlotHeight)
	aspect := float64(box.Dx()) / float64(box.Dy())
	if math.Abs(aspect-wantAspect) > wantAspect*0.4 {
		return image.Rectangle{}, false
	}

	return box.Add(b.Min), true
}

func (l *InventoryLocator) byProportion(buf *image.RGBA) (image.Rectangle, bool) {
	b := buf.Bounds()
	gw := l.cfg.Cols * l.cfg.SlotWidth
	gh := l.cfg.Rows * l.cfg.SlotHeight

	x := b.Min.X + int(math.Round(float64(b.Dx())*l.cfg.FallbackX))
	y := b.Min.Y + int(math.Round(float64(b.Dy())*l.cfg.FallbackY))

	margin := l.cfg.EdgeMargin
	if x+gw > b.Max.X-margin {
		x = b.Max.X - margin - gw
	}
	if y+gh > b.Max.Y-margin {
		y = b.Max.Y - margin - gh
	}
	if x < b.Min.X {
		x = b.Min.X
	}
	if y < b.Min.Y {
		y = b.Min.Y
	}

	return image.Rect(x, y, x+gw, y+gh), true
}

// validGrid rejects regions that cannot hold the grid on-screen.
func (l *InventoryLocator) validGrid(buf *image.RGBA, region image.Rectangle) bool {
	if !region.In(buf.Bounds()) {
		return false
	}
	return region.Dx() >= l.cfg.Cols && region.Dy() >= l.cfg.Rows
}

// largestComponent labels 4-connected components of mask and returns the
// bounding box and pixel count of the biggest one. Coordinates are
// mask-local.
func largestComponent(mask []bool, w, h int) (image.Rectangle, int) {
	visited := make([]bool, len(mask))
	var best image.Rectangle
	bestCount := 0

	var stack []int
	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		minX, minY := w, h
		maxX, maxY := 0, 0
		count := 0

		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w

			count++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, next := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if next < 0 || next >= len(mask) {
					continue
				}
				// Horizontal neighbors must stay on the same row.
				if (next == idx-1 || next == idx+1) && next/w != y {
					continue
				}
				if mask[next] && !visited[next] {
					visited[next] = true
					stack = append(stack, next)
				}
			}
		}

		if count > bestCount {
			bestCount = count
			best = image.Rect(minX, minY, maxX+1, maxY+1)
		}
	}

	return best, bestCount
}
