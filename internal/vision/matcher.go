// Package vision locates interface regions and identifies items from screen
// captures. Detection is scale-aware: the client can run at different
// resolutions and zoom levels, so every pixel constant in here is a base
// value at scale 1.0 that gets multiplied by the detected scale.
package vision

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// MatchResult is the outcome of one template search. At is the top-left of
// the match in buffer coordinates, Width/Height the dimensions of the scaled
// template that produced it.
type MatchResult struct {
	Name       string
	At         image.Point
	Width      int
	Height     int
	Confidence float64
	Scale      float64
}

func (m MatchResult) Center() image.Point {
	return image.Pt(m.At.X+m.Width/2, m.At.Y+m.Height/2)
}

func (m MatchResult) Bounds() image.Rectangle {
	return image.Rect(m.At.X, m.At.Y, m.At.X+m.Width, m.At.Y+m.Height)
}

type MatcherConfig struct {
	Threshold  float64 // confidence below this is reported as no match
	ScaleMin   float64
	ScaleMax   float64
	ScaleSteps int
}

func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Threshold:  0.80,
		ScaleMin:   0.8,
		ScaleMax:   1.2,
		ScaleSteps: 5,
	}
}

// Matcher runs multi-scale normalized cross-correlation of a template
// against a pixel buffer. Correlation happens on the luma plane; window
// statistics come from integral images built once per search and shared
// across all scales.
type Matcher struct {
	cfg MatcherConfig
}

func NewMatcher(cfg MatcherConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match searches the whole buffer using the configured threshold.
func (m *Matcher) Match(buf *image.RGBA, tpl *Template) (MatchResult, bool) {
	return m.MatchThreshold(buf, tpl, buf.Bounds(), m.cfg.Threshold)
}

// MatchIn restricts the search to region (clipped to the buffer).
func (m *Matcher) MatchIn(buf *image.RGBA, tpl *Template, region image.Rectangle) (MatchResult, bool) {
	return m.MatchThreshold(buf, tpl, region, m.cfg.Threshold)
}

// MatchThreshold searches region with a caller-supplied confidence threshold.
// Returns ok=false when nothing reaches the threshold; callers must not use
// the result in that case.
func (m *Matcher) MatchThreshold(buf *image.RGBA, tpl *Template, region image.Rectangle, threshold float64) (MatchResult, bool) {
	region = region.Intersect(buf.Bounds())
	if region.Empty() {
		return MatchResult{}, false
	}

	rw, rh := region.Dx(), region.Dy()
	plane := lumaPlane(buf, region)
	ii := newIntegral(plane, rw, rh)

	best := MatchResult{Confidence: -1}
	for _, scale := range scaleSeq(m.cfg.ScaleMin, m.cfg.ScaleMax, m.cfg.ScaleSteps) {
		tw := int(math.Round(float64(tpl.Image.Bounds().Dx()) * scale))
		th := int(math.Round(float64(tpl.Image.Bounds().Dy()) * scale))
		if tw < 1 || th < 1 || tw > rw || th > rh {
			// Template does not fit the buffer at this scale; never an error.
			continue
		}

		scaled := resizeRGBA(tpl.Image, tw, th)
		tplane := lumaPlane(scaled, scaled.Bounds())

		n := float64(tw * th)
		var tSum, tSqSum float64
		for _, v := range tplane {
			tSum += v
			tSqSum += v * v
		}
		tMean := tSum / n
		tDenom := tSqSum - tSum*tSum/n
		if tDenom <= 1e-9 {
			// Flat template carries no correlation signal.
			continue
		}

		conf, at := bestAtScale(plane, ii, rw, rh, tplane, tw, th, tMean, tDenom)
		if conf < 0 {
			continue
		}

		if better(conf, scale, best) {
			best = MatchResult{
				Name:       tpl.Name,
				At:         at.Add(region.Min),
				Width:      tw,
				Height:     th,
				Confidence: conf,
				Scale:      scale,
			}
		}
	}

	if best.Confidence < threshold {
		return MatchResult{}, false
	}
	return best, true
}

// better reports whether a candidate (conf, scale) beats the current best.
// Exact confidence ties prefer the scale closer to 1.0 to avoid accidental
// upscaling artifacts; still tied, the smaller scale wins.
func better(conf, scale float64, best MatchResult) bool {
	const eps = 1e-9
	switch {
	case conf > best.Confidence+eps:
		return true
	case conf < best.Confidence-eps:
		return false
	}
	dn, do := math.Abs(scale-1), math.Abs(best.Scale-1)
	if dn != do {
		return dn < do
	}
	return scale < best.Scale
}

// bestAtScale slides the scaled template across the search plane and returns
// the best correlation score and its top-left offset, or (-1, _) when no
// window has usable variance.
func bestAtScale(plane []float64, ii *integral, rw, rh int, tplane []float64, tw, th int, tMean, tDenom float64) (float64, image.Point) {
	bestConf := -1.0
	var bestAt image.Point

	n := float64(tw * th)
	for y := 0; y <= rh-th; y++ {
		for x := 0; x <= rw-tw; x++ {
			wSum, wSqSum := ii.window(x, y, tw, th)
			wDenom := wSqSum - wSum*wSum/n
			if wDenom <= 1e-9 {
				continue
			}

			var dot float64
			for ty := 0; ty < th; ty++ {
				row := (y+ty)*rw + x
				trow := ty * tw
				for tx := 0; tx < tw; tx++ {
					dot += plane[row+tx] * tplane[trow+tx]
				}
			}

			// Pearson numerator: sum((I-muI)(T-muT)) = sum(IT) - muT*sum(I).
			conf := (dot - tMean*wSum) / math.Sqrt(wDenom*tDenom)
			if conf > bestConf {
				bestConf = conf
				bestAt = image.Pt(x, y)
			}
		}
	}

	if bestConf < 0 {
		return -1, bestAt
	}
	if bestConf > 1 {
		bestConf = 1
	}
	return bestConf, bestAt
}

// scaleSeq returns steps evenly spaced scale factors across [min, max],
// bounds inclusive. A single step collapses to min.
func scaleSeq(min, max float64, steps int) []float64 {
	if steps <= 1 {
		return []float64{min}
	}
	out := make([]float64, steps)
	step := (max - min) / float64(steps-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}

// lumaPlane extracts the region as row-major Rec. 601 luma values.
func lumaPlane(img *image.RGBA, r image.Rectangle) []float64 {
	w, h := r.Dx(), r.Dy()
	plane := make([]float64, w*h)
	for y := 0; y < h; y++ {
		src := img.PixOffset(r.Min.X, r.Min.Y+y)
		dst := y * w
		for x := 0; x < w; x++ {
			p := img.Pix[src+x*4 : src+x*4+3 : src+x*4+3]
			plane[dst+x] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		}
	}
	return plane
}

// integral holds summed-area tables of a plane and its squares, padded with a
// zero row and column so window lookups need no bounds checks.
type integral struct {
	w, h  int
	sum   []float64
	sqSum []float64
}

func newIntegral(plane []float64, w, h int) *integral {
	ii := &integral{
		w:     w + 1,
		h:     h + 1,
		sum:   make([]float64, (w+1)*(h+1)),
		sqSum: make([]float64, (w+1)*(h+1)),
	}
	for y := 1; y <= h; y++ {
		var rowSum, rowSq float64
		for x := 1; x <= w; x++ {
			v := plane[(y-1)*w+(x-1)]
			rowSum += v
			rowSq += v * v
			ii.sum[y*ii.w+x] = ii.sum[(y-1)*ii.w+x] + rowSum
			ii.sqSum[y*ii.w+x] = ii.sqSum[(y-1)*ii.w+x] + rowSq
		}
	}
	return ii
}

// window returns the sum and squared sum of the w×h window at (x, y).
func (ii *integral) window(x, y, w, h int) (float64, float64) {
	x2, y2 := x+w, y+h
	s := ii.sum[y2*ii.w+x2] - ii.sum[y*ii.w+x2] - ii.sum[y2*ii.w+x] + ii.sum[y*ii.w+x]
	sq := ii.sqSum[y2*ii.w+x2] - ii.sqSum[y*ii.w+x2] - ii.sqSum[y2*ii.w+x] + ii.sqSum[y*ii.w+x]
	return s, sq
}

func resizeRGBA(src *image.RGBA, w, h int) *image.RGBA {
	if b := src.Bounds(); b.Dx() == w && b.Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
