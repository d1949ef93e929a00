package vision

import (
	"image"
	"math"
	"sort"
)

// Histogram geometry mirrors the tuning the item set was calibrated with:
// hue quantized into 50 bins over [0,360), saturation into 60 bins over [0,1].
const (
	hueBins = 50
	satBins = 60
)

type Candidate struct {
	Name       string
	Similarity float64
}

// PreFilter ranks templates by color similarity to a live region before the
// expensive spatial matching step. When many visually similar items score
// within a few points of each other under plain template matching, a coarse
// color ranking first cuts both latency and misclassification. K is a
// precision/recall knob: too small and the true answer can be excluded.
type PreFilter struct {
	store *Store
	topK  int
}

func NewPreFilter(store *Store, topK int) *PreFilter {
	if topK < 1 {
		topK = 1
	}
	return &PreFilter{store: store, topK: topK}
}

// Rank orders names by hue/saturation histogram correlation against region,
// most similar first, truncated to the configured K. Unknown names are
// skipped. The ranking is a pure function of the histograms: input order
// never changes the result (ties fall back to name order).
func (p *PreFilter) Rank(buf *image.RGBA, region image.Rectangle, names []string) []Candidate {
	region = region.Intersect(buf.Bounds())
	if region.Empty() || len(names) == 0 {
		return nil
	}

	live := histogramHS(buf, region)

	candidates := make([]Candidate, 0, len(names))
	for _, name := range names {
		tpl, err := p.store.Get(name)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Name:       name,
			Similarity: correlation(live, tpl.Signature()),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Name < candidates[j].Name
	})

	if len(candidates) > p.topK {
		candidates = candidates[:p.topK]
	}
	return candidates
}

// histogramHS builds an L1-normalized 2-D hue/saturation histogram of the
// region. Fully transparent pixels are ignored so item templates with alpha
// cutouts describe only the item itself.
func histogramHS(img *image.RGBA, r image.Rectangle) []float64 {
	hist := make([]float64, hueBins*satBins)
	var total float64

	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			p := img.Pix[off+x*4 : off+x*4+4 : off+x*4+4]
			if p[3] == 0 {
				continue
			}
			h, s, _ := rgbToHSV(p[0], p[1], p[2])

			hb := int(h / 360 * hueBins)
			if hb >= hueBins {
				hb = hueBins - 1
			}
			sb := int(s * satBins)
			if sb >= satBins {
				sb = satBins - 1
			}
			hist[hb*satBins+sb]++
			total++
		}
	}

	if total > 0 {
		for i := range hist {
			hist[i] /= total
		}
	}
	return hist
}

// correlation is the Pearson correlation coefficient between two histograms
// of equal length.
func correlation(a, b []float64) float64 {
	n := float64(len(a))
	if n == 0 || len(a) != len(b) {
		return 0
	}

	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/n, sumB/n

	var num, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		num += da * db
		varA += da * da
		varB += db * db
	}
	if varA <= 0 || varB <= 0 {
		return 0
	}
	return num / math.Sqrt(varA*varB)
}

// rgbToHSV converts 8-bit RGB to hue [0,360), saturation [0,1], value [0,1].
func rgbToHSV(r, g, b uint8) (float64, float64, float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255

	max := math.Max(rf, math.Max(gf, bf))
	min := math.Min(rf, math.Min(gf, bf))
	delta := max - min

	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == rf:
		h = 60 * math.Mod((gf-bf)/delta, 6)
	case max == gf:
		h = 60 * ((bf-rf)/delta + 2)
	default:
		h = 60 * ((rf-gf)/delta + 4)
	}
	if h < 0 {
		h += 360
	}

	var s float64
	if max > 0 {
		s = delta / max
	}
	return h, s, max
}
