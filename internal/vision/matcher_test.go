package vision

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

// patternRGBA builds a deterministic textured image from a small LCG so
// correlation tests have real variance to work with.
func patternRGBA(w, h int, seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	state := seed
	next := func() uint8 {
		state = state*1664525 + 1013904223
		return uint8(state >> 24)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = next()
		img.Pix[i+1] = next()
		img.Pix[i+2] = next()
		img.Pix[i+3] = 255
	}
	return img
}

func solidRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// checkerRGBA alternates two colors per pixel so the image has both a
// dominant hue and enough variance for correlation.
func checkerRGBA(w, h int, a, b color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	return img
}

func embed(dst, src *image.RGBA, at image.Point) {
	r := src.Bounds().Sub(src.Bounds().Min).Add(at)
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
}

func TestMatchFindsEmbeddedTemplate(t *testing.T) {
	buf := patternRGBA(200, 150, 2)
	tpl := NewTemplate("target", patternRGBA(40, 30, 7))
	embed(buf, tpl.Image, image.Pt(25, 17))

	m := NewMatcher(DefaultMatcherConfig())
	res, ok := m.Match(buf, tpl)
	if !ok {
		t.Fatalf("Expected match to be found")
	}
	if res.At != image.Pt(25, 17) {
		t.Errorf("Match at %v, want (25,17)", res.At)
	}
	if res.Confidence < 0.99 {
		t.Errorf("Confidence %.4f, want near 1.0 for exact embedding", res.Confidence)
	}
	if math.Abs(res.Scale-1.0) > 1e-6 {
		t.Errorf("Scale %.4f, want 1.0", res.Scale)
	}
	if res.Width != 40 || res.Height != 30 {
		t.Errorf("Match dims %dx%d, want 40x30", res.Width, res.Height)
	}
	if res.Name != "target" {
		t.Errorf("Match name %q, want %q", res.Name, "target")
	}
}

func TestMatchDetectsScale(t *testing.T) {
	tpl := NewTemplate("scaled", patternRGBA(30, 30, 11))

	// Embed the template enlarged by one full scale step. The matcher
	// produces the identical enlargement when probing that step, so the
	// correlation there is exact.
	enlarged := resizeRGBA(tpl.Image, 36, 36)
	buf := patternRGBA(200, 160, 3)
	embed(buf, enlarged, image.Pt(60, 40))

	m := NewMatcher(DefaultMatcherConfig())
	res, ok := m.Match(buf, tpl)
	if !ok {
		t.Fatalf("Expected match to be found")
	}
	if math.Abs(res.Scale-1.2) > 1e-6 {
		t.Errorf("Scale %.4f, want 1.2", res.Scale)
	}
	if res.At != image.Pt(60, 40) {
		t.Errorf("Match at %v, want (60,40)", res.At)
	}
	if res.Width != 36 || res.Height != 36 {
		t.Errorf("Match dims %dx%d, want 36x36", res.Width, res.Height)
	}
}

func TestMatchRejectsBelowThreshold(t *testing.T) {
	// Unrelated textures correlate near zero; nothing should clear the bar.
	buf := patternRGBA(120, 100, 5)
	tpl := NewTemplate("absent", patternRGBA(24, 24, 99))

	m := NewMatcher(DefaultMatcherConfig())
	if res, ok := m.Match(buf, tpl); ok {
		t.Fatalf("Expected no match, got %+v", res)
	}
}

func TestMatchOversizedTemplate(t *testing.T) {
	buf := patternRGBA(50, 50, 5)
	tpl := NewTemplate("huge", patternRGBA(120, 120, 7))

	m := NewMatcher(DefaultMatcherConfig())
	if _, ok := m.Match(buf, tpl); ok {
		t.Fatalf("Template larger than buffer at every scale must report no match")
	}
}

func TestMatchOversizedAtSomeScales(t *testing.T) {
	// 48x48 embeds at scale 1.0 but exceeds a 56x56 buffer at 1.2; the
	// oversized steps are skipped, not fatal.
	tpl := NewTemplate("snug", patternRGBA(48, 48, 13))
	buf := patternRGBA(56, 56, 4)
	embed(buf, tpl.Image, image.Pt(4, 4))

	m := NewMatcher(DefaultMatcherConfig())
	res, ok := m.Match(buf, tpl)
	if !ok {
		t.Fatalf("Expected match at the scales that still fit")
	}
	if math.Abs(res.Scale-1.0) > 1e-6 {
		t.Errorf("Scale %.4f, want 1.0", res.Scale)
	}
}

func TestMatchInOutsideBuffer(t *testing.T) {
	buf := patternRGBA(100, 100, 5)
	tpl := NewTemplate("x", patternRGBA(10, 10, 6))

	m := NewMatcher(DefaultMatcherConfig())
	if _, ok := m.MatchIn(buf, tpl, image.Rect(500, 500, 600, 600)); ok {
		t.Fatalf("Region outside the buffer must report no match")
	}
}

func TestMatchFlatTemplate(t *testing.T) {
	buf := patternRGBA(100, 100, 5)
	tpl := NewTemplate("flat", solidRGBA(20, 20, color.RGBA{90, 90, 90, 255}))

	m := NewMatcher(DefaultMatcherConfig())
	if _, ok := m.Match(buf, tpl); ok {
		t.Fatalf("A flat template carries no signal and must report no match")
	}
}

func TestScaleSeq(t *testing.T) {
	seq := scaleSeq(0.8, 1.2, 5)
	want := []float64{0.8, 0.9, 1.0, 1.1, 1.2}
	if len(seq) != len(want) {
		t.Fatalf("scaleSeq length %d, want %d", len(seq), len(want))
	}
	for i := range want {
		if math.Abs(seq[i]-want[i]) > 1e-9 {
			t.Errorf("scaleSeq[%d] = %.6f, want %.6f", i, seq[i], want[i])
		}
	}

	single := scaleSeq(0.9, 1.5, 1)
	if len(single) != 1 || single[0] != 0.9 {
		t.Errorf("Single-step sequence = %v, want [0.9]", single)
	}
}

func TestBetterPrefersScaleNearOne(t *testing.T) {
	best := MatchResult{Confidence: 0.95, Scale: 0.8}

	if !better(0.95, 1.1, best) {
		t.Errorf("Equal confidence at scale 1.1 should beat 0.8")
	}
	if better(0.95, 1.3, best) {
		t.Errorf("Equal confidence at scale 1.3 should not beat 0.8")
	}

	// Same distance from 1.0 prefers the smaller scale.
	best = MatchResult{Confidence: 0.95, Scale: 1.1}
	if !better(0.95, 0.9, best) {
		t.Errorf("Scale 0.9 should beat 1.1 on the distance tie")
	}
	best = MatchResult{Confidence: 0.95, Scale: 0.9}
	if better(0.95, 1.1, best) {
		t.Errorf("Scale 1.1 should not beat 0.9 on the distance tie")
	}

	// Confidence outranks any scale preference.
	best = MatchResult{Confidence: 0.95, Scale: 1.0}
	if !better(0.97, 1.2, best) {
		t.Errorf("Higher confidence must win regardless of scale")
	}
}

func TestMatchResultGeometry(t *testing.T) {
	m := MatchResult{At: image.Pt(10, 20), Width: 30, Height: 40}
	if m.Center() != image.Pt(25, 40) {
		t.Errorf("Center %v, want (25,40)", m.Center())
	}
	if m.Bounds() != image.Rect(10, 20, 40, 60) {
		t.Errorf("Bounds %v, want (10,20)-(40,60)", m.Bounds())
	}
}

func BenchmarkMatch(b *testing.B) {
	buf := patternRGBA(640, 480, 2)
	tpl := NewTemplate("bench", patternRGBA(40, 40, 7))
	embed(buf, tpl.Image, image.Pt(300, 200))
	m := NewMatcher(DefaultMatcherConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Match(buf, tpl)
	}
}
