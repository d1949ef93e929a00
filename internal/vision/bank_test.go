package vision

import (
	"errors"
	"image"
	"testing"
)

func singleScaleMatcher(scale float64) *Matcher {
	return NewMatcher(MatcherConfig{Threshold: 0.8, ScaleMin: scale, ScaleMax: scale, ScaleSteps: 1})
}

func TestBankLocate(t *testing.T) {
	anchor := patternRGBA(21, 21, 17)
	buf := patternRGBA(1920, 1080, 2)
	embed(buf, anchor, image.Pt(1850, 85))

	store := NewStore(NewTemplate("bank_close", anchor))
	matcher := singleScaleMatcher(1.0)
	loc := NewBankLocator(matcher, NewPreFilter(store, 3), store, DefaultBankConfig())

	view, err := loc.Locate(buf)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if view.Anchor.At != image.Pt(1850, 85) {
		t.Errorf("Anchor at %v, want (1850,85)", view.Anchor.At)
	}
	if view.Region.Min.X != 1340 {
		t.Errorf("Region x = %d, want 1850-510 = 1340", view.Region.Min.X)
	}
	if view.Region.Min.Y != 135 {
		t.Errorf("Region y = %d, want 85+50 = 135", view.Region.Min.Y)
	}
	if view.Region.Dx() != 480 || view.Region.Dy() != 460 {
		t.Errorf("Region %dx%d, want 480x460", view.Region.Dx(), view.Region.Dy())
	}
}

func TestBankLocateScalesWithAnchor(t *testing.T) {
	// The anchor renders 20% larger; every offset and panel dimension must
	// grow by the same factor.
	anchor := patternRGBA(21, 21, 17)
	enlarged := resizeRGBA(anchor, 25, 25)
	buf := patternRGBA(1280, 800, 4)
	embed(buf, enlarged, image.Pt(700, 80))

	store := NewStore(NewTemplate("bank_close", anchor))
	matcher := singleScaleMatcher(1.2)
	loc := NewBankLocator(matcher, NewPreFilter(store, 3), store, DefaultBankConfig())

	view, err := loc.Locate(buf)
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if view.Region.Min.X != 700-612 {
		t.Errorf("Region x = %d, want 700-round(510*1.2) = 88", view.Region.Min.X)
	}
	if view.Region.Min.Y != 80+60 {
		t.Errorf("Region y = %d, want 80+round(50*1.2) = 140", view.Region.Min.Y)
	}
	if view.Region.Dx() != 576 || view.Region.Dy() != 552 {
		t.Errorf("Region %dx%d, want 576x552", view.Region.Dx(), view.Region.Dy())
	}
}

func TestBankLocateAnchorNotFound(t *testing.T) {
	buf := patternRGBA(300, 200, 5)
	store := NewStore(NewTemplate("bank_close", patternRGBA(21, 21, 17)))
	loc := NewBankLocator(singleScaleMatcher(1.0), NewPreFilter(store, 3), store, DefaultBankConfig())

	_, err := loc.Locate(buf)
	if !errors.Is(err, ErrAnchorNotFound) {
		t.Fatalf("Expected ErrAnchorNotFound, got %v", err)
	}
}

func TestBankLocateRegionOutOfBounds(t *testing.T) {
	// Anchor sits too close to the left edge for the panel to fit.
	anchor := patternRGBA(21, 21, 17)
	buf := patternRGBA(640, 640, 5)
	embed(buf, anchor, image.Pt(100, 50))

	store := NewStore(NewTemplate("bank_close", anchor))
	loc := NewBankLocator(singleScaleMatcher(1.0), NewPreFilter(store, 3), store, DefaultBankConfig())

	_, err := loc.Locate(buf)
	if !errors.Is(err, ErrRegionOutOfBounds) {
		t.Fatalf("Expected ErrRegionOutOfBounds, got %v", err)
	}
	var perr *PerceptionError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected a PerceptionError, got %T", err)
	}
	if perr.Region.Min.X >= 0 {
		t.Errorf("Reported region %v should show where the panel was derived", perr.Region)
	}
}

func TestBankIsOpen(t *testing.T) {
	anchor := patternRGBA(21, 21, 17)
	deposit := patternRGBA(35, 25, 23)
	store := NewStore(
		NewTemplate("bank_close", anchor),
		NewTemplate("bank_deposit_all", deposit),
	)
	loc := NewBankLocator(singleScaleMatcher(1.0), NewPreFilter(store, 3), store, DefaultBankConfig())

	closed := patternRGBA(300, 200, 5)
	if loc.IsOpen(closed) {
		t.Errorf("Bank reported open with neither control visible")
	}

	// Deposit button alone is enough; the close control can be occluded.
	byDeposit := patternRGBA(300, 200, 5)
	embed(byDeposit, deposit, image.Pt(150, 160))
	if !loc.IsOpen(byDeposit) {
		t.Errorf("Bank reported closed with the deposit button visible")
	}

	byAnchor := patternRGBA(300, 200, 5)
	embed(byAnchor, anchor, image.Pt(250, 20))
	if !loc.IsOpen(byAnchor) {
		t.Errorf("Bank reported closed with the close control visible")
	}
}

func TestBankFindBooth(t *testing.T) {
	booth := patternRGBA(40, 50, 31)
	chest := patternRGBA(30, 30, 37)
	store := NewStore(
		NewTemplate("bank_booth", booth),
		NewTemplate("bank_chest", chest),
	)
	loc := NewBankLocator(singleScaleMatcher(1.0), NewPreFilter(store, 3), store, DefaultBankConfig())

	buf := patternRGBA(400, 300, 6)
	embed(buf, chest, image.Pt(200, 120))

	m, ok := loc.FindBooth(buf)
	if !ok {
		t.Fatalf("Expected the chest fallback to be found")
	}
	if m.Name != "bank_chest" {
		t.Errorf("Found %q, want bank_chest", m.Name)
	}
	if m.At != image.Pt(200, 120) {
		t.Errorf("Chest at %v, want (200,120)", m.At)
	}
}

// tintedPattern builds a random texture dominated by one RGB channel, so
// items differ both in color histogram and in spatial structure.
func tintedPattern(w, h int, seed uint32, ch int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	state := seed
	next := func() uint32 {
		state = state*1664525 + 1013904223
		return state >> 16
	}
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			if c == ch {
				img.Pix[i+c] = uint8(160 + next()%96)
			} else {
				img.Pix[i+c] = uint8(next() % 64)
			}
		}
		img.Pix[i+3] = 255
	}
	return img
}

func TestBankIdentifyVisibleItem(t *testing.T) {
	itemA := tintedPattern(24, 24, 51, 1) // green
	itemB := tintedPattern(24, 24, 52, 0) // red
	itemC := tintedPattern(24, 24, 53, 2) // blue
	store := NewStore(
		NewTemplate("herb_a", itemA),
		NewTemplate("herb_b", itemB),
		NewTemplate("herb_c", itemC),
	)

	buf := solidRGBA(400, 300, gray)
	embed(buf, itemA, image.Pt(120, 90))
	view := BankView{Region: image.Rect(50, 50, 350, 250)}

	loc := NewBankLocator(NewMatcher(DefaultMatcherConfig()), NewPreFilter(store, 2), store, DefaultBankConfig())

	m, ok := loc.IdentifyVisibleItem(buf, view, []string{"herb_b", "herb_c", "herb_a"})
	if !ok {
		t.Fatalf("Expected the visible item to be identified")
	}
	if m.Name != "herb_a" {
		t.Errorf("Identified %q, want herb_a", m.Name)
	}
	if m.At != image.Pt(120, 90) {
		t.Errorf("Item at %v, want (120,90)", m.At)
	}

	empty := solidRGBA(400, 300, gray)
	if _, ok := loc.IdentifyVisibleItem(empty, view, []string{"herb_a", "herb_b", "herb_c"}); ok {
		t.Errorf("Identified an item in an empty view")
	}
}
