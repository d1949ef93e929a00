package vision

import (
	"image"
	"math"
)

type BankConfig struct {
	// AnchorTemplate is the bank panel's close control, the most stable
	// landmark while the panel is open.
	AnchorTemplate  string
	DepositTemplate string
	BoothTemplates  []string

	// Panel geometry at scale 1.0, relative to the anchor. The item region
	// sits left of and below the close control.
	OffsetLeft  int
	OffsetDown  int
	PanelWidth  int
	PanelHeight int
}

func DefaultBankConfig() BankConfig {
	return BankConfig{
		AnchorTemplate:  "bank_close",
		DepositTemplate: "bank_deposit_all",
		BoothTemplates:  []string{"bank_booth", "bank_chest"},
		OffsetLeft:      510,
		OffsetDown:      50,
		PanelWidth:      480,
		PanelHeight:     460,
	}
}

// BankView is a located bank item region together with the anchor match that
// produced it.
type BankView struct {
	Region image.Rectangle
	Anchor MatchResult
}

// BankLocator derives the bank item region from a single anchor template.
// All panel geometry is multiplied by the anchor's detected scale, so one
// set of constants holds across resolutions and zoom levels.
type BankLocator struct {
	matcher   *Matcher
	prefilter *PreFilter
	store     *Store
	cfg       BankConfig
}

func NewBankLocator(matcher *Matcher, prefilter *PreFilter, store *Store, cfg BankConfig) *BankLocator {
	return &BankLocator{matcher: matcher, prefilter: prefilter, store: store, cfg: cfg}
}

func (l *BankLocator) Locate(buf *image.RGBA) (BankView, error) {
	anchor, ok := l.matchTemplate(buf, l.cfg.AnchorTemplate)
	if !ok {
		return BankView{}, &PerceptionError{
			Locator: "bank",
			Region:  buf.Bounds(),
			Err:     ErrAnchorNotFound,
		}
	}

	s := anchor.Scale
	region := image.Rect(0, 0, scaled(l.cfg.PanelWidth, s), scaled(l.cfg.PanelHeight, s)).
		Add(image.Pt(anchor.At.X-scaled(l.cfg.OffsetLeft, s), anchor.At.Y+scaled(l.cfg.OffsetDown, s)))

	// A region spilling off the buffer means the window is cropped or the
	// panel is dragged half off-screen. Callers need to know, not retry.
	if !region.In(buf.Bounds()) {
		return BankView{}, &PerceptionError{
			Locator:    "bank",
			Region:     region,
			Confidence: anchor.Confidence,
			Err:        ErrRegionOutOfBounds,
		}
	}

	return BankView{Region: region, Anchor: anchor}, nil
}

// IsOpen reports whether the bank panel is visible, from either the close
// control or the deposit button.
func (l *BankLocator) IsOpen(buf *image.RGBA) bool {
	if _, ok := l.matchTemplate(buf, l.cfg.AnchorTemplate); ok {
		return true
	}
	_, ok := l.matchTemplate(buf, l.cfg.DepositTemplate)
	return ok
}

// FindDeposit locates the deposit-all button.
func (l *BankLocator) FindDeposit(buf *image.RGBA) (MatchResult, bool) {
	return l.matchTemplate(buf, l.cfg.DepositTemplate)
}

// FindBooth locates a bank booth or chest in the game view, tried in
// configured order.
func (l *BankLocator) FindBooth(buf *image.RGBA) (MatchResult, bool) {
	for _, name := range l.cfg.BoothTemplates {
		if m, ok := l.matchTemplate(buf, name); ok {
			return m, true
		}
	}
	return MatchResult{}, false
}

// IdentifyVisibleItem names the item shown inside view. The color pre-filter
// prunes candidates to its top K, the matcher then scores only those; the
// best match above the matcher threshold wins. Returns false when nothing in
// candidates is confidently visible.
func (l *BankLocator) IdentifyVisibleItem(buf *image.RGBA, view BankView, candidates []string) (MatchResult, bool) {
	ranked := l.prefilter.Rank(buf, view.Region, candidates)

	var best MatchResult
	found := false
	for _, c := range ranked {
		tpl, err := l.store.Get(c.Name)
		if err != nil {
			continue
		}
		m, ok := l.matcher.MatchIn(buf, tpl, view.Region)
		if !ok {
			continue
		}
		if !found || m.Confidence > best.Confidence {
			best = m
			found = true
		}
	}
	return best, found
}

func (l *BankLocator) matchTemplate(buf *image.RGBA, name string) (MatchResult, bool) {
	tpl, err := l.store.Get(name)
	if err != nil {
		return MatchResult{}, false
	}
	return l.matcher.Match(buf, tpl)
}

func scaled(v int, s float64) int {
	return int(math.Round(float64(v) * s))
}
