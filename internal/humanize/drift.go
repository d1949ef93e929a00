package humanize

import (
	"image"
	"math"
	"math/rand"
	"time"
)

// DriftTarget is a screen area an operator's attention wanders to. A zero
// Region means anywhere in the window.
type DriftTarget struct {
	Name   string
	Weight int
	Region image.Rectangle
}

// Drift issues occasional purposeless cursor moves toward the interface
// regions a player actually glances at, weighted by how often. Perfectly
// goal-directed cursor traffic is its own tell.
type Drift struct {
	rng     *rand.Rand
	window  image.Rectangle
	targets []DriftTarget
	chance  float64
	count   int
}

func NewDrift(rng *rand.Rand, window image.Rectangle) *Drift {
	d := &Drift{rng: rng, chance: 0.03}
	d.SetWindow(window)
	return d
}

// SetWindow rebuilds the default target regions proportionally to the window:
// minimap top-right, chat bottom-left, skills panel right side.
func (d *Drift) SetWindow(window image.Rectangle) {
	d.window = window
	w, h := float64(window.Dx()), float64(window.Dy())
	at := func(fx, fy, fw, fh float64) image.Rectangle {
		return image.Rect(0, 0, int(fw*w), int(fh*h)).
			Add(window.Min.Add(image.Pt(int(fx*w), int(fy*h))))
	}
	d.targets = []DriftTarget{
		{Name: "minimap", Weight: 3, Region: at(0.72, 0.01, 0.20, 0.30)},
		{Name: "chat", Weight: 2, Region: at(0.006, 0.68, 0.65, 0.26)},
		{Name: "skills", Weight: 1, Region: at(0.72, 0.42, 0.26, 0.52)},
		{Name: "random", Weight: 1},
	}
}

// SetBaseChance overrides the resting glance probability.
func (d *Drift) SetBaseChance(chance float64) {
	d.chance = chance
}

// ShouldDrift rolls the per-action drift chance; fatigue adds up to another
// 3% on top of the base 3%.
func (d *Drift) ShouldDrift(fatigue float64) bool {
	return d.rng.Float64() < d.chance+fatigue*0.03
}

// Target picks a weighted drift destination and a point inside it, clustered
// toward the region center.
func (d *Drift) Target() (string, image.Point) {
	total := 0
	for _, t := range d.targets {
		total += t.Weight
	}
	roll := d.rng.Float64() * float64(total)

	pick := d.targets[len(d.targets)-1]
	cum := 0.0
	for _, t := range d.targets {
		cum += float64(t.Weight)
		if roll <= cum {
			pick = t
			break
		}
	}

	d.count++
	if pick.Region.Empty() {
		return pick.Name, d.anywhere()
	}
	return pick.Name, d.inRegion(pick.Region)
}

// Dwell is how long the cursor rests at the drift target.
func (d *Drift) Dwell() time.Duration {
	return time.Duration(uniform(d.rng, 0.3, 2.0) * float64(time.Second))
}

// IdleNudge occasionally shifts the cursor a few pixels while waiting, the
// minor hand adjustment of someone not actively doing anything.
func (d *Drift) IdleNudge() (image.Point, bool) {
	if d.rng.Float64() >= 0.10 {
		return image.Point{}, false
	}
	return image.Pt(d.rng.Intn(11)-5, d.rng.Intn(11)-5), true
}

// Count is how many drifts this session issued.
func (d *Drift) Count() int {
	return d.count
}

func (d *Drift) inRegion(r image.Rectangle) image.Point {
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	x := d.rng.NormFloat64()*float64(r.Dx())/4 + cx
	y := d.rng.NormFloat64()*float64(r.Dy())/4 + cy
	return image.Pt(
		int(math.Round(clamp(x, float64(r.Min.X), float64(r.Max.X-1)))),
		int(math.Round(clamp(y, float64(r.Min.Y), float64(r.Max.Y-1)))),
	)
}

func (d *Drift) anywhere() image.Point {
	const inset = 50
	r := d.window.Inset(inset)
	if r.Empty() {
		r = d.window
	}
	return image.Pt(
		r.Min.X+d.rng.Intn(r.Dx()),
		r.Min.Y+d.rng.Intn(r.Dy()),
	)
}
