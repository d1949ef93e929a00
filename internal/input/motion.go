package input

import (
	"image"
	"math"
	"math/rand"
	"time"
)

// PathPoint is one cursor waypoint. Delay is how long the cursor rests
// on the point before moving to the next one; the last point of a path
// always carries a zero delay.
type PathPoint struct {
	X, Y  int
	Delay time.Duration
}

// MotionConfig bounds the synthetic cursor paths.
type MotionConfig struct {
	SpeedMin        float64 // cursor speed range, px/s
	SpeedMax        float64
	OvershootChance float64 // fraction of moves that slide past the target
	OvershootMin    float64 // px past the target
	OvershootMax    float64
	CurveVariance   float64 // control point offset as a fraction of move distance
	PathPoints      int     // waypoints per move
}

// DefaultMotionConfig returns the tuning used when the config file does
// not override motion parameters.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		SpeedMin:        200,
		SpeedMax:        400,
		OvershootChance: 0.30,
		OvershootMin:    5,
		OvershootMax:    15,
		CurveVariance:   0.3,
		PathPoints:      50,
	}
}

// Planner turns straight hops into curved, unevenly paced cursor paths.
// Every Plan call draws fresh randomness, so two moves between the same
// points never replay the same trajectory.
type Planner struct {
	cfg MotionConfig
	rng *rand.Rand
}

func NewPlanner(cfg MotionConfig, rng *rand.Rand) *Planner {
	if cfg.PathPoints < 4 {
		cfg.PathPoints = 4
	}
	if cfg.SpeedMin <= 0 {
		cfg.SpeedMin = 200
	}
	if cfg.SpeedMax < cfg.SpeedMin {
		cfg.SpeedMax = cfg.SpeedMin
	}
	return &Planner{cfg: cfg, rng: rng}
}

// Plan builds the waypoint list from one point to another. The first
// waypoint is from, the last is exactly to. Rest delays across the path
// sum to the total travel time, paced slow-fast-slow.
func (p *Planner) Plan(from, to image.Point) []PathPoint {
	dist := math.Hypot(float64(to.X-from.X), float64(to.Y-from.Y))
	if dist < 1 {
		return []PathPoint{{X: to.X, Y: to.Y}}
	}

	n := p.cfg.PathPoints
	var pts []image.Point
	if p.rng.Float64() < p.cfg.OvershootChance {
		pts = p.overshoot(from, to, n)
	} else {
		pts = p.curve(from, to, n)
	}
	return p.pace(pts, p.travelTime(dist))
}

// curve samples a cubic bezier whose control points sit near one third
// and two thirds of the way along, pushed sideways by up to
// CurveVariance of the move distance.
func (p *Planner) curve(from, to image.Point, n int) []image.Point {
	fx, fy := float64(from.X), float64(from.Y)
	tx, ty := float64(to.X), float64(to.Y)
	dx, dy := tx-fx, ty-fy
	dist := math.Hypot(dx, dy)
	// Unit perpendicular to the line of travel.
	px, py := -dy/dist, dx/dist

	c1 := p.controlPoint(fx, fy, dx, dy, px, py, dist, 0.33)
	c2 := p.controlPoint(fx, fy, dx, dy, px, py, dist, 0.67)
	return sampleBezier(vec{fx, fy}, c1, c2, vec{tx, ty}, n)
}

func (p *Planner) controlPoint(fx, fy, dx, dy, px, py, dist, along float64) vec {
	t := along + p.uniform(-0.1, 0.1)
	off := p.uniform(-p.cfg.CurveVariance, p.cfg.CurveVariance) * dist
	return vec{fx + dx*t + px*off, fy + dy*t + py*off}
}

// overshoot slides 5-15 px past the target and curves back, splitting
// the waypoint budget between the two legs.
func (p *Planner) overshoot(from, to image.Point, n int) []image.Point {
	fx, fy := float64(from.X), float64(from.Y)
	tx, ty := float64(to.X), float64(to.Y)
	dx, dy := tx-fx, ty-fy
	dist := math.Hypot(dx, dy)
	ux, uy := dx/dist, dy/dist

	past := p.uniform(p.cfg.OvershootMin, p.cfg.OvershootMax)
	side := p.uniform(-5, 5)
	mid := image.Pt(
		int(math.Round(tx+ux*past-uy*side)),
		int(math.Round(ty+uy*past+ux*side)),
	)

	out := p.curve(from, mid, n/2)
	back := p.curve(mid, to, n/2)
	return append(out, back[1:]...)
}

// pace distributes the travel time across segments so the cursor
// accelerates out of the start and brakes into the target.
func (p *Planner) pace(pts []image.Point, total time.Duration) []PathPoint {
	path := make([]PathPoint, len(pts))
	for i, pt := range pts {
		path[i] = PathPoint{X: pt.X, Y: pt.Y}
	}
	segments := len(pts) - 1
	if segments < 1 {
		return path
	}

	weights := make([]float64, segments)
	var sum float64
	for i := range weights {
		speed := 0.5 + 0.5*math.Sin(math.Pi*float64(i)/float64(segments))
		if speed < 0.3 {
			speed = 0.3
		}
		w := (1 / speed) * p.uniform(0.9, 1.1)
		weights[i] = w
		sum += w
	}
	for i, w := range weights {
		path[i].Delay = time.Duration(float64(total) * w / sum)
	}
	return path
}

// travelTime derives the move duration from distance at a sampled
// cursor speed, floored at 50ms so short hops still read as motion.
func (p *Planner) travelTime(dist float64) time.Duration {
	speed := p.uniform(p.cfg.SpeedMin, p.cfg.SpeedMax)
	d := time.Duration(dist / speed * float64(time.Second))
	if d < 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}

func (p *Planner) uniform(lo, hi float64) float64 {
	return lo + p.rng.Float64()*(hi-lo)
}

type vec struct {
	x, y float64
}

// sampleBezier evaluates the cubic bezier p0-c1-c2-p3 at n eased
// parameter values. easeInOut(1) == 1, so the final sample lands on p3
// exactly.
func sampleBezier(p0, c1, c2, p3 vec, n int) []image.Point {
	if n < 2 {
		n = 2
	}
	out := make([]image.Point, n)
	for i := 0; i < n; i++ {
		t := easeInOut(float64(i) / float64(n-1))
		u := 1 - t
		x := u*u*u*p0.x + 3*u*u*t*c1.x + 3*u*t*t*c2.x + t*t*t*p3.x
		y := u*u*u*p0.y + 3*u*u*t*c1.y + 3*u*t*t*c2.y + t*t*t*p3.y
		out[i] = image.Pt(int(math.Round(x)), int(math.Round(y)))
	}
	return out
}

// easeInOut maps linear progress to a slow-fast-slow profile.
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}
