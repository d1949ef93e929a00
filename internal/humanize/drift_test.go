package humanize

import (
	"image"
	"testing"
)

func TestDriftTargetInsideWindow(t *testing.T) {
	window := image.Rect(0, 0, 800, 600)
	d := NewDrift(NewRNG(1), window)

	seen := map[string]int{}
	for i := 0; i < 500; i++ {
		name, p := d.Target()
		if !p.In(window) {
			t.Fatalf("Drift point %v (%s) leaves window %v", p, name, window)
		}
		seen[name]++
	}

	// Weighted 3:2:1:1, so the minimap should lead over 500 draws.
	if seen["minimap"] <= seen["skills"] || seen["minimap"] <= seen["random"] {
		t.Errorf("Target weights look off: %v", seen)
	}
	if d.Count() != 500 {
		t.Errorf("Drift count %d, want 500", d.Count())
	}
}

func TestDriftChanceGrowsWithFatigue(t *testing.T) {
	d := NewDrift(NewRNG(2), image.Rect(0, 0, 800, 600))

	fresh, tired := 0, 0
	for i := 0; i < 20000; i++ {
		if d.ShouldDrift(0) {
			fresh++
		}
		if d.ShouldDrift(1) {
			tired++
		}
	}

	if f := float64(fresh) / 20000; f < 0.02 || f > 0.045 {
		t.Errorf("Fresh drift frequency %.4f, want ~0.03", f)
	}
	if f := float64(tired) / 20000; f < 0.045 || f > 0.075 {
		t.Errorf("Fatigued drift frequency %.4f, want ~0.06", f)
	}
}

func TestIdleNudgeSmall(t *testing.T) {
	d := NewDrift(NewRNG(3), image.Rect(0, 0, 800, 600))

	nudges := 0
	for i := 0; i < 5000; i++ {
		p, ok := d.IdleNudge()
		if !ok {
			continue
		}
		nudges++
		if p.X < -5 || p.X > 5 || p.Y < -5 || p.Y > 5 {
			t.Fatalf("Nudge %v exceeds 5px", p)
		}
	}

	// 10% chance per call.
	if nudges < 350 || nudges > 650 {
		t.Errorf("Nudge count %d over 5000 calls, want ~500", nudges)
	}
}

func TestDriftDwellBounds(t *testing.T) {
	d := NewDrift(NewRNG(4), image.Rect(0, 0, 800, 600))
	for i := 0; i < 1000; i++ {
		dw := d.Dwell()
		if dw.Seconds() < 0.3 || dw.Seconds() > 2.0 {
			t.Fatalf("Dwell %v outside [0.3s,2s]", dw)
		}
	}
}
