package humanize

import (
	"math"
	"math/rand"
	"time"
)

// NewRNG returns the generator for one session. Seed 0 picks a time-based
// seed; any other value replays the exact same decision stream, which
// scenario tests rely on.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// sampleGamma returns a sample from the Gamma(shape, scale) distribution
// using the Marsaglia-Tsang squeeze method. Shapes below 1 are lifted through
// the Gamma(shape+1) boost identity.
func sampleGamma(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1 {
		return sampleGamma(rng, shape+1, scale) * math.Pow(rng.Float64(), 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := rng.NormFloat64()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		x2 := x * x
		u := rng.Float64()
		// Fast accept path
		if u < 1.0-0.0331*(x2*x2) {
			return d * v * scale
		}
		// Slow accept path
		if math.Log(u) < 0.5*x2+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// gammaClamped draws from the Gamma distribution parameterised by mean and
// standard deviation instead of shape and scale, clamped to [lo, hi].
// Right-skewed: the occasional draw runs long, none run absurdly short.
func gammaClamped(rng *rand.Rand, mean, std, lo, hi float64) float64 {
	variance := std * std
	shape := mean * mean / variance
	scale := variance / mean
	return clamp(sampleGamma(rng, shape, scale), lo, hi)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
