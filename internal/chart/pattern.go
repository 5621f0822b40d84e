// Package chart synthesizes plausible historical price series for markets
// that have no real history. Output is deterministic in (id, target) so
// every visitor sees the same curve, but keyed noise keeps distinct markets
// visually distinct.
package chart

import "math"

// Points is the fixed length of every synthesized series.
const Points = 15

// archetype names one of the base curve shapes. The shape is selected by
// id, so a market keeps its shape across refreshes.
type archetype int

const (
	archetypeClimb archetype = iota
	archetypeDecline
	archetypeVolatileUp
	archetypeVolatileDown
	archetypeRange
	archetypePump
	archetypeDump
	archetypeRecovery
	archetypePeak

	archetypeCount
)

// DeterministicPattern returns a 15-point series in the [0,100] probability
// domain whose last point equals target exactly. Intermediate points are
// clamped to [5,95]; the final point is forced to target even outside that
// band so the chart always terminates at the market's current value.
func DeterministicPattern(id int64, target float64) []float64 {
	seed := float64(absInt64(id))
	shape := archetype(absInt64(id) % int64(archetypeCount))

	base := make([]float64, Points)
	for i := 0; i < Points; i++ {
		t := float64(i) / float64(Points-1)
		base[i] = baseValue(shape, t, seed)
	}

	// Shift toward the anchor with linearly increasing weight so the start
	// of the series stays put while the recent portion converges on the
	// current value.
	shift := target - base[Points-1]

	out := make([]float64, Points)
	for i, v := range base {
		t := float64(i) / float64(Points-1)
		v += shift * t
		v += math.Sin(seed+float64(i)*2) * 1.5 // high-frequency texture
		out[i] = clamp(v, 5, 95)
	}

	out[Points-1] = target
	return out
}

// baseValue evaluates the archetype's closed-form curve at step fraction t.
func baseValue(shape archetype, t, seed float64) float64 {
	switch shape {
	case archetypeClimb:
		return 40 + t*40
	case archetypeDecline:
		return 80 - t*40
	case archetypeVolatileUp:
		return 40 + t*40 + math.Sin(t*10+seed)*10
	case archetypeVolatileDown:
		return 80 - t*40 + math.Cos(t*10+seed)*10
	case archetypeRange:
		return 50 + math.Sin(t*15+seed)*15
	case archetypePump:
		if t < 0.7 {
			return 30 + t*10
		}
		return 40 + (t-0.7)*150
	case archetypeDump:
		if t < 0.3 {
			return 80 - t*10
		}
		return 77 - (t-0.3)*120
	case archetypeRecovery:
		if t < 0.5 {
			return 60 - t*80
		}
		return 20 + (t-0.5)*100
	case archetypePeak:
		return 40 + math.Sin(t*math.Pi)*40
	default:
		return 50
	}
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

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
