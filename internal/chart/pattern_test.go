package chart

import (
	"math"
	"testing"
)

func TestDeterministicPattern_Shape(t *testing.T) {
	tests := []struct {
		name   string
		id     int64
		target float64
	}{
		{"mid anchor", 42, 55},
		{"low anchor", 7, 12.5},
		{"high anchor", 900001, 88},
		{"zero id", 0, 50},
		{"negative id", -3, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeterministicPattern(tt.id, tt.target)

			if len(got) != Points {
				t.Fatalf("len = %d, want %d", len(got), Points)
			}
			if got[Points-1] != tt.target {
				t.Errorf("last point = %v, want anchor %v", got[Points-1], tt.target)
			}
			for i, v := range got[:Points-1] {
				if v < 5 || v > 95 {
					t.Errorf("point[%d] = %v outside [5,95]", i, v)
				}
			}
		})
	}
}

func TestDeterministicPattern_AnchorOverridesClamp(t *testing.T) {
	// The final point tracks the market's real value even outside the
	// clamp band applied to intermediate points.
	got := DeterministicPattern(11, 2)
	if got[Points-1] != 2 {
		t.Errorf("last point = %v, want 2", got[Points-1])
	}
	got = DeterministicPattern(11, 98.5)
	if got[Points-1] != 98.5 {
		t.Errorf("last point = %v, want 98.5", got[Points-1])
	}
}

func TestDeterministicPattern_Deterministic(t *testing.T) {
	a := DeterministicPattern(123456, 61)
	b := DeterministicPattern(123456, 61)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point[%d] differs between runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestDeterministicPattern_DistinctIDsDiverge(t *testing.T) {
	a := DeterministicPattern(1, 50)
	b := DeterministicPattern(2, 50)

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct ids produced identical series")
	}
}

func TestDeterministicPattern_NegativeIDMatchesAbsoluteShape(t *testing.T) {
	// Shape selection uses the absolute id, so -9 and 9 pick the same
	// archetype and seed.
	a := DeterministicPattern(-9, 33)
	b := DeterministicPattern(9, 33)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			t.Fatalf("point[%d]: %v vs %v", i, a[i], b[i])
		}
	}
}
