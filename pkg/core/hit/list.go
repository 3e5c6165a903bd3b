package hit

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// List is an unordered collection of hit references.
type List []*Hit

// Contains reports whether h is in l (pointer identity).
func (l List) Contains(h *Hit) bool {
	for _, other := range l {
		if other == h {
			return true
		}
	}
	return false
}

// Filter returns the hits for which keep returns true, preserving order.
func (l List) Filter(keep func(*Hit) bool) List {
	out := make(List, 0, len(l))
	for _, h := range l {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

// PerpendicularDistance returns the magnitude of the component of separation
// perpendicular to position, |position x separation| / |position|.
// A zero position gives NaN.
func PerpendicularDistance(position, separation r3.Vec) float64 {
	return r3.Norm(r3.Cross(position, separation)) / r3.Norm(position)
}

// OpeningAngle returns the angle between a and b in radians, 0 when either
// vector has zero length.
func OpeningAngle(a, b r3.Vec) float64 {
	mags := r3.Norm2(a) * r3.Norm2(b)
	if mags <= 0 {
		return 0
	}
	cos := r3.Dot(a, b) / math.Sqrt(mags)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}
