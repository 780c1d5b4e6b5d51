// Package angle holds the circular arithmetic shared by the search and aspect code.
package angle

import "math"

// Normalize maps any angle in degrees onto [0, 360).
func Normalize(deg float64) float64 {
	out := math.Mod(deg, 360)
	if out < 0 {
		out += 360
	}
	if out >= 360 {
		out = 0
	}
	return out
}

// SignedDelta returns the shortest signed rotation from b to a, in (-180, 180].
func SignedDelta(a, b float64) float64 {
	d := math.Mod(a-b+180, 360)
	if d < 0 {
		d += 360
	}
	d -= 180
	if d == -180 {
		d = 180
	}
	return d
}

// Diff is the unsigned shortest separation between two longitudes, in [0, 180].
func Diff(a, b float64) float64 {
	return math.Abs(SignedDelta(a, b))
}
