package analytic

import "github.com/yanqian/astro-api/pkg/angle"

// sunLongitude is the apparent longitude referred to the equinox of date.
func sunLongitude(t float64) float64 {
	l0 := 280.46646 + 36000.76983*t + 0.0003032*t*t
	m := 357.52911 + 35999.05029*t - 0.0001537*t*t
	c := (1.914602-0.004817*t-0.000014*t*t)*sinDeg(m) +
		(0.019993-0.000101*t)*sinDeg(2*m) +
		0.000289*sinDeg(3*m)
	const aberration = -0.00569
	return angle.Normalize(l0 + c + aberration + nutationInLongitude(t))
}
