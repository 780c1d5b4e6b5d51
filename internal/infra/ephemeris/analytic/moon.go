package analytic

import (
	"math"

	"github.com/yanqian/astro-api/pkg/angle"
)

// lunarTerm multiplies D, M, M', F; coefficient in 1e-6 degrees.
type lunarTerm struct {
	d, m, mp, f float64
	coeff       float64
}

// Principal periodic terms of the lunar longitude.
var lunarTerms = []lunarTerm{
	{0, 0, 1, 0, 6288774},
	{2, 0, -1, 0, 1274027},
	{2, 0, 0, 0, 658314},
	{0, 0, 2, 0, 213618},
	{0, 1, 0, 0, -185116},
	{0, 0, 0, 2, -114332},
	{2, 0, -2, 0, 58793},
	{2, -1, -1, 0, 57066},
	{2, 0, 1, 0, 53322},
	{2, -1, 0, 0, 45758},
	{0, 1, -1, 0, -40923},
	{1, 0, 0, 0, -34720},
	{0, 1, 1, 0, -30383},
	{2, 0, 0, -2, 15327},
	{0, 0, 1, 2, -12528},
	{0, 0, 1, -2, 10980},
	{4, 0, -1, 0, 10675},
	{0, 0, 3, 0, 10034},
	{4, 0, -2, 0, 8548},
	{2, 1, -1, 0, -7888},
	{2, 1, 0, 0, -6766},
	{1, 0, -1, 0, -5163},
	{1, 1, 0, 0, 4987},
	{2, -1, 1, 0, 4036},
	{2, 0, 2, 0, 3994},
	{4, 0, 0, 0, 3861},
	{2, 0, -3, 0, 3665},
	{0, 1, -2, 0, -2689},
	{2, 0, -1, 2, -2602},
	{2, -1, -2, 0, 2390},
	{1, 0, 1, 0, -2348},
	{2, -2, 0, 0, 2236},
	{0, 1, 2, 0, -2120},
	{0, 2, 0, 0, -2069},
}

// moonLongitude is the apparent longitude referred to the equinox of date.
func moonLongitude(t float64) float64 {
	t2, t3, t4 := t*t, t*t*t, t*t*t*t
	lp := 218.3164477 + 481267.88123421*t - 0.0015786*t2 + t3/538841 - t4/65194000
	d := 297.8501921 + 445267.1114034*t - 0.0018819*t2 + t3/545868 - t4/113065000
	m := 357.5291092 + 35999.0502909*t - 0.0001536*t2 + t3/24490000
	mp := 134.9633964 + 477198.8675055*t + 0.0087414*t2 + t3/69699 - t4/14712000
	f := 93.2720950 + 483202.0175233*t - 0.0036539*t2 - t3/3526000 + t4/863310000
	e := 1 - 0.002516*t - 0.0000074*t2

	sum := 0.0
	for _, term := range lunarTerms {
		arg := term.d*d + term.m*m + term.mp*mp + term.f*f
		coeff := term.coeff
		switch math.Abs(term.m) {
		case 1:
			coeff *= e
		case 2:
			coeff *= e * e
		}
		sum += coeff * sinDeg(arg)
	}

	a1 := 119.75 + 131.849*t
	a2 := 53.09 + 479264.290*t
	sum += 3958*sinDeg(a1) + 1962*sinDeg(lp-f) + 318*sinDeg(a2)

	return angle.Normalize(lp + sum/1e6 + nutationInLongitude(t))
}
