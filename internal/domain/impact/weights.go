package impact

import (
	"strings"

	"github.com/yanqian/astro-api/internal/domain/aspects"
)

// DefaultMaxOrb replaces a non-positive max orb.
const DefaultMaxOrb = 5.0

var bodyWeights = map[string]float64{
	"moon":    1.0,
	"mercury": 1.5,
	"venus":   1.5,
	"sun":     1.5,
	"mars":    2.2,
	"jupiter": 2.5,
	"saturn":  3.3,
	"uranus":  3.0,
	"neptune": 3.0,
	"pluto":   3.6,
}

var aspectWeights = map[aspects.Kind]float64{
	aspects.Conjunction: 1.0,
	aspects.Opposition:  0.95,
	aspects.Square:      0.95,
	aspects.Trine:       0.70,
	aspects.Sextile:     0.55,
}

var durationFactors = map[string]float64{
	"moon":    0.85,
	"mercury": 0.85,
	"venus":   0.85,
	"sun":     0.85,
	"mars":    0.90,
}

var personalTargets = map[string]struct{}{
	"sun":  {},
	"moon": {},
	"asc":  {},
	"mc":   {},
}

// BodyWeight is the transiting body's base influence; unknown bodies weigh 1.
func BodyWeight(body string) float64 {
	if w, ok := bodyWeights[strings.ToLower(body)]; ok {
		return w
	}
	return 1.0
}

// AspectWeight scales by aspect strength; unknown kinds weigh 0.5.
func AspectWeight(kind aspects.Kind) float64 {
	if w, ok := aspectWeights[kind]; ok {
		return w
	}
	return 0.5
}

// TargetWeight boosts the luminaries and chart angles.
func TargetWeight(target string) float64 {
	if _, ok := personalTargets[strings.ToLower(target)]; ok {
		return 1.25
	}
	return 1.0
}

// DurationFactor damps fast movers whose transits are brief.
func DurationFactor(body string) float64 {
	if f, ok := durationFactors[strings.ToLower(body)]; ok {
		return f
	}
	return 1.0
}
