// Package impact scores aspect matches and assembles the events built from them.
package impact

import (
	"math"

	"github.com/yanqian/astro-api/internal/domain/aspects"
)

// Severity buckets an impact score.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Score returns the impact in [0, 100], rounded to two decimals.
func Score(transiting, target string, kind aspects.Kind, orb, maxOrb float64) float64 {
	if maxOrb <= 0 {
		maxOrb = DefaultMaxOrb
	}
	orbFactor := math.Max(0, 1-orb/maxOrb)
	raw := 100 * BodyWeight(transiting) * AspectWeight(kind) * TargetWeight(target) * orbFactor * DurationFactor(transiting)
	raw = math.Min(100, math.Max(0, raw))
	return math.Round(raw*100) / 100
}

// SeverityOf maps a score onto HIGH (>=70), MEDIUM (>=45) or LOW.
func SeverityOf(score float64) Severity {
	switch {
	case score >= 70:
		return SeverityHigh
	case score >= 45:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
