// Package aspects detects angular relationships between two sets of longitudes.
package aspects

import (
	"math"
	"sort"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/pkg/angle"
)

// Match is one aspect between a transiting and a natal point.
type Match struct {
	TransitingBody string    `json:"transitingBody"`
	NatalBody      string    `json:"natalBody"`
	Aspect         Kind      `json:"aspect"`
	ExactAngleDeg  float64   `json:"exactAngleDeg"`
	ActualAngleDeg float64   `json:"actualAngleDeg"`
	OrbDeg         float64   `json:"orbDeg"`
	MaxOrbDeg      float64   `json:"maxOrbDeg"`
	Influence      Influence `json:"influence"`
}

// Detect returns every aspect within orb, tightest first. Equal orbs keep
// transiting order, then natal order, then definition order.
func Detect(transiting, natal ephemeris.Points, profile Profile) []Match {
	matches := make([]Match, 0)
	for _, t := range transiting {
		for _, n := range natal {
			separation := angle.Diff(t.LongitudeDeg, n.LongitudeDeg)
			for _, def := range profile.Definitions {
				orb := math.Abs(separation - def.AngleDeg)
				if orb > def.MaxOrbDeg {
					continue
				}
				matches = append(matches, Match{
					TransitingBody: t.Name,
					NatalBody:      n.Name,
					Aspect:         def.Kind,
					ExactAngleDeg:  def.AngleDeg,
					ActualAngleDeg: separation,
					OrbDeg:         orb,
					MaxOrbDeg:      def.MaxOrbDeg,
					Influence:      def.Influence,
				})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].OrbDeg < matches[j].OrbDeg
	})
	return matches
}
