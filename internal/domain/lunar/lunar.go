// Package lunar classifies the Moon's phase and the zodiac sign of a longitude.
package lunar

import (
	"math"

	"github.com/yanqian/astro-api/pkg/angle"
)

// Phase is one of eight 45 degree elongation bands.
type Phase string

const (
	New            Phase = "new"
	WaxingCrescent Phase = "waxing_crescent"
	FirstQuarter   Phase = "first_quarter"
	WaxingGibbous  Phase = "waxing_gibbous"
	Full           Phase = "full"
	WaningGibbous  Phase = "waning_gibbous"
	LastQuarter    Phase = "last_quarter"
	WaningCrescent Phase = "waning_crescent"
)

// phases are centred on multiples of 45 degrees, so New spans 337.5..22.5.
var phases = []Phase{New, WaxingCrescent, FirstQuarter, WaxingGibbous, Full, WaningGibbous, LastQuarter, WaningCrescent}

// Signs in zodiac order from 0 degrees.
var Signs = []string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Elongation is the Moon's angular distance ahead of the Sun in [0, 360).
func Elongation(moonDeg, sunDeg float64) float64 {
	return angle.Normalize(moonDeg - sunDeg)
}

// PhaseOf maps an elongation to its phase band.
func PhaseOf(elongationDeg float64) Phase {
	idx := int(math.Floor((angle.Normalize(elongationDeg) + 22.5) / 45))
	return phases[idx%len(phases)]
}

// Waxing reports whether the Moon is growing toward full. Exactly full counts as waxing.
func Waxing(elongationDeg float64) bool {
	return angle.Normalize(elongationDeg) <= 180
}

// SignOf returns the sign holding longitude and the degree inside it.
func SignOf(longitudeDeg float64) (string, float64) {
	lon := angle.Normalize(longitudeDeg)
	idx := int(lon / 30)
	if idx >= len(Signs) {
		idx = len(Signs) - 1
	}
	return Signs[idx], lon - float64(idx)*30
}
