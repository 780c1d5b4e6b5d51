package analytic

import (
	"fmt"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
)

// ayanamsaAtJ2000 holds each system's offset at J2000 in degrees.
var ayanamsaAtJ2000 = map[ephemeris.Ayanamsa]float64{
	ephemeris.Lahiri:       23.85297,
	ephemeris.Krishnamurti: 23.75733,
	ephemeris.Raman:        22.41061,
	ephemeris.FaganBradley: 24.74033,
}

// Ayanamsa returns the sidereal offset of system at jdUT, linear in time.
func Ayanamsa(jdUT float64, system ephemeris.Ayanamsa) (float64, error) {
	if system == "" {
		system = ephemeris.DefaultSystem
	}
	base, ok := ayanamsaAtJ2000[system]
	if !ok {
		return 0, fmt.Errorf("unknown ayanamsa %q", system)
	}
	return base + precessionRate*ephemeris.CenturiesSinceJ2000(jdUT), nil
}
