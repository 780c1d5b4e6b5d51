// Package analytic computes apparent geocentric longitudes from closed-form
// solar, lunar and Keplerian theories. Accuracy is a few hundredths of a degree
// for the Sun and Moon and a few arcminutes for the planets between 1800 and 2050.
package analytic

import (
	"errors"
	"fmt"
	"math"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/pkg/angle"
)

// ErrOutOfRange is returned for instants the theories are not fit for.
var ErrOutOfRange = errors.New("instant outside supported ephemeris range")

const (
	defaultSpeedStep = 0.01 // days
	maxCenturies     = 30.0
	// precessionRate is general precession in longitude, degrees per Julian century.
	precessionRate = 1.396971
)

// Gateway implements ephemeris.Gateway without external data files.
type Gateway struct {
	speedStep float64
}

// New constructs a stateless gateway safe for concurrent use.
func New() *Gateway {
	return &Gateway{speedStep: defaultSpeedStep}
}

// PositionAt returns the longitude of body at jdUT in the requested zodiac.
func (g *Gateway) PositionAt(jdUT float64, body ephemeris.Body, zodiac ephemeris.Zodiac) (ephemeris.Position, error) {
	if !body.Valid() {
		return ephemeris.Position{}, fmt.Errorf("unsupported body %d", int(body))
	}
	if math.IsNaN(jdUT) || math.IsInf(jdUT, 0) || math.Abs(ephemeris.CenturiesSinceJ2000(jdUT)) > maxCenturies {
		return ephemeris.Position{}, fmt.Errorf("%w: jd %f", ErrOutOfRange, jdUT)
	}

	lon := tropicalLongitude(jdUT, body)
	prev := tropicalLongitude(jdUT-g.speedStep, body)
	next := tropicalLongitude(jdUT+g.speedStep, body)
	speed := angle.SignedDelta(next, prev) / (2 * g.speedStep)

	if zodiac.Sidereal {
		offset, err := Ayanamsa(jdUT, zodiac.Ayanamsa)
		if err != nil {
			return ephemeris.Position{}, err
		}
		lon = angle.Normalize(lon - offset)
		speed -= precessionRate / 36525
	}

	return ephemeris.Position{
		Body:           body,
		Name:           body.String(),
		LongitudeDeg:   lon,
		SpeedDegPerDay: speed,
		Retrograde:     speed < 0,
	}, nil
}

func tropicalLongitude(jd float64, body ephemeris.Body) float64 {
	t := ephemeris.CenturiesSinceJ2000(jd)
	switch body {
	case ephemeris.Sun:
		return sunLongitude(t)
	case ephemeris.Moon:
		return moonLongitude(t)
	default:
		return planetLongitude(t, body)
	}
}

// nutationInLongitude is the dominant 18.6 year term, in degrees.
func nutationInLongitude(t float64) float64 {
	omega := 125.04452 - 1934.136261*t
	return -0.00478 * sinDeg(omega)
}

func sinDeg(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func cosDeg(d float64) float64 { return math.Cos(d * math.Pi / 180) }

var _ ephemeris.Gateway = (*Gateway)(nil)
