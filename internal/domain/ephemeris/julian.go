package ephemeris

import (
	"math"
	"time"
)

const (
	unixEpochJD   = 2440587.5
	secondsPerDay = 86400.0
	// J2000 is the Julian day of 2000-01-01T12:00:00 UT.
	J2000 = 2451545.0
)

// JulianDay converts an instant to a Julian day number on the UT scale.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	return unixEpochJD + (float64(t.Unix())+float64(t.Nanosecond())/1e9)/secondsPerDay
}

// TimeFromJulianDay converts a UT Julian day back to a UTC instant rounded to the millisecond.
func TimeFromJulianDay(jd float64) time.Time {
	ms := math.Round((jd - unixEpochJD) * secondsPerDay * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

// CenturiesSinceJ2000 returns Julian centuries elapsed since J2000.
func CenturiesSinceJ2000(jd float64) float64 {
	return (jd - J2000) / 36525
}
