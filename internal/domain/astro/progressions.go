package astro

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
)

// daysPerYear converts elapsed days of life into progressed days.
const daysPerYear = 365.25

// Progressions advances the natal instant one day for every year of age
// reached on TargetDate, measured at the natal clock time.
func (s *service) Progressions(ctx context.Context, req ProgressionsRequest) (ProgressionsResponse, error) {
	target, err := time.Parse("2006-01-02", strings.TrimSpace(req.TargetDate))
	if err != nil {
		return ProgressionsResponse{}, invalidInput("targetDate must be YYYY-MM-DD", err)
	}
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return ProgressionsResponse{}, err
	}
	bodies, err := parseBodies(req.Bodies)
	if err != nil {
		return ProgressionsResponse{}, err
	}

	resp, hit, err := cached(ctx, s, s.key("progressions", req, nil), func() (ProgressionsResponse, error) {
		natalRes, _, err := s.resolveBirth(req.Natal, false)
		if err != nil {
			return ProgressionsResponse{}, err
		}
		born := natalRes.LocalUsed
		natalWall := time.Date(born.Year, time.Month(born.Month), born.Day, born.Hour, born.Minute, born.Second, 0, time.UTC)
		targetWall := time.Date(target.Year(), target.Month(), target.Day(), born.Hour, born.Minute, born.Second, 0, time.UTC)
		if targetWall.Before(natalWall) {
			return ProgressionsResponse{}, invalidInput("targetDate must not precede the birth date", nil)
		}

		ageYears := toDays(targetWall.Sub(natalWall)) / daysPerYear
		progressed := natalRes.UTC.Add(time.Duration(ageYears * float64(24*time.Hour)))
		jd := ephemeris.JulianDay(progressed)
		positions, err := ephemeris.Snapshot(s.gateway, jd, bodies, zodiac)
		if err != nil {
			return ProgressionsResponse{}, classify("ephemeris query failed", err)
		}

		natalLocal, err := formatLocal(natalRes.UTC, natalRes.Timezone, natalRes.OffsetMinutes)
		if err != nil {
			return ProgressionsResponse{}, err
		}
		progressedLocal, err := formatLocal(progressed, natalRes.Timezone, natalRes.OffsetMinutes)
		if err != nil {
			return ProgressionsResponse{}, err
		}
		s.logger.Debug("progressions computed", "target", req.TargetDate, "age_years", ageYears)
		return ProgressionsResponse{
			NatalLocal:      natalLocal,
			TargetDate:      target.Format("2006-01-02"),
			ProgressedLocal: progressedLocal,
			ProgressedUTC:   progressed.UTC(),
			AgeYears:        math.Round(ageYears*1e4) / 1e4,
			OffsetMinutes:   natalRes.OffsetMinutes,
			JulianDayUT:     jd,
			Zodiac:          zodiac,
			Positions:       positions,
			Warnings:        natalRes.Warnings,
		}, nil
	})
	resp.Cached = hit
	return resp, err
}
