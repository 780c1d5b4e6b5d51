package astro

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/internal/domain/impact"
)

var timelineTags = []string{"Year", "Direction", "Adjustment"}

func (s *service) SolarTimeline(ctx context.Context, req TimelineRequest) (TimelineResponse, error) {
	if req.Year < 1 || req.Year > 9999 {
		return TimelineResponse{}, invalidInput("year must be between 1 and 9999", nil)
	}
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return TimelineResponse{}, err
	}
	profile, err := s.resolveProfile(req.Aspects)
	if err != nil {
		return TimelineResponse{}, err
	}
	natalRes, natalJD, err := s.resolveBirth(req.Natal, false)
	if err != nil {
		return TimelineResponse{}, err
	}
	natal, err := ephemeris.Snapshot(s.gateway, natalJD, []ephemeris.Body{ephemeris.Sun, ephemeris.Moon}, zodiac)
	if err != nil {
		return TimelineResponse{}, classify("ephemeris query failed", err)
	}
	targets := withAngles(ephemeris.ToPoints(natal), req.Angles)

	first := time.Date(req.Year, time.January, 1, 12, 0, 0, 0, time.UTC).Add(-time.Duration(natalRes.OffsetMinutes) * time.Minute)
	days := time.Date(req.Year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Sub(time.Date(req.Year, time.January, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24
	perDay := make([][]TimelineItem, int(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.TimelineParallelism)
	for i := range perDay {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			instant := first.AddDate(0, 0, i)
			sun, err := s.gateway.PositionAt(ephemeris.JulianDay(instant), ephemeris.Sun, zodiac)
			if err != nil {
				return err
			}
			peak := time.Date(req.Year, time.January, 1+i, 0, 0, 0, 0, time.UTC)
			matches := aspects.Detect(ephemeris.Points{{Name: ephemeris.Sun.String(), LongitudeDeg: sun.LongitudeDeg}}, targets, profile)
			items := make([]TimelineItem, 0, len(matches))
			for _, m := range matches {
				score := impact.Score(m.TransitingBody, m.NatalBody, m.Aspect, m.OrbDeg, m.MaxOrbDeg)
				items = append(items, TimelineItem{
					Start:    peak.AddDate(0, 0, -1).Format("2006-01-02"),
					Peak:     peak.Format("2006-01-02"),
					End:      peak.AddDate(0, 0, 1).Format("2006-01-02"),
					Method:   "solar_aspects",
					Trigger:  fmt.Sprintf("Sun %s %s", m.Aspect, m.NatalBody),
					Match:    m,
					Score:    score,
					Severity: impact.SeverityOf(score),
					Tags:     timelineTags,
				})
			}
			perDay[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return TimelineResponse{}, err
		}
		return TimelineResponse{}, classify("ephemeris query failed", err)
	}

	items := make([]TimelineItem, 0)
	for _, day := range perDay {
		items = append(items, day...)
	}
	s.logger.Debug("solar timeline built", "year", req.Year, "items", len(items))
	return TimelineResponse{
		Year:     req.Year,
		Profile:  profile.Name,
		Items:    items,
		Warnings: natalRes.Warnings,
	}, nil
}
