package astro

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/internal/domain/lunar"
)

const (
	defaultMoonTimelineDays = 7
	maxMoonTimelineDays     = 90
)

// Lunation reports the Moon's phase and sign at local noon of the requested date.
func (s *service) Lunation(ctx context.Context, req LunationRequest) (LunationResponse, error) {
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return LunationResponse{}, err
	}
	resp, hit, err := cached(ctx, s, s.key("lunation", req, nil), func() (LunationResponse, error) {
		return s.lunationAt(BirthData{
			Date:          req.Date,
			Time:          "12:00:00",
			Timezone:      req.Timezone,
			OffsetMinutes: req.OffsetMinutes,
			Strict:        req.Strict,
		}, zodiac)
	})
	resp.Cached = hit
	return resp, err
}

// MoonTimeline lists one lunation per local day.
func (s *service) MoonTimeline(ctx context.Context, req MoonTimelineRequest) (MoonTimelineResponse, error) {
	from, err := time.Parse("2006-01-02", strings.TrimSpace(req.From))
	if err != nil {
		return MoonTimelineResponse{}, invalidInput("from must be YYYY-MM-DD", err)
	}
	to := from.AddDate(0, 0, defaultMoonTimelineDays-1)
	if strings.TrimSpace(req.To) != "" {
		to, err = time.Parse("2006-01-02", strings.TrimSpace(req.To))
		if err != nil {
			return MoonTimelineResponse{}, invalidInput("to must be YYYY-MM-DD", err)
		}
	}
	if to.Before(from) {
		return MoonTimelineResponse{}, invalidInput("from must not be after to", nil)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > maxMoonTimelineDays {
		return MoonTimelineResponse{}, invalidInput(fmt.Sprintf("range too large; at most %d days", maxMoonTimelineDays), nil)
	}
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return MoonTimelineResponse{}, err
	}

	resp, hit, err := cached(ctx, s, s.key("moon-timeline", req, nil), func() (MoonTimelineResponse, error) {
		out := make([]LunationResponse, days)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.TimelineParallelism)
		for i := range out {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				day, err := s.lunationAt(BirthData{
					Date:          from.AddDate(0, 0, i).Format("2006-01-02"),
					Time:          "12:00:00",
					Timezone:      req.Timezone,
					OffsetMinutes: req.OffsetMinutes,
				}, zodiac)
				out[i] = day
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return MoonTimelineResponse{}, err
		}
		return MoonTimelineResponse{
			From: from.Format("2006-01-02"),
			To:   to.Format("2006-01-02"),
			Days: out,
		}, nil
	})
	resp.Cached = hit
	return resp, err
}

func (s *service) lunationAt(noon BirthData, zodiac ephemeris.Zodiac) (LunationResponse, error) {
	res, jd, err := s.resolveBirth(noon, true)
	if err != nil {
		return LunationResponse{}, err
	}
	moon, err := s.gateway.PositionAt(jd, ephemeris.Moon, zodiac)
	if err != nil {
		return LunationResponse{}, classify("ephemeris query failed", err)
	}
	sun, err := s.gateway.PositionAt(jd, ephemeris.Sun, zodiac)
	if err != nil {
		return LunationResponse{}, classify("ephemeris query failed", err)
	}

	elongation := lunar.Elongation(moon.LongitudeDeg, sun.LongitudeDeg)
	moonSign, moonDeg := lunar.SignOf(moon.LongitudeDeg)
	sunSign, _ := lunar.SignOf(sun.LongitudeDeg)
	return LunationResponse{
		Date:          fmt.Sprintf("%04d-%02d-%02d", res.Requested.Year, res.Requested.Month, res.Requested.Day),
		Timezone:      res.Timezone,
		OffsetMinutes: res.OffsetMinutes,
		PhaseAngleDeg: math.Round(elongation*1e4) / 1e4,
		Phase:         lunar.PhaseOf(elongation),
		Waxing:        lunar.Waxing(elongation),
		MoonSign:      moonSign,
		MoonDegInSign: math.Round(moonDeg*1e4) / 1e4,
		SunSign:       sunSign,
		Warnings:      res.Warnings,
	}, nil
}
