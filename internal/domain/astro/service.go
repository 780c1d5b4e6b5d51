// Package astro orchestrates time resolution, ephemeris queries, searches,
// aspect detection, scoring and curation into the public chart operations.
package astro

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/yanqian/astro-api/internal/domain/anglematch"
	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/curation"
	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/internal/domain/impact"
	"github.com/yanqian/astro-api/internal/domain/localtime"
	"github.com/yanqian/astro-api/pkg/angle"
	apperrors "github.com/yanqian/astro-api/pkg/errors"
)

// Service exposes the chart workflows.
type Service interface {
	ResolveTime(ctx context.Context, req TimeRequest) (TimeResponse, error)
	Positions(ctx context.Context, req ChartRequest) (ChartResponse, error)
	SolarReturn(ctx context.Context, req SolarReturnRequest) (SolarReturnResponse, error)
	LongitudeMatch(ctx context.Context, req LongitudeMatchRequest) (LongitudeMatchResponse, error)
	DailyTransits(ctx context.Context, req TransitsRequest) (TransitsResponse, error)
	SolarTimeline(ctx context.Context, req TimelineRequest) (TimelineResponse, error)
	Progressions(ctx context.Context, req ProgressionsRequest) (ProgressionsResponse, error)
	Lunation(ctx context.Context, req LunationRequest) (LunationResponse, error)
	MoonTimeline(ctx context.Context, req MoonTimelineRequest) (MoonTimelineResponse, error)
	Event(ctx context.Context, id string) (impact.Event, error)
}

type service struct {
	cfg      Config
	gateway  ephemeris.Gateway
	resolver *localtime.Resolver
	profiles ProfileResolver
	cache    Cache
	events   EventRepository
	logger   *slog.Logger
}

// NewService constructs a Service instance. cache and events may be nil.
func NewService(cfg Config, gateway ephemeris.Gateway, profiles ProfileResolver, cache Cache, events EventRepository, logger *slog.Logger) Service {
	if cfg.TimelineParallelism <= 0 {
		cfg.TimelineParallelism = 4
	}
	return &service{
		cfg:      cfg,
		gateway:  gateway,
		resolver: localtime.NewResolver(),
		profiles: profiles,
		cache:    cache,
		events:   events,
		logger:   logger.With("component", "astro.service"),
	}
}

func (s *service) ResolveTime(_ context.Context, req TimeRequest) (TimeResponse, error) {
	res, jd, err := s.resolveBirth(req.BirthData, req.SnapForward)
	if err != nil {
		return TimeResponse{}, err
	}
	return TimeResponse{Resolution: res, JulianDayUT: jd}, nil
}

func (s *service) Positions(ctx context.Context, req ChartRequest) (ChartResponse, error) {
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return ChartResponse{}, err
	}
	bodies, err := parseBodies(req.Bodies)
	if err != nil {
		return ChartResponse{}, err
	}

	resp, hit, err := cached(ctx, s, s.key("positions", req, nil), func() (ChartResponse, error) {
		res, jd, err := s.resolveBirth(req.Birth, false)
		if err != nil {
			return ChartResponse{}, err
		}
		positions, err := ephemeris.Snapshot(s.gateway, jd, bodies, zodiac)
		if err != nil {
			return ChartResponse{}, classify("ephemeris query failed", err)
		}
		return ChartResponse{
			Time:      TimeResponse{Resolution: res, JulianDayUT: jd},
			Zodiac:    zodiac,
			Positions: positions,
		}, nil
	})
	resp.Cached = hit
	return resp, err
}

func (s *service) SolarReturn(ctx context.Context, req SolarReturnRequest) (SolarReturnResponse, error) {
	if req.Year < 1 || req.Year > 9999 {
		return SolarReturnResponse{}, invalidInput("year must be between 1 and 9999", nil)
	}
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return SolarReturnResponse{}, err
	}
	profile, err := s.resolveProfile(req.Aspects)
	if err != nil {
		return SolarReturnResponse{}, err
	}
	strategy, err := anglematch.ForEngine(firstNonEmpty(req.Engine, s.cfg.SolarReturn.Engine))
	if err != nil {
		return SolarReturnResponse{}, classify("unknown engine", err)
	}
	cfg := s.cfg.SolarReturn

	derived := map[string]any{"profile": profile, "search": cfg, "engine": strategy.Name()}
	resp, hit, err := cached(ctx, s, s.key("solar-return", req, derived), func() (SolarReturnResponse, error) {
		natalRes, natalJD, err := s.resolveBirth(req.Natal, false)
		if err != nil {
			return SolarReturnResponse{}, err
		}
		natalPositions, err := ephemeris.Snapshot(s.gateway, natalJD, ephemeris.Bodies, zodiac)
		if err != nil {
			return SolarReturnResponse{}, classify("ephemeris query failed", err)
		}
		natalSun := natalPositions[0].LongitudeDeg

		centerJD := ephemeris.JulianDay(birthdayUTC(natalRes, req.Year))
		result, err := strategy.Search(s.gateway, searchRequest(cfg, ephemeris.Sun, zodiac, natalSun, centerJD-cfg.WindowDays, centerJD+cfg.WindowDays))
		if err != nil {
			return SolarReturnResponse{}, classify("solar return search failed", err)
		}

		tz := firstNonEmpty(req.Timezone, req.Natal.Timezone)
		local, err := formatLocal(result.Instant, tz, natalRes.OffsetMinutes)
		if err != nil {
			return SolarReturnResponse{}, err
		}
		returnPositions, err := ephemeris.Snapshot(s.gateway, result.InstantJD, ephemeris.Bodies, zodiac)
		if err != nil {
			return SolarReturnResponse{}, classify("ephemeris query failed", err)
		}

		warnings := append([]string{}, natalRes.Warnings...)
		if !result.BracketFound {
			warnings = append(warnings, "no exact crossing inside the search window; closest sample returned")
		}
		s.logger.Info("solar return located",
			"year", req.Year,
			"engine", strategy.Name(),
			"method", result.Method,
			"iterations", result.Iterations,
			"delta_deg", result.AbsoluteDeltaDeg,
		)
		return SolarReturnResponse{
			NatalSunDeg: natalSun,
			Match:       result,
			Local:       local,
			Timezone:    tz,
			Positions:   returnPositions,
			Aspects:     aspects.Detect(ephemeris.ToPoints(returnPositions), withAngles(ephemeris.ToPoints(natalPositions), req.Angles), profile),
			Profile:     profile.Name,
			Warnings:    warnings,
		}, nil
	})
	resp.Cached = hit
	return resp, err
}

func (s *service) LongitudeMatch(ctx context.Context, req LongitudeMatchRequest) (LongitudeMatchResponse, error) {
	body, err := ephemeris.ParseBody(req.Body)
	if err != nil {
		return LongitudeMatchResponse{}, invalidInput(err.Error(), nil)
	}
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return LongitudeMatchResponse{}, err
	}
	if req.TargetLongitudeDeg == nil && req.Natal == nil {
		return LongitudeMatchResponse{}, invalidInput("targetLongitudeDeg or natal is required", nil)
	}
	strategy, err := anglematch.ForEngine(firstNonEmpty(req.Engine, s.cfg.LongitudeMatch.Engine))
	if err != nil {
		return LongitudeMatchResponse{}, classify("unknown engine", err)
	}
	cfg := s.cfg.LongitudeMatch
	if req.ToleranceDeg > 0 {
		cfg.ToleranceDeg = req.ToleranceDeg
	}

	derived := map[string]any{"search": cfg, "engine": strategy.Name()}
	resp, hit, err := cached(ctx, s, s.key("longitude-match", req, derived), func() (LongitudeMatchResponse, error) {
		warnings := []string{}
		var target float64
		if req.TargetLongitudeDeg != nil {
			target = angle.Normalize(*req.TargetLongitudeDeg)
		} else {
			natalRes, natalJD, err := s.resolveBirth(*req.Natal, false)
			if err != nil {
				return LongitudeMatchResponse{}, err
			}
			warnings = append(warnings, natalRes.Warnings...)
			pos, err := s.gateway.PositionAt(natalJD, body, zodiac)
			if err != nil {
				return LongitudeMatchResponse{}, classify("ephemeris query failed", err)
			}
			target = pos.LongitudeDeg
		}

		startRes, startJD, err := s.resolveBirth(BirthData{Date: req.StartDate, Time: "00:00:00", Timezone: req.Timezone}, true)
		if err != nil {
			return LongitudeMatchResponse{}, err
		}
		warnings = append(warnings, startRes.Warnings...)
		endJD := startJD + cfg.WindowDays
		if strings.TrimSpace(req.EndDate) != "" {
			endRes, jd, err := s.resolveBirth(BirthData{Date: req.EndDate, Time: "23:59:59", Timezone: req.Timezone}, true)
			if err != nil {
				return LongitudeMatchResponse{}, err
			}
			warnings = append(warnings, endRes.Warnings...)
			endJD = jd
		}

		result, err := strategy.Search(s.gateway, searchRequest(cfg, body, zodiac, target, startJD, endJD))
		if err != nil {
			return LongitudeMatchResponse{}, classify("longitude search failed", err)
		}
		local, err := formatLocal(result.Instant, req.Timezone, 0)
		if err != nil {
			return LongitudeMatchResponse{}, err
		}
		if !result.BracketFound {
			warnings = append(warnings, "no exact crossing inside the search window; closest sample returned")
		}
		return LongitudeMatchResponse{
			Body:               body.String(),
			TargetLongitudeDeg: target,
			Match:              result,
			Local:              local,
			Warnings:           warnings,
		}, nil
	})
	resp.Cached = hit
	return resp, err
}

func (s *service) DailyTransits(ctx context.Context, req TransitsRequest) (TransitsResponse, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return TransitsResponse{}, invalidInput("date must be YYYY-MM-DD", err)
	}
	zodiac, err := parseZodiac(req.Zodiac)
	if err != nil {
		return TransitsResponse{}, err
	}
	profile, err := s.resolveProfile(req.Aspects)
	if err != nil {
		return TransitsResponse{}, err
	}
	transitBodies, err := parseBodies(req.TransitBodies)
	if err != nil {
		return TransitsResponse{}, err
	}
	natalBodies, err := parseBodies(req.NatalBodies)
	if err != nil {
		return TransitsResponse{}, err
	}

	resp, hit, err := cached(ctx, s, s.key("transits", req, profile), func() (TransitsResponse, error) {
		natalRes, natalJD, err := s.resolveBirth(req.Natal, false)
		if err != nil {
			return TransitsResponse{}, err
		}
		natalPositions, err := ephemeris.Snapshot(s.gateway, natalJD, natalBodies, zodiac)
		if err != nil {
			return TransitsResponse{}, classify("ephemeris query failed", err)
		}

		noon := BirthData{Date: req.Date, Time: "12:00:00", Timezone: firstNonEmpty(req.Timezone, req.Natal.Timezone)}
		if noon.Timezone == "" {
			noon.OffsetMinutes = req.Natal.OffsetMinutes
		}
		noonRes, noonJD, err := s.resolveBirth(noon, true)
		if err != nil {
			return TransitsResponse{}, err
		}
		transits, err := ephemeris.Snapshot(s.gateway, noonJD, transitBodies, zodiac)
		if err != nil {
			return TransitsResponse{}, classify("ephemeris query failed", err)
		}

		matches := aspects.Detect(ephemeris.ToPoints(transits), withAngles(ephemeris.ToPoints(natalPositions), req.Angles), profile)
		events := impact.BuildEvents(chartKey(natalJD, zodiac, req.Angles), day, matches)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].ImpactScore > events[j].ImpactScore
		})
		return TransitsResponse{
			Date:     day.Format("2006-01-02"),
			Profile:  profile.Name,
			Events:   events,
			Curation: curation.Curate(events),
			Warnings: append(append([]string{}, natalRes.Warnings...), noonRes.Warnings...),
		}, nil
	})
	if err != nil {
		return TransitsResponse{}, err
	}
	resp.Cached = hit

	if s.cfg.PersistEvents && s.events != nil && len(resp.Events) > 0 {
		if err := s.events.SaveEvents(ctx, resp.Events); err != nil {
			s.logger.Warn("persist events failed", "date", resp.Date, "count", len(resp.Events), "error", err)
		}
	}
	return resp, nil
}

func (s *service) Event(ctx context.Context, id string) (impact.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return impact.Event{}, invalidInput("event id cannot be empty", nil)
	}
	if s.events == nil {
		return impact.Event{}, apperrors.Wrap(CodeNotFound, "event not found", nil)
	}
	ev, found, err := s.events.FindEvent(ctx, id)
	if err != nil {
		return impact.Event{}, apperrors.Wrap(CodeInternal, "failed to load event", err)
	}
	if !found {
		return impact.Event{}, apperrors.Wrap(CodeNotFound, "event not found", nil)
	}
	return ev, nil
}

func (s *service) resolveBirth(b BirthData, snapForward bool) (localtime.Resolution, float64, error) {
	civil, warnings, err := localtime.ParseCivil(b.Date, b.Time)
	if err != nil {
		return localtime.Resolution{}, 0, classify("invalid date or time", err)
	}
	res, err := s.resolver.Resolve(civil, localtime.Options{
		Timezone:              b.Timezone,
		FallbackOffsetMinutes: b.OffsetMinutes,
		Strict:                b.Strict,
		PreferredFold:         b.Fold,
		SnapForward:           snapForward,
	})
	if err != nil {
		return localtime.Resolution{}, 0, classify("cannot resolve local time", err)
	}
	res.Warnings = append(append([]string{}, warnings...), res.Warnings...)
	return res, ephemeris.JulianDay(res.UTC), nil
}

func (s *service) resolveProfile(opts AspectOptions) (aspects.Profile, error) {
	profile, err := s.profiles.Resolve(opts.Profile, opts.Enabled, opts.Orbs)
	if err != nil {
		return aspects.Profile{}, classify("invalid aspect options", err)
	}
	return profile, nil
}

func (s *service) key(operation string, request, derived any) string {
	if s.cache == nil {
		return ""
	}
	key, err := cacheKey(operation, request, derived)
	if err != nil {
		s.logger.Warn("cache key unavailable", "operation", operation, "error", err)
		return ""
	}
	return key
}

func parseZodiac(opts ZodiacOptions) (ephemeris.Zodiac, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Zodiac)) {
	case "", "tropical":
		return ephemeris.Tropical, nil
	case "sidereal":
		ayanamsa, err := ephemeris.ParseAyanamsa(opts.Ayanamsa)
		if err != nil {
			return ephemeris.Zodiac{}, invalidInput(err.Error(), nil)
		}
		return ephemeris.Zodiac{Sidereal: true, Ayanamsa: ayanamsa}, nil
	}
	return ephemeris.Zodiac{}, invalidInput(fmt.Sprintf("unknown zodiac %q", opts.Zodiac), nil)
}

func parseBodies(names []string) ([]ephemeris.Body, error) {
	if len(names) == 0 {
		return ephemeris.Bodies, nil
	}
	out := make([]ephemeris.Body, 0, len(names))
	for _, name := range names {
		body, err := ephemeris.ParseBody(name)
		if err != nil {
			return nil, invalidInput(err.Error(), nil)
		}
		out = append(out, body)
	}
	return out, nil
}

func withAngles(points ephemeris.Points, angles Angles) ephemeris.Points {
	if angles.AscendantDeg != nil {
		points = append(points, ephemeris.Point{Name: "ASC", LongitudeDeg: angle.Normalize(*angles.AscendantDeg)})
	}
	if angles.MidheavenDeg != nil {
		points = append(points, ephemeris.Point{Name: "MC", LongitudeDeg: angle.Normalize(*angles.MidheavenDeg)})
	}
	return points
}

func searchRequest(cfg SearchConfig, body ephemeris.Body, zodiac ephemeris.Zodiac, target, startJD, endJD float64) anglematch.Request {
	return anglematch.Request{
		Body:               body,
		Zodiac:             zodiac,
		TargetLongitudeDeg: target,
		StartJD:            startJD,
		EndJD:              endJD,
		ToleranceDeg:       cfg.ToleranceDeg,
		SweepStepDays:      toDays(cfg.SweepStep),
		BracketStepDays:    toDays(cfg.BracketStep),
		MaxIterations:      cfg.MaxIterations,
		TimeToleranceDays:  toDays(cfg.TimeTolerance),
	}
}

// birthdayUTC places the natal wall clock on the birthday of year, clamping Feb 29.
func birthdayUTC(natal localtime.Resolution, year int) time.Time {
	c := natal.LocalUsed
	month := time.Month(c.Month)
	day := c.Day
	if limit := localtime.DaysIn(year, month); day > limit {
		day = limit
	}
	wall := time.Date(year, month, day, c.Hour, c.Minute, c.Second, 0, time.UTC)
	return wall.Add(-time.Duration(natal.OffsetMinutes) * time.Minute)
}

func formatLocal(t time.Time, tz string, fallbackOffset int) (string, error) {
	if tz = strings.TrimSpace(tz); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return "", classify("unknown timezone", fmt.Errorf("%w: %q", localtime.ErrTimezoneNotFound, tz))
		}
		return t.In(loc).Format(time.RFC3339), nil
	}
	return t.In(time.FixedZone("", fallbackOffset*60)).Format(time.RFC3339), nil
}

func toDays(d time.Duration) float64 {
	return d.Hours() / 24
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
