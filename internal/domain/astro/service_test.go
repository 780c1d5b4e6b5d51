package astro

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-api/internal/domain/anglematch"
	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/internal/domain/impact"
	"github.com/yanqian/astro-api/internal/infra/ephemeris/analytic"
	"github.com/yanqian/astro-api/pkg/angle"
	apperrors "github.com/yanqian/astro-api/pkg/errors"
)

type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
	failGet bool
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string][]byte{}}
}

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = payload
	return nil
}

type stubRepo struct {
	mu     sync.Mutex
	events map[string]impact.Event
	err    error
}

func (r *stubRepo) SaveEvents(_ context.Context, events []impact.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.events == nil {
		r.events = map[string]impact.Event{}
	}
	for _, ev := range events {
		r.events[ev.ID] = ev
	}
	return nil
}

func (r *stubRepo) FindEvent(_ context.Context, id string) (impact.Event, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	return ev, ok, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	search := SearchConfig{
		Engine:        "v2",
		WindowDays:    3,
		SweepStep:     time.Hour,
		BracketStep:   6 * time.Hour,
		ToleranceDeg:  1e-5,
		MaxIterations: 60,
		TimeTolerance: time.Second,
	}
	lm := search
	lm.WindowDays = 40
	return Config{
		SolarReturn:         search,
		LongitudeMatch:      lm,
		CacheTTL:            time.Hour,
		TimelineParallelism: 4,
		PersistEvents:       true,
	}
}

func newTestService(t *testing.T, cache Cache, repo EventRepository) *service {
	t.Helper()
	registry, err := aspects.NewRegistry(aspects.DefaultCatalog(), aspects.DefaultProfile)
	require.NoError(t, err)
	svc := NewService(testConfig(), analytic.New(), registry, cache, repo, newTestLogger())
	return svc.(*service)
}

func natal() BirthData {
	return BirthData{Date: "1990-06-15", Time: "14:30", Timezone: "America/Sao_Paulo"}
}

func floatPtr(v float64) *float64 { return &v }

func TestResolveTime_StrictGapReturnsDetails(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.ResolveTime(context.Background(), TimeRequest{BirthData: BirthData{
		Date: "2024-03-10", Time: "02:30", Timezone: "America/New_York", Strict: true,
	}})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, CodeNonexistentLocalTime))
	details := apperrors.Details(err)
	require.Equal(t, "America/New_York", details["timezone"])
}

func TestResolveTime_UnknownTimezone(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.ResolveTime(context.Background(), TimeRequest{BirthData: BirthData{Date: "2024-01-01", Timezone: "Mars/Olympus"}})
	require.True(t, apperrors.IsCode(err, CodeTimezoneNotFound))
}

func TestResolveTime_MissingTimeWarns(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.ResolveTime(context.Background(), TimeRequest{BirthData: BirthData{Date: "2024-01-01", Timezone: "UTC"}})
	require.NoError(t, err)
	require.Contains(t, resp.Resolution.Warnings, "time missing; assumed 12:00:00")
	require.InDelta(t, 2460311.0, resp.JulianDayUT, 1e-6)
}

func TestPositions_CachesSecondCall(t *testing.T) {
	cache := newStubCache()
	svc := newTestService(t, cache, nil)
	req := ChartRequest{Birth: natal(), Bodies: []string{"sun", "moon", "mars"}}

	first, err := svc.Positions(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Len(t, first.Positions, 3)
	require.Equal(t, "Sun", first.Positions[0].Name)

	second, err := svc.Positions(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, 1, cache.sets)
	require.InDelta(t, first.Positions[1].LongitudeDeg, second.Positions[1].LongitudeDeg, 1e-12)
}

func TestPositions_CacheFailureFallsThrough(t *testing.T) {
	cache := newStubCache()
	cache.failGet = true
	svc := newTestService(t, cache, nil)

	resp, err := svc.Positions(context.Background(), ChartRequest{Birth: natal()})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.Len(t, resp.Positions, len(ephemeris.Bodies))
}

func TestPositions_InvalidInputs(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Positions(context.Background(), ChartRequest{Birth: natal(), Zodiac: ZodiacOptions{Zodiac: "draconic"}})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))

	_, err = svc.Positions(context.Background(), ChartRequest{Birth: natal(), Bodies: []string{"Vulcan"}})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))

	_, err = svc.Positions(context.Background(), ChartRequest{Birth: BirthData{Date: "1990-13-40"}})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))
}

func TestPositions_SiderealShiftsLongitudes(t *testing.T) {
	svc := newTestService(t, nil, nil)
	req := ChartRequest{Birth: natal(), Bodies: []string{"Sun"}}

	tropical, err := svc.Positions(context.Background(), req)
	require.NoError(t, err)
	req.Zodiac = ZodiacOptions{Zodiac: "sidereal", Ayanamsa: "lahiri"}
	sidereal, err := svc.Positions(context.Background(), req)
	require.NoError(t, err)

	delta := angle.Diff(tropical.Positions[0].LongitudeDeg, sidereal.Positions[0].LongitudeDeg)
	require.InDelta(t, 23.7, delta, 0.3)
}

func TestSolarReturn_MatchesNatalSun(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.SolarReturn(context.Background(), SolarReturnRequest{
		Natal:  natal(),
		Year:   2024,
		Angles: Angles{AscendantDeg: floatPtr(12.5)},
	})
	require.NoError(t, err)
	require.True(t, resp.Match.BracketFound)
	require.Equal(t, anglematch.MethodBisection, resp.Match.Method)
	require.LessOrEqual(t, resp.Match.AbsoluteDeltaDeg, 1e-3)

	sun, err := analytic.New().PositionAt(resp.Match.InstantJD, ephemeris.Sun, ephemeris.Tropical)
	require.NoError(t, err)
	require.InDelta(t, 0, angle.Diff(sun.LongitudeDeg, resp.NatalSunDeg), 1e-3)

	require.Equal(t, 2024, resp.Match.Instant.Year())
	require.Equal(t, time.June, resp.Match.Instant.Month())
	require.InDelta(t, 15, resp.Match.Instant.Day(), 1)
	require.Equal(t, "America/Sao_Paulo", resp.Timezone)
	require.Contains(t, resp.Local, "-03:00")
	require.Equal(t, aspects.DefaultProfile, resp.Profile)
	require.Len(t, resp.Positions, len(ephemeris.Bodies))

	found := false
	for _, m := range resp.Aspects {
		if m.TransitingBody == "Sun" && m.NatalBody == "Sun" {
			found = true
			require.Equal(t, aspects.Conjunction, m.Aspect)
		}
	}
	require.True(t, found)
}

func TestSolarReturn_EnginesAgree(t *testing.T) {
	svc := newTestService(t, nil, nil)
	req := SolarReturnRequest{Natal: natal(), Year: 2030}

	v2, err := svc.SolarReturn(context.Background(), req)
	require.NoError(t, err)
	req.Engine = "v1"
	v1, err := svc.SolarReturn(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, anglematch.MethodSweep, v1.Match.Method)
	require.False(t, v1.Match.BracketFound)
	// an hourly sweep is within half a step of the refined instant
	require.InDelta(t, v2.Match.InstantJD, v1.Match.InstantJD, 1.0/48+1e-6)
}

func TestSolarReturn_LeapDayBirthday(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.SolarReturn(context.Background(), SolarReturnRequest{
		Natal: BirthData{Date: "2000-02-29", Time: "08:00", Timezone: "UTC"},
		Year:  2023,
	})
	require.NoError(t, err)
	require.True(t, resp.Match.BracketFound)
	require.LessOrEqual(t, resp.Match.AbsoluteDeltaDeg, 1e-3)
}

func TestSolarReturn_RejectsBadInput(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.SolarReturn(context.Background(), SolarReturnRequest{Natal: natal(), Year: 0})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))

	_, err = svc.SolarReturn(context.Background(), SolarReturnRequest{Natal: natal(), Year: 2024, Engine: "v9"})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))

	_, err = svc.SolarReturn(context.Background(), SolarReturnRequest{Natal: natal(), Year: 2024, Aspects: AspectOptions{Profile: "nope"}})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))
}

func TestLongitudeMatch_ExplicitTarget(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.LongitudeMatch(context.Background(), LongitudeMatchRequest{
		Body:               "Sun",
		TargetLongitudeDeg: floatPtr(360),
		StartDate:          "2024-03-01",
		EndDate:            "2024-03-31",
		Timezone:           "Europe/London",
	})
	require.NoError(t, err)
	require.Equal(t, "Sun", resp.Body)
	require.Equal(t, 0.0, resp.TargetLongitudeDeg)
	require.True(t, resp.Match.BracketFound)
	// March equinox 2024 fell on 20 March around 03:06 UT
	require.Equal(t, 20, resp.Match.Instant.Day())
	require.Equal(t, time.March, resp.Match.Instant.Month())
}

func TestLongitudeMatch_NatalTarget(t *testing.T) {
	svc := newTestService(t, nil, nil)
	birth := natal()

	resp, err := svc.LongitudeMatch(context.Background(), LongitudeMatchRequest{
		Body:      "Moon",
		Natal:     &birth,
		StartDate: "2024-01-01",
	})
	require.NoError(t, err)
	require.True(t, resp.Match.BracketFound)
	require.Less(t, resp.Match.Instant.Sub(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), 28*24*time.Hour)
}

func TestLongitudeMatch_Validation(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.LongitudeMatch(context.Background(), LongitudeMatchRequest{Body: "Sun", StartDate: "2024-01-01"})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))

	_, err = svc.LongitudeMatch(context.Background(), LongitudeMatchRequest{Body: "Ceres", TargetLongitudeDeg: floatPtr(1), StartDate: "2024-01-01"})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))

	_, err = svc.LongitudeMatch(context.Background(), LongitudeMatchRequest{
		Body: "Sun", TargetLongitudeDeg: floatPtr(1), StartDate: "2024-02-01", EndDate: "2024-01-01",
	})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))
}

func TestDailyTransits_ScoresCuratesAndPersists(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, nil, repo)

	resp, err := svc.DailyTransits(context.Background(), TransitsRequest{
		Natal:  natal(),
		Date:   "2024-06-15",
		Angles: Angles{AscendantDeg: floatPtr(200), MidheavenDeg: floatPtr(110)},
	})
	require.NoError(t, err)
	require.Equal(t, "2024-06-15", resp.Date)
	require.NotEmpty(t, resp.Events)
	require.NotNil(t, resp.Curation.TopEvent)
	require.Equal(t, resp.Events[0].ID, resp.Curation.TopEvent.ID)
	for i := 1; i < len(resp.Events); i++ {
		require.GreaterOrEqual(t, resp.Events[i-1].ImpactScore, resp.Events[i].ImpactScore)
	}

	require.Len(t, repo.events, len(resp.Events))
	ev, err := svc.Event(context.Background(), resp.Events[0].ID)
	require.NoError(t, err)
	require.Equal(t, resp.Events[0].Match, ev.Match)
}

func TestDailyTransits_EventIDsScopedToChart(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, nil, repo)

	first, err := svc.DailyTransits(context.Background(), TransitsRequest{Natal: natal(), Date: "2024-06-15"})
	require.NoError(t, err)
	second, err := svc.DailyTransits(context.Background(), TransitsRequest{
		Natal:  natal(),
		Date:   "2024-06-15",
		Angles: Angles{AscendantDeg: floatPtr(200)},
	})
	require.NoError(t, err)

	ids := map[string]aspects.Match{}
	for _, ev := range first.Events {
		ids[ev.ID] = ev.Match
	}
	shared := 0
	for _, ev := range second.Events {
		if ev.Match.NatalBody == "ASC" {
			continue
		}
		shared++
		_, clash := ids[ev.ID]
		require.False(t, clash, "event %s reused across charts", ev.ID)
	}
	require.Positive(t, shared)
	require.Len(t, repo.events, len(first.Events)+len(second.Events))
}

func TestDailyTransits_PersistFailureIsNotFatal(t *testing.T) {
	repo := &stubRepo{err: errors.New("db down")}
	svc := newTestService(t, nil, repo)

	resp, err := svc.DailyTransits(context.Background(), TransitsRequest{Natal: natal(), Date: "2024-06-15"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Events)
}

func TestDailyTransits_BadDate(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.DailyTransits(context.Background(), TransitsRequest{Natal: natal(), Date: "15/06/2024"})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))
}

func TestEvent_NotFound(t *testing.T) {
	svc := newTestService(t, nil, &stubRepo{})

	_, err := svc.Event(context.Background(), "missing")
	require.True(t, apperrors.IsCode(err, CodeNotFound))

	_, err = svc.Event(context.Background(), " ")
	require.True(t, apperrors.IsCode(err, CodeInvalidInput))

	withoutRepo := newTestService(t, nil, nil)
	_, err = withoutRepo.Event(context.Background(), "missing")
	require.True(t, apperrors.IsCode(err, CodeNotFound))
}

func TestSolarTimeline_OrderedSolarAspects(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.SolarTimeline(context.Background(), TimelineRequest{
		Natal:  natal(),
		Year:   2024,
		Angles: Angles{AscendantDeg: floatPtr(200), MidheavenDeg: floatPtr(110)},
	})
	require.NoError(t, err)
	require.Equal(t, 2024, resp.Year)
	require.NotEmpty(t, resp.Items)

	conjunctionDays := 0
	for i, item := range resp.Items {
		require.Equal(t, "solar_aspects", item.Method)
		require.Equal(t, "Sun", item.Match.TransitingBody)
		require.Equal(t, []string{"Year", "Direction", "Adjustment"}, item.Tags)
		require.LessOrEqual(t, item.Match.OrbDeg, item.Match.MaxOrbDeg)
		if i > 0 {
			require.LessOrEqual(t, resp.Items[i-1].Peak, item.Peak)
		}
		if item.Match.NatalBody == "Sun" && item.Match.Aspect == aspects.Conjunction {
			conjunctionDays++
			require.Equal(t, "Sun conjunction Sun", item.Trigger)
		}
	}
	// a 5 degree orb at roughly 1 degree per day spans about 11 days
	require.InDelta(t, 10, conjunctionDays, 2)
}

func TestSolarTimeline_CancelledContext(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SolarTimeline(ctx, TimelineRequest{Natal: natal(), Year: 2024})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCacheKey_StableAndSensitive(t *testing.T) {
	a, err := cacheKey("positions", ChartRequest{Birth: natal()}, nil)
	require.NoError(t, err)
	b, err := cacheKey("positions", ChartRequest{Birth: natal()}, nil)
	require.NoError(t, err)
	require.Equal(t, a, b)

	other := natal()
	other.Time = "14:31"
	c, err := cacheKey("positions", ChartRequest{Birth: other}, nil)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}
