package astro

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-api/internal/domain/lunar"
	apperrors "github.com/yanqian/astro-api/pkg/errors"
)

func TestLunation_NewMoonOfTheEclipse(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.Lunation(context.Background(), LunationRequest{Date: "2024-04-08", Timezone: "UTC"})
	require.NoError(t, err)
	require.Equal(t, "2024-04-08", resp.Date)
	require.Equal(t, lunar.New, resp.Phase)
	require.False(t, resp.Waxing)
	require.Greater(t, resp.PhaseAngleDeg, 350.0)
	require.Equal(t, "Aries", resp.MoonSign)
	require.Equal(t, "Aries", resp.SunSign)
}

func TestLunation_FullMoon(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.Lunation(context.Background(), LunationRequest{Date: "2024-04-23", Timezone: "UTC"})
	require.NoError(t, err)
	require.Equal(t, lunar.Full, resp.Phase)
	require.True(t, resp.Waxing)
	require.Equal(t, "Taurus", resp.SunSign)
}

func TestLunation_SiderealKeepsPhase(t *testing.T) {
	svc := newTestService(t, nil, nil)

	tropical, err := svc.Lunation(context.Background(), LunationRequest{Date: "2024-04-23", Timezone: "UTC"})
	require.NoError(t, err)
	sidereal, err := svc.Lunation(context.Background(), LunationRequest{
		Date: "2024-04-23", Timezone: "UTC",
		Zodiac: ZodiacOptions{Zodiac: "sidereal", Ayanamsa: "lahiri"},
	})
	require.NoError(t, err)
	require.InDelta(t, tropical.PhaseAngleDeg, sidereal.PhaseAngleDeg, 1e-3)
	require.Equal(t, tropical.Phase, sidereal.Phase)
	require.Equal(t, "Aries", sidereal.SunSign)
}

func TestLunation_BadDate(t *testing.T) {
	svc := newTestService(t, nil, nil)

	_, err := svc.Lunation(context.Background(), LunationRequest{Date: "2024-13-01"})
	require.True(t, apperrors.IsCode(err, CodeInvalidInput), "got %v", err)
}

func TestMoonTimeline_Month(t *testing.T) {
	cache := newStubCache()
	svc := newTestService(t, cache, nil)
	req := MoonTimelineRequest{From: "2024-04-01", To: "2024-04-30", Timezone: "UTC"}

	resp, err := svc.MoonTimeline(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Days, 30)
	require.Equal(t, "2024-04-01", resp.Days[0].Date)
	require.Equal(t, "2024-04-30", resp.Days[29].Date)
	require.Equal(t, lunar.New, resp.Days[7].Phase)
	require.Equal(t, lunar.Full, resp.Days[22].Phase)

	// one lunar cycle moves forward through the bands
	waxingDays := 0
	for _, day := range resp.Days {
		if day.Waxing {
			waxingDays++
		}
	}
	require.InDelta(t, 15, waxingDays, 2)

	again, err := svc.MoonTimeline(context.Background(), req)
	require.NoError(t, err)
	require.True(t, again.Cached)
}

func TestMoonTimeline_DefaultsToAWeek(t *testing.T) {
	svc := newTestService(t, nil, nil)

	resp, err := svc.MoonTimeline(context.Background(), MoonTimelineRequest{From: "2024-04-01", Timezone: "UTC"})
	require.NoError(t, err)
	require.Len(t, resp.Days, 7)
	require.Equal(t, "2024-04-07", resp.To)
}

func TestMoonTimeline_Rejects(t *testing.T) {
	svc := newTestService(t, nil, nil)

	cases := map[string]MoonTimelineRequest{
		"bad from":   {From: "April"},
		"bad to":     {From: "2024-04-01", To: "soon"},
		"reversed":   {From: "2024-04-10", To: "2024-04-01"},
		"too large":  {From: "2024-01-01", To: "2024-04-01"},
		"bad zodiac": {From: "2024-04-01", Zodiac: ZodiacOptions{Zodiac: "draconic"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.MoonTimeline(context.Background(), req)
			require.True(t, apperrors.IsCode(err, CodeInvalidInput), "got %v", err)
		})
	}

	resp, err := svc.MoonTimeline(context.Background(), MoonTimelineRequest{From: "2024-01-01", To: "2024-03-30", Timezone: "UTC"})
	require.NoError(t, err)
	require.Len(t, resp.Days, 90)
}
