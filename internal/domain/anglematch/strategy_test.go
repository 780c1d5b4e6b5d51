package anglematch

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/pkg/angle"
)

const t0 = 2460000.5

// linearGateway moves every body at a constant rate from base at t0.
type linearGateway struct {
	base  float64
	speed float64
	calls int
	err   error
}

func (g *linearGateway) PositionAt(jd float64, body ephemeris.Body, _ ephemeris.Zodiac) (ephemeris.Position, error) {
	g.calls++
	if g.err != nil {
		return ephemeris.Position{}, g.err
	}
	return ephemeris.Position{Body: body, Name: body.String(), LongitudeDeg: angle.Normalize(g.base + g.speed*(jd-t0)), SpeedDegPerDay: g.speed}, nil
}

func baseRequest() Request {
	return Request{
		Body:               ephemeris.Sun,
		TargetLongitudeDeg: 100.1,
		StartJD:            t0,
		EndJD:              t0 + 30,
		ToleranceDeg:       1e-6,
	}
}

func TestBisection_FindsCrossing(t *testing.T) {
	gw := &linearGateway{base: 90, speed: 1}

	res, err := Bisection{}.Search(gw, baseRequest())
	require.NoError(t, err)
	require.True(t, res.BracketFound)
	require.Equal(t, MethodBisection, res.Method)
	require.InDelta(t, t0+10.1, res.InstantJD, 2*DefaultTimeToleranceDays)
	require.LessOrEqual(t, res.Iterations, DefaultMaxIterations)
	require.Equal(t, 1e-6, res.ToleranceDeg)
}

func TestBisection_QueriesOnlyMidpoints(t *testing.T) {
	gw := &linearGateway{base: 90, speed: 1}

	res, err := Bisection{}.Search(gw, baseRequest())
	require.NoError(t, err)
	// start, 41 bracket steps of 6h up to t0+10.25, then one query per halving
	require.Equal(t, 1+41+res.Iterations, gw.calls)

	again := &linearGateway{base: 90, speed: 1}
	repeat, err := Bisection{}.Search(again, baseRequest())
	require.NoError(t, err)
	require.Equal(t, res, repeat)
}

func TestBisection_RetrogradeAndWrap(t *testing.T) {
	gw := &linearGateway{base: 10, speed: -2}
	req := baseRequest()
	req.TargetLongitudeDeg = 349.9

	res, err := Bisection{}.Search(gw, req)
	require.NoError(t, err)
	require.True(t, res.BracketFound)
	require.Equal(t, MethodBisection, res.Method)
	require.InDelta(t, t0+10.05, res.InstantJD, 2*DefaultTimeToleranceDays)
	require.InDelta(t, 0, angle.Diff(res.MatchedLongitudeDeg, 349.9), 1e-4)
}

func TestBisection_ExactAtStart(t *testing.T) {
	gw := &linearGateway{base: 100.1, speed: 1}

	res, err := Bisection{}.Search(gw, baseRequest())
	require.NoError(t, err)
	require.Equal(t, MethodExactBracket, res.Method)
	require.True(t, res.BracketFound)
	require.Zero(t, res.Iterations)
	require.Equal(t, t0, res.InstantJD)
	require.Equal(t, 1, gw.calls)
}

func TestBisection_FallsBackToSweep(t *testing.T) {
	gw := &linearGateway{base: 90, speed: 1}
	req := baseRequest()
	req.TargetLongitudeDeg = 200
	req.EndJD = t0 + 10

	res, err := Bisection{}.Search(gw, req)
	require.NoError(t, err)
	require.False(t, res.BracketFound)
	require.Equal(t, MethodSweep, res.Method)
	require.InDelta(t, t0+10, res.InstantJD, 1e-9)
	require.InDelta(t, 100, res.AbsoluteDeltaDeg, 1e-6)
}

func TestBisection_IgnoresBranchCut(t *testing.T) {
	gw := &linearGateway{base: 100, speed: 1}
	req := baseRequest()
	req.TargetLongitudeDeg = 0
	req.EndJD = t0 + 100

	res, err := Bisection{}.Search(gw, req)
	require.NoError(t, err)
	require.False(t, res.BracketFound)
	require.Equal(t, MethodSweep, res.Method)
}

func TestBisection_IterationLimit(t *testing.T) {
	gw := &linearGateway{base: 90, speed: 1}
	req := baseRequest()
	req.MaxIterations = 3

	res, err := Bisection{}.Search(gw, req)
	require.NoError(t, err)
	require.Equal(t, MethodBisectionLimit, res.Method)
	require.Equal(t, 3, res.Iterations)
	require.True(t, res.BracketFound)
}

func TestSweep_StopsAtTolerance(t *testing.T) {
	gw := &linearGateway{base: 90, speed: 1}
	req := baseRequest()
	req.ToleranceDeg = 0.1

	res, err := Sweep{}.Search(gw, req)
	require.NoError(t, err)
	require.Equal(t, MethodSweep, res.Method)
	require.False(t, res.BracketFound)
	require.LessOrEqual(t, res.AbsoluteDeltaDeg, 0.1)
	require.Less(t, res.InstantJD, t0+10.1)
	require.Equal(t, gw.calls, res.Iterations)
}

func TestSweep_SinglePointWindow(t *testing.T) {
	gw := &linearGateway{base: 90, speed: 1}
	req := baseRequest()
	req.EndJD = req.StartJD

	res, err := Sweep{}.Search(gw, req)
	require.NoError(t, err)
	require.Equal(t, 1, res.Iterations)
	require.InDelta(t, 10.1, res.AbsoluteDeltaDeg, 1e-9)

	res, err = Bisection{}.Search(gw, req)
	require.NoError(t, err)
	require.False(t, res.BracketFound)
}

func TestSearch_Deterministic(t *testing.T) {
	req := baseRequest()
	first, err := Bisection{}.Search(&linearGateway{base: 12.5, speed: 13.2}, req)
	require.NoError(t, err)
	second, err := Bisection{}.Search(&linearGateway{base: 12.5, speed: 13.2}, req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSearch_InvalidArguments(t *testing.T) {
	gw := &linearGateway{base: 90, speed: 1}
	cases := map[string]func(*Request){
		"inverted window":   func(r *Request) { r.EndJD = r.StartJD - 1 },
		"zero tolerance":    func(r *Request) { r.ToleranceDeg = 0 },
		"nan target":        func(r *Request) { r.TargetLongitudeDeg = math.NaN() },
		"negative step":     func(r *Request) { r.SweepStepDays = -1 },
		"unknown body":      func(r *Request) { r.Body = ephemeris.Body(99) },
		"negative max iter": func(r *Request) { r.MaxIterations = -1 },
	}
	for name, mutate := range cases {
		req := baseRequest()
		mutate(&req)
		for _, strategy := range []Strategy{Sweep{}, Bisection{}} {
			_, err := strategy.Search(gw, req)
			require.ErrorIs(t, err, ErrInvalidArgument, "%s via %s", name, strategy.Name())
		}
	}
	require.Zero(t, gw.calls)
}

func TestSearch_PropagatesGatewayErrors(t *testing.T) {
	gw := &linearGateway{err: errors.New("ephemeris unavailable")}
	_, err := Bisection{}.Search(gw, baseRequest())
	require.ErrorContains(t, err, "ephemeris unavailable")
}

func TestForEngine(t *testing.T) {
	s, err := ForEngine("v1")
	require.NoError(t, err)
	require.Equal(t, "v1", s.Name())
	s, err = ForEngine("")
	require.NoError(t, err)
	require.Equal(t, "v2", s.Name())
	_, err = ForEngine("v3")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
