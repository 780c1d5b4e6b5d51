package anglematch

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
	"github.com/yanqian/astro-api/pkg/angle"
)

// ErrInvalidArgument reports a malformed search request.
var ErrInvalidArgument = errors.New("invalid search argument")

// Method names how a Result was obtained.
type Method string

const (
	MethodSweep          Method = "sweep"
	MethodBisection      Method = "bisection"
	MethodBisectionLimit Method = "bisection-limit"
	MethodExactBracket   Method = "exact-bracket"
)

const (
	DefaultSweepStepDays     = 1.0 / 24
	DefaultBracketStepDays   = 6.0 / 24
	DefaultMaxIterations     = 60
	DefaultTimeToleranceDays = 1.0 / 86400
	// MaxSweepSteps bounds the number of gateway calls of a single sweep.
	MaxSweepSteps = 100000
)

// Request describes one longitude match over a closed UT window.
type Request struct {
	Body               ephemeris.Body
	Zodiac             ephemeris.Zodiac
	TargetLongitudeDeg float64
	StartJD            float64
	EndJD              float64
	ToleranceDeg       float64
	SweepStepDays      float64
	BracketStepDays    float64
	MaxIterations      int
	TimeToleranceDays  float64
}

// Result is the best instant found inside the window.
type Result struct {
	InstantJD           float64   `json:"instantJd"`
	Instant             time.Time `json:"instant"`
	MatchedLongitudeDeg float64   `json:"matchedLongitudeDeg"`
	AbsoluteDeltaDeg    float64   `json:"absoluteDeltaDeg"`
	BracketFound        bool      `json:"bracketFound"`
	Iterations          int       `json:"iterations"`
	Method              Method    `json:"method"`
	ToleranceDeg        float64   `json:"toleranceDeg"`
}

func (r Request) normalized() (Request, error) {
	switch {
	case math.IsNaN(r.TargetLongitudeDeg) || math.IsInf(r.TargetLongitudeDeg, 0):
		return r, fmt.Errorf("%w: target longitude must be finite", ErrInvalidArgument)
	case math.IsNaN(r.StartJD) || math.IsNaN(r.EndJD):
		return r, fmt.Errorf("%w: window bounds must be finite", ErrInvalidArgument)
	case r.EndJD < r.StartJD:
		return r, fmt.Errorf("%w: window end %.6f precedes start %.6f", ErrInvalidArgument, r.EndJD, r.StartJD)
	case !(r.ToleranceDeg > 0):
		return r, fmt.Errorf("%w: tolerance must be positive", ErrInvalidArgument)
	case r.SweepStepDays < 0 || r.BracketStepDays < 0 || r.TimeToleranceDays < 0 || r.MaxIterations < 0:
		return r, fmt.Errorf("%w: steps and limits cannot be negative", ErrInvalidArgument)
	case !r.Body.Valid():
		return r, fmt.Errorf("%w: unknown body", ErrInvalidArgument)
	}
	if r.SweepStepDays == 0 {
		r.SweepStepDays = DefaultSweepStepDays
	}
	if r.BracketStepDays == 0 {
		r.BracketStepDays = DefaultBracketStepDays
	}
	if r.MaxIterations == 0 {
		r.MaxIterations = DefaultMaxIterations
	}
	if r.TimeToleranceDays == 0 {
		r.TimeToleranceDays = DefaultTimeToleranceDays
	}
	r.TargetLongitudeDeg = angle.Normalize(r.TargetLongitudeDeg)
	return r, nil
}

// sample is one evaluation of f(t) = signed delta between the body and the target.
type sample struct {
	jd    float64
	lon   float64
	delta float64
}

func evaluate(gw ephemeris.Gateway, req Request, jd float64) (sample, error) {
	pos, err := gw.PositionAt(jd, req.Body, req.Zodiac)
	if err != nil {
		return sample{}, fmt.Errorf("evaluate %s at jd %.6f: %w", req.Body, jd, err)
	}
	return sample{jd: jd, lon: pos.LongitudeDeg, delta: angle.SignedDelta(pos.LongitudeDeg, req.TargetLongitudeDeg)}, nil
}

func (s sample) result(req Request, method Method, bracket bool, iterations int) Result {
	return Result{
		InstantJD:           s.jd,
		Instant:             ephemeris.TimeFromJulianDay(s.jd),
		MatchedLongitudeDeg: s.lon,
		AbsoluteDeltaDeg:    math.Abs(s.delta),
		BracketFound:        bracket,
		Iterations:          iterations,
		Method:              method,
		ToleranceDeg:        req.ToleranceDeg,
	}
}
