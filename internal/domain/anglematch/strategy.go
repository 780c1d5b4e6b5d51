// Package anglematch locates the instant a body reaches a target ecliptic longitude.
package anglematch

import (
	"fmt"
	"math"
	"strings"

	"github.com/yanqian/astro-api/internal/domain/ephemeris"
)

// Strategy is one search engine.
type Strategy interface {
	Name() string
	Search(gw ephemeris.Gateway, req Request) (Result, error)
}

// ForEngine maps an engine identifier onto its strategy. Empty selects v2.
func ForEngine(id string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "v1", "sweep":
		return Sweep{}, nil
	case "", "v2", "bisection":
		return Bisection{}, nil
	}
	return nil, fmt.Errorf("%w: unknown engine %q", ErrInvalidArgument, id)
}

// Sweep samples the window at fixed steps and keeps the closest sample.
type Sweep struct{}

// Name implements Strategy.
func (Sweep) Name() string { return "v1" }

// Search implements Strategy.
func (Sweep) Search(gw ephemeris.Gateway, req Request) (Result, error) {
	req, err := req.normalized()
	if err != nil {
		return Result{}, err
	}
	return sweep(gw, req)
}

func sweep(gw ephemeris.Gateway, req Request) (Result, error) {
	span := req.EndJD - req.StartJD
	step := req.SweepStepDays
	if span/step > MaxSweepSteps {
		step = span / MaxSweepSteps
	}

	var best sample
	found := false
	evaluations := 0
	for i := 0; ; i++ {
		jd := req.StartJD + float64(i)*step
		if jd > req.EndJD {
			jd = req.EndJD
		}
		s, err := evaluate(gw, req, jd)
		if err != nil {
			return Result{}, err
		}
		evaluations++
		if !found || math.Abs(s.delta) < math.Abs(best.delta) {
			best, found = s, true
		}
		if math.Abs(s.delta) <= req.ToleranceDeg || jd >= req.EndJD {
			break
		}
	}
	return best.result(req, MethodSweep, false, evaluations), nil
}

// Bisection brackets a sign change of the signed delta and bisects it,
// falling back to Sweep when the window holds no crossing.
type Bisection struct{}

// Name implements Strategy.
func (Bisection) Name() string { return "v2" }

// Search implements Strategy.
func (Bisection) Search(gw ephemeris.Gateway, req Request) (Result, error) {
	req, err := req.normalized()
	if err != nil {
		return Result{}, err
	}

	lo, err := evaluate(gw, req, req.StartJD)
	if err != nil {
		return Result{}, err
	}
	if lo.delta == 0 {
		return lo.result(req, MethodExactBracket, true, 0), nil
	}

	var hi sample
	bracketed := false
	for i := 1; ; i++ {
		jd := req.StartJD + float64(i)*req.BracketStepDays
		if jd > req.EndJD {
			jd = req.EndJD
		}
		if jd <= lo.jd {
			break
		}
		next, err := evaluate(gw, req, jd)
		if err != nil {
			return Result{}, err
		}
		if next.delta == 0 {
			return next.result(req, MethodExactBracket, true, 0), nil
		}
		if crosses(lo.delta, next.delta) {
			hi, bracketed = next, true
			break
		}
		lo = next
		if jd >= req.EndJD {
			break
		}
	}
	if !bracketed {
		return sweep(gw, req)
	}

	// lo and hi carry the deltas from when they were evaluated; the gateway is
	// referentially transparent, so each step only queries the midpoint.
	method := MethodBisection
	var mid sample
	iterations := 0
	for {
		if iterations >= req.MaxIterations {
			method = MethodBisectionLimit
			break
		}
		mid, err = evaluate(gw, req, (lo.jd+hi.jd)/2)
		if err != nil {
			return Result{}, err
		}
		iterations++
		if math.Abs(mid.delta) <= req.ToleranceDeg || (hi.jd-lo.jd)/2 <= req.TimeToleranceDays {
			break
		}
		if math.Signbit(mid.delta) == math.Signbit(lo.delta) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return mid.result(req, method, true, iterations), nil
}

// crosses reports a true zero crossing between two signed deltas. A flip from
// near +180 to near -180 is the branch cut of the delta, not a match.
func crosses(a, b float64) bool {
	if math.Signbit(a) == math.Signbit(b) {
		return false
	}
	return math.Abs(a)+math.Abs(b) < 180
}
