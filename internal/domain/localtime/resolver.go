// Package localtime turns naive civil times into UTC instants under IANA zone rules.
package localtime

import (
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"
)

const transitionWindow = 48 * time.Hour

// Resolver interprets civil times. The zero value is not usable; call NewResolver.
type Resolver struct {
	loadLocation func(name string) (*time.Location, error)
}

// NewResolver builds a Resolver backed by the embedded zone database.
func NewResolver() *Resolver {
	return &Resolver{loadLocation: time.LoadLocation}
}

// Resolve maps civil onto a single UTC instant.
func (r *Resolver) Resolve(civil Civil, opts Options) (Resolution, error) {
	if err := civil.Validate(); err != nil {
		return Resolution{}, err
	}
	if opts.PreferredFold != nil && *opts.PreferredFold != 0 && *opts.PreferredFold != 1 {
		return Resolution{}, fmt.Errorf("%w: fold must be 0 or 1, got %d", ErrInvalidArgument, *opts.PreferredFold)
	}

	tz := strings.TrimSpace(opts.Timezone)
	if tz == "" {
		return resolveFixed(civil, opts.FallbackOffsetMinutes), nil
	}

	loc, err := r.loadLocation(tz)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %q", ErrTimezoneNotFound, tz)
	}

	wall := civil.asUTC()
	before := offsetAt(wall.Add(-transitionWindow), loc)
	after := offsetAt(wall.Add(transitionWindow), loc)
	beforeOK := roundTrips(wall, before, loc)
	afterOK := roundTrips(wall, after, loc)

	fold := 0
	if opts.PreferredFold != nil {
		fold = *opts.PreferredFold
	}

	res := Resolution{Timezone: tz, Requested: civil, Warnings: []string{}}
	switch {
	case before == after || beforeOK != afterOK:
		offset := before
		if !beforeOK {
			offset = after
		}
		res.OffsetMinutes = offset / 60
		res.UTC = wall.Add(-time.Duration(offset) * time.Second)
		res.LocalUsed = civil
	case beforeOK && afterOK:
		options := []int{before / 60, after / 60}
		sort.Ints(options)
		if opts.Strict {
			return Resolution{}, &AmbiguityError{
				Local:                civil,
				Timezone:             tz,
				OffsetOptionsMinutes: options,
				Hint:                 "pass fold=0 for the first occurrence or fold=1 for the second",
			}
		}
		offset := before
		if fold == 1 {
			offset = after
		}
		res.OffsetMinutes = offset / 60
		res.Fold = &fold
		res.IsAmbiguous = true
		res.OffsetOptionsMinutes = options
		res.UTC = wall.Add(-time.Duration(offset) * time.Second)
		res.LocalUsed = civil
		res.Warnings = append(res.Warnings, fmt.Sprintf("ambiguous local time during DST transition; using fold=%d", fold))
	default:
		gap := (after - before) / 60
		if gap < 0 {
			gap = -gap
		}
		if opts.Strict {
			return Resolution{}, &GapError{
				Local:             civil,
				Timezone:          tz,
				AdjustmentMinutes: gap,
				Hint:              "pick a wall time outside the transition gap or disable strict mode",
			}
		}
		var instant time.Time
		switch {
		case opts.SnapForward:
			instant = firstValidInstant(wall.Add(-time.Duration(after)*time.Second), wall.Add(-time.Duration(before)*time.Second), after, loc)
		case fold == 1:
			instant = wall.Add(-time.Duration(after) * time.Second)
		default:
			instant = wall.Add(-time.Duration(before) * time.Second)
		}
		local := instant.In(loc)
		res.UTC = instant.UTC()
		res.OffsetMinutes = offsetAt(instant, loc) / 60
		res.Fold = &fold
		res.IsNonexistent = true
		res.LocalUsed = FromTime(local)
		res.AdjustmentMinutes = int(res.LocalUsed.asUTC().Sub(wall) / time.Minute)
		res.Warnings = append(res.Warnings, fmt.Sprintf("nonexistent local time during DST transition; shifted by %d minutes (fold=%d)", res.AdjustmentMinutes, fold))
	}

	if opts.FallbackOffsetMinutes != nil && *opts.FallbackOffsetMinutes != res.OffsetMinutes {
		res.Warnings = append(res.Warnings, fmt.Sprintf("supplied offset %d differs from %s offset %d; using timezone", *opts.FallbackOffsetMinutes, tz, res.OffsetMinutes))
	}
	return res, nil
}

func resolveFixed(civil Civil, fallback *int) Resolution {
	offset := 0
	if fallback != nil {
		offset = *fallback
	}
	return Resolution{
		Requested:     civil,
		LocalUsed:     civil,
		OffsetMinutes: offset,
		Warnings:      []string{},
		UTC:           civil.asUTC().Add(-time.Duration(offset) * time.Minute),
	}
}

// offsetAt returns the zone offset in seconds in force at instant t.
func offsetAt(t time.Time, loc *time.Location) int {
	_, offset := t.In(loc).Zone()
	return offset
}

func roundTrips(wall time.Time, offset int, loc *time.Location) bool {
	return offsetAt(wall.Add(-time.Duration(offset)*time.Second), loc) == offset
}

// firstValidInstant scans minute by minute for the first instant carrying the post-gap offset.
func firstValidInstant(lo, hi time.Time, after int, loc *time.Location) time.Time {
	for t := lo.Truncate(time.Minute); !t.After(hi); t = t.Add(time.Minute) {
		if offsetAt(t, loc) == after {
			return t
		}
	}
	return hi
}
