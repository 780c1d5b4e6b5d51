package localtime

import (
	"errors"
	"fmt"
)

var (
	// ErrTimezoneNotFound reports an IANA identifier missing from the zone database.
	ErrTimezoneNotFound = errors.New("timezone not found")
	// ErrAmbiguousLocalTime is matched by *AmbiguityError.
	ErrAmbiguousLocalTime = errors.New("ambiguous local time")
	// ErrNonexistentLocalTime is matched by *GapError.
	ErrNonexistentLocalTime = errors.New("nonexistent local time")
	// ErrInvalidArgument covers malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
)

// AmbiguityError is returned in strict mode when a wall time occurs twice.
type AmbiguityError struct {
	Local                Civil
	Timezone             string
	OffsetOptionsMinutes []int
	Hint                 string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("local time %s is ambiguous in %s (offsets %v)", e.Local, e.Timezone, e.OffsetOptionsMinutes)
}

func (e *AmbiguityError) Unwrap() error { return ErrAmbiguousLocalTime }

// GapError is returned in strict mode when a wall time is skipped by a transition.
type GapError struct {
	Local             Civil
	Timezone          string
	AdjustmentMinutes int
	Hint              string
}

func (e *GapError) Error() string {
	return fmt.Sprintf("local time %s does not exist in %s (gap of %d minutes)", e.Local, e.Timezone, e.AdjustmentMinutes)
}

func (e *GapError) Unwrap() error { return ErrNonexistentLocalTime }
