package localtime

import (
	"fmt"
	"time"
)

// Civil is a naive wall-clock date and time without zone information.
type Civil struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// Options tunes a single resolution.
type Options struct {
	// Timezone is an IANA identifier. Empty means use FallbackOffsetMinutes.
	Timezone string
	// FallbackOffsetMinutes is the caller supplied UTC offset, east positive.
	FallbackOffsetMinutes *int
	// Strict turns ambiguous and nonexistent wall times into errors.
	Strict bool
	// PreferredFold selects between candidates: 0 earlier offset, 1 later offset.
	PreferredFold *int
	// SnapForward moves a nonexistent wall time to the first valid minute after the gap
	// instead of shifting it by the gap size.
	SnapForward bool
}

// Resolution is the unambiguous interpretation of a civil time.
type Resolution struct {
	Timezone             string    `json:"timezone,omitempty"`
	Requested            Civil     `json:"requested"`
	LocalUsed            Civil     `json:"localUsed"`
	OffsetMinutes        int       `json:"offsetMinutes"`
	Fold                 *int      `json:"fold,omitempty"`
	IsAmbiguous          bool      `json:"isAmbiguous"`
	IsNonexistent        bool      `json:"isNonexistent"`
	AdjustmentMinutes    int       `json:"adjustmentMinutes"`
	OffsetOptionsMinutes []int     `json:"offsetOptionsMinutes,omitempty"`
	Warnings             []string  `json:"warnings"`
	UTC                  time.Time `json:"utc"`
}

// FromTime converts the wall clock of t into a Civil value.
func FromTime(t time.Time) Civil {
	return Civil{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Validate rejects calendar values that time.Date would silently normalize.
func (c Civil) Validate() error {
	if c.Month < 1 || c.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidArgument, c.Month)
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return fmt.Errorf("%w: clock %02d:%02d:%02d out of range", ErrInvalidArgument, c.Hour, c.Minute, c.Second)
	}
	if c.Day < 1 || c.Day > DaysIn(c.Year, time.Month(c.Month)) {
		return fmt.Errorf("%w: day %d out of range for %04d-%02d", ErrInvalidArgument, c.Day, c.Year, c.Month)
	}
	return nil
}

// String renders the value as an ISO-8601 local timestamp.
func (c Civil) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second)
}

// asUTC reinterprets the wall clock as if it were UTC.
func (c Civil) asUTC() time.Time {
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
