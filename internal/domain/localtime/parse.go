package localtime

import (
	"fmt"
	"strings"
	"time"
)

// MissingTimeWarning is emitted when only a date is supplied.
const MissingTimeWarning = "time missing; assumed 12:00:00"

// ParseCivil reads a YYYY-MM-DD date and an optional HH:MM or HH:MM:SS clock.
func ParseCivil(date, clock string) (Civil, []string, error) {
	var warnings []string
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return Civil{}, nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidArgument, date)
	}
	clock = strings.TrimSpace(clock)
	hour, minute, second := 12, 0, 0
	if clock == "" {
		warnings = append(warnings, MissingTimeWarning)
	} else {
		layout := "15:04:05"
		if strings.Count(clock, ":") == 1 {
			layout = "15:04"
		}
		c, err := time.Parse(layout, clock)
		if err != nil {
			return Civil{}, nil, fmt.Errorf("%w: time %q must be HH:MM or HH:MM:SS", ErrInvalidArgument, clock)
		}
		hour, minute, second = c.Hour(), c.Minute(), c.Second()
	}
	return Civil{
		Year:   d.Year(),
		Month:  int(d.Month()),
		Day:    d.Day(),
		Hour:   hour,
		Minute: minute,
		Second: second,
	}, warnings, nil
}
