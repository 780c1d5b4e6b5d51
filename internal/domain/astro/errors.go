package astro

import (
	"errors"

	"github.com/yanqian/astro-api/internal/domain/anglematch"
	"github.com/yanqian/astro-api/internal/domain/aspects"
	"github.com/yanqian/astro-api/internal/domain/localtime"
	apperrors "github.com/yanqian/astro-api/pkg/errors"
)

// Error codes surfaced by the service.
const (
	CodeInvalidInput         = "invalid_input"
	CodeTimezoneNotFound     = "timezone_not_found"
	CodeAmbiguousLocalTime   = "ambiguous_local_time"
	CodeNonexistentLocalTime = "nonexistent_local_time"
	CodeEphemeris            = "ephemeris_error"
	CodeNotFound             = "not_found"
	CodeInternal             = "internal_error"
)

func invalidInput(message string, err error) error {
	return apperrors.Wrap(CodeInvalidInput, message, err)
}

// classify maps domain failures onto AppError codes with structured details.
func classify(message string, err error) error {
	var (
		ambErr *localtime.AmbiguityError
		gapErr *localtime.GapError
		appErr *apperrors.AppError
	)
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.As(err, &ambErr):
		return apperrors.WithDetails(CodeAmbiguousLocalTime, "local time is ambiguous", map[string]any{
			"local":                ambErr.Local.String(),
			"timezone":             ambErr.Timezone,
			"offsetOptionsMinutes": ambErr.OffsetOptionsMinutes,
			"hint":                 ambErr.Hint,
		}, err)
	case errors.As(err, &gapErr):
		return apperrors.WithDetails(CodeNonexistentLocalTime, "local time does not exist", map[string]any{
			"local":             gapErr.Local.String(),
			"timezone":          gapErr.Timezone,
			"adjustmentMinutes": gapErr.AdjustmentMinutes,
			"hint":              gapErr.Hint,
		}, err)
	case errors.Is(err, localtime.ErrTimezoneNotFound):
		return apperrors.Wrap(CodeTimezoneNotFound, "unknown timezone", err)
	case errors.Is(err, localtime.ErrInvalidArgument),
		errors.Is(err, anglematch.ErrInvalidArgument),
		errors.Is(err, aspects.ErrInvalidArgument):
		return apperrors.Wrap(CodeInvalidInput, message, err)
	default:
		return apperrors.Wrap(CodeEphemeris, message, err)
	}
}
