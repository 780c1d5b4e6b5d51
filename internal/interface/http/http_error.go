package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-api/internal/domain/astro"
	apperrors "github.com/yanqian/astro-api/pkg/errors"
)

// HTTPError is the transport form of a failure: status, stable code and optional details.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// chart computation codes
var astroStatus = map[string]int{
	astro.CodeInvalidInput:         http.StatusBadRequest,
	astro.CodeTimezoneNotFound:     http.StatusBadRequest,
	astro.CodeAmbiguousLocalTime:   http.StatusBadRequest,
	astro.CodeNonexistentLocalTime: http.StatusBadRequest,
	astro.CodeNotFound:             http.StatusNotFound,
	astro.CodeEphemeris:            http.StatusBadGateway,
	astro.CodeInternal:             http.StatusInternalServerError,
}

// token endpoint and middleware codes
var authStatus = map[string]int{
	"invalid_input":       http.StatusBadRequest,
	"invalid_credentials": http.StatusUnauthorized,
	"invalid_token":       http.StatusUnauthorized,
	"auth_disabled":       http.StatusNotImplemented,
}

// fromAppError maps an AppError code through table. Unknown codes become a
// 500 under fallbackCode; details travel unchanged.
func fromAppError(err error, table map[string]int, fallbackCode string) *HTTPError {
	code := apperrors.Code(err)
	status, ok := table[code]
	if !ok {
		status, code = http.StatusInternalServerError, fallbackCode
	}
	httpErr := NewHTTPError(status, code, errMessage(err), err)
	httpErr.Details = apperrors.Details(err)
	return httpErr
}

func astroError(err error) *HTTPError {
	return fromAppError(err, astroStatus, astro.CodeInternal)
}

func authError(err error) *HTTPError {
	return fromAppError(err, authStatus, "auth_failed")
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	if apperrors.Code(err) != "" {
		return astroError(err)
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    astro.CodeInternal,
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
