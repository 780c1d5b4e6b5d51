package auth

import "errors"

// ErrInvalidKey indicates that no configured client matches the API key.
var ErrInvalidKey = errors.New("api key not recognised")
