package auth

import "errors"

// Authentication errors. Both map to UNAUTHENTICATED / 401 and neither
// reveals whether a similar key exists.
var (
	ErrMissingKey = errors.New("API key required in x-api-key header")
	ErrInvalidKey = errors.New("invalid API key")
)
