package config

import "errors"

// Validation errors returned by Load.
var (
	ErrInvalidMode      = errors.New("invalid mode")
	ErrInvalidPrefix    = errors.New("invalid prefix")
	ErrInvalidBodyLimit = errors.New("invalid body limit")
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)
