package source

import "errors"

// Sentinel kinds for loader errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported roster format")
	ErrMissingColumn     = errors.New("roster is missing a required column")
	ErrNoRows            = errors.New("roster has no wrestlers")
)
