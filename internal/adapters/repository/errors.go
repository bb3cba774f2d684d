package repository

import "errors"

// Sentinel kinds for standings errors.
var (
	ErrNotFound     = errors.New("owner not found")
	ErrInvalidLimit = errors.New("invalid standings limit")
)
