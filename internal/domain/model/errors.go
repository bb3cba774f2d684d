package model

import "errors"

// ErrInvalidRoster is returned when a roster breaks identity invariants.
var ErrInvalidRoster = errors.New("invalid roster")
