package service

import "errors"

// Sentinel kinds for run errors.
var (
	ErrEmptyRoster = errors.New("roster is empty")
	ErrNoSource    = errors.New("no input source configured")
	ErrNotReady    = errors.New("no completed run yet")
)
