package parser

import "errors"

var (
	// ErrEmptyInput is returned when the results text is blank.
	ErrEmptyInput = errors.New("empty results text")

	// ErrNoContent is returned when no line in the text looks like a match or a placement.
	ErrNoContent = errors.New("no match or placement lines found")
)
