package scoring

import "errors"

// ErrUnscorableOutcome is returned when the rules table has no entry for an outcome.
var ErrUnscorableOutcome = errors.New("unscorable outcome")
