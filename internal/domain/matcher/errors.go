package matcher

import "errors"

var (
	// ErrAmbiguousMention is returned when more than one roster wrestler fits a mention.
	ErrAmbiguousMention = errors.New("ambiguous mention")

	// ErrUnknownMention is returned when a mention cannot be identified at all.
	ErrUnknownMention = errors.New("unknown mention")
)
