package model

import "fmt"

// DiagnosticKind classifies a recovered problem.
type DiagnosticKind string

// Diagnostic kinds.
const (
	DiagUnparsedLine       DiagnosticKind = "unparsed_line"
	DiagAmbiguousMention   DiagnosticKind = "ambiguous_mention"
	DiagUnknownMention     DiagnosticKind = "unknown_mention"
	DiagUnscorableOutcome  DiagnosticKind = "unscorable_outcome"
	DiagMissingRound       DiagnosticKind = "missing_round"
	DiagDuplicateMatch     DiagnosticKind = "duplicate_match"
	DiagRoundOvercount     DiagnosticKind = "round_overcount"
	DiagOrphanPlacement    DiagnosticKind = "orphan_placement"
	DiagPlacementConflict  DiagnosticKind = "placement_conflict"
	DiagUndraftedPlacement DiagnosticKind = "undrafted_placement"
)

// Severities.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Diagnostic is a non-fatal finding returned alongside the tables.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity string         `json:"severity"`
	Line     int            `json:"line,omitempty"`
	Text     string         `json:"text,omitempty"`
	Detail   string         `json:"detail"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", d.Kind, d.Line, d.Detail)
	}
	return fmt.Sprintf("[%s] %s", d.Kind, d.Detail)
}

// Warn builds a warning diagnostic.
func Warn(kind DiagnosticKind, line int, text, detail string) Diagnostic {
	return Diagnostic{Kind: kind, Severity: SeverityWarning, Line: line, Text: text, Detail: detail}
}

// Info builds an informational diagnostic.
func Info(kind DiagnosticKind, line int, text, detail string) Diagnostic {
	return Diagnostic{Kind: kind, Severity: SeverityInfo, Line: line, Text: text, Detail: detail}
}
