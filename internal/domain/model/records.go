package model

import "strings"

// Canonical win types.
const (
	WinFall             = "Fall"
	WinTechFall         = "Tech Fall"
	WinMajorDecision    = "Major Decision"
	WinDecision         = "Decision"
	WinSuddenVictory    = "Sudden Victory"
	WinTieBreak         = "Tie-Break"
	WinDefault          = "Default"
	WinForfeit          = "Forfeit"
	WinMedicalForfeit   = "Medical Forfeit"
	WinDisqualification = "Disqualification"
)

// winAbbrev maps canonical types to the short codes used in round cells.
var winAbbrev = map[string]string{ //nolint:gochecknoglobals // lookup table
	WinFall:             "Fall",
	WinTechFall:         "TF",
	WinMajorDecision:    "MD",
	WinDecision:         "Dec",
	WinSuddenVictory:    "SV",
	WinTieBreak:         "TB",
	WinDefault:          "Def",
	WinForfeit:          "FF",
	WinMedicalForfeit:   "MFF",
	WinDisqualification: "DQ",
}

// WinAbbrev returns the short code for a win type, or the type itself.
func WinAbbrev(winType string) string {
	if a, ok := winAbbrev[winType]; ok {
		return a
	}
	return winType
}

// Mention is a raw wrestler reference before resolution.
type Mention struct {
	Name   string `json:"name"`
	School string `json:"school,omitempty"`
	Weight string `json:"weight,omitempty"`
}

// String renders the mention the way it appeared in text.
func (m Mention) String() string {
	if m.School == "" {
		return m.Name
	}
	return m.Name + " (" + m.School + ")"
}

// Key is an order-sensitive normalized key for duplicate detection.
func (m Mention) Key() string {
	return strings.ToLower(strings.Join(strings.Fields(m.Name), " ")) + "|" +
		strings.ToLower(strings.Join(strings.Fields(m.School), " "))
}

// MatchRecord is one parsed match line.
type MatchRecord struct {
	Line       int     `json:"line"`
	Text       string  `json:"text"`
	Weight     string  `json:"weight,omitempty"`
	RoundLabel string  `json:"round_label"`
	Round      string  `json:"round"`
	Winner     Mention `json:"winner"`
	Loser      Mention `json:"loser"`
	WinType    string  `json:"win_type"`
	WinTypeRaw string  `json:"win_type_raw"`
	Score      *string `json:"score,omitempty"`
	Recognised bool    `json:"recognised"`
	Conflict   bool    `json:"conflict,omitempty"`
}

// PairKey identifies the match regardless of which side won.
func (m MatchRecord) PairKey() string {
	a, b := m.Winner.Key(), m.Loser.Key()
	if b < a {
		a, b = b, a
	}
	return m.Weight + "|" + m.Round + "|" + a + "|" + b
}

// ResolvedMatch is a MatchRecord whose mentions are resolved to wrestler IDs.
type ResolvedMatch struct {
	MatchRecord
	WinnerID      string `json:"winner_id"`
	LoserID       string `json:"loser_id"`
	WinnerDrafted bool   `json:"winner_drafted"`
	LoserDrafted  bool   `json:"loser_drafted"`
}

// Placement sources.
const (
	PlacementFromBlock = "block"
	PlacementFromMatch = "match"
)

// PlacementRecord is a parsed final rank. Rank 0 means unplaced.
type PlacementRecord struct {
	Line    int     `json:"line"`
	Text    string  `json:"text"`
	Weight  string  `json:"weight,omitempty"`
	Rank    int     `json:"rank"`
	Mention Mention `json:"mention"`
	Source  string  `json:"source"`
}

// Scorable reports whether the rank can earn placement points.
func (p PlacementRecord) Scorable() bool { return p.Rank >= 1 && p.Rank <= 8 }

// ResolvedPlacement is a PlacementRecord bound to a wrestler.
type ResolvedPlacement struct {
	PlacementRecord
	WrestlerID string `json:"wrestler_id"`
	Drafted    bool   `json:"drafted"`
}
