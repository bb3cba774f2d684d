package model

// Round outcome cell values.
const (
	ResultWin  = "W"
	ResultLoss = "L"
)

// RoundOutcome is one wrestler's result in one round.
type RoundOutcome struct {
	Round       string  `json:"round"`
	Order       int     `json:"order"`
	Result      string  `json:"result"`
	WinType     string  `json:"win_type"`
	Opponent    string  `json:"opponent"`
	Advancement float64 `json:"advancement"`
	Bonus       float64 `json:"bonus"`
	Line        int     `json:"line"`
}

// Cell renders the round summary cell: W-<type>, L, L-SV or L-TB.
func (o RoundOutcome) Cell() string {
	if o.Result == ResultWin {
		return ResultWin + "-" + WinAbbrev(o.WinType)
	}
	switch o.WinType {
	case WinSuddenVictory, WinTieBreak:
		return ResultLoss + "-" + WinAbbrev(o.WinType)
	}
	return ResultLoss
}

// MatchDelta is the point change one match produces. The loser side is always zero.
type MatchDelta struct {
	WinnerID    string  `json:"winner_id"`
	LoserID     string  `json:"loser_id"`
	Advancement float64 `json:"advancement"`
	Bonus       float64 `json:"bonus"`
}

// For returns the (advancement, bonus) attributed to id.
func (d MatchDelta) For(id string) (advancement, bonus float64) {
	if id == d.WinnerID {
		return d.Advancement, d.Bonus
	}
	return 0, 0
}

// PlacementDelta is the point change from a final rank.
type PlacementDelta struct {
	WrestlerID string  `json:"wrestler_id"`
	Rank       int     `json:"rank"`
	Placement  float64 `json:"placement"`
}

// ScoredEntry accumulates one drafted wrestler's points.
type ScoredEntry struct {
	Wrestler         Wrestler       `json:"wrestler"`
	ChampWins        int            `json:"champ_wins"`
	ChampAdvancement float64        `json:"champ_advancement"`
	ChampBonus       float64        `json:"champ_bonus"`
	ConsWins         int            `json:"cons_wins"`
	ConsAdvancement  float64        `json:"cons_advancement"`
	ConsBonus        float64        `json:"cons_bonus"`
	PlaceAdvancement float64        `json:"place_advancement"`
	PlaceBonus       float64        `json:"place_bonus"`
	Placement        int            `json:"placement"`
	PlacementPoints  float64        `json:"placement_points"`
	Wins             int            `json:"wins"`
	Losses           int            `json:"losses"`
	Outcomes         []RoundOutcome `json:"outcomes"`
	WinTypes         map[string]int `json:"win_types"`
}

// NewScoredEntry starts an empty entry for w.
func NewScoredEntry(w Wrestler) *ScoredEntry {
	return &ScoredEntry{Wrestler: w, WinTypes: make(map[string]int)}
}

// Advancement is the total advancement across brackets, placement matches included.
func (e *ScoredEntry) Advancement() float64 {
	return e.ChampAdvancement + e.ConsAdvancement + e.PlaceAdvancement
}

// Bonus is the total bonus across brackets, placement matches included.
func (e *ScoredEntry) Bonus() float64 { return e.ChampBonus + e.ConsBonus + e.PlaceBonus }

// Total is advancement plus bonus plus placement points.
func (e *ScoredEntry) Total() float64 {
	return e.Advancement() + e.Bonus() + e.PlacementPoints
}

// ApplyWin records a win in the given bracket.
func (e *ScoredEntry) ApplyWin(b Bracket, o RoundOutcome) {
	e.Wins++
	switch b {
	case BracketChamp:
		e.ChampWins++
		e.ChampAdvancement += o.Advancement
		e.ChampBonus += o.Bonus
	case BracketCons:
		e.ConsWins++
		e.ConsAdvancement += o.Advancement
		e.ConsBonus += o.Bonus
	default:
		e.PlaceAdvancement += o.Advancement
		e.PlaceBonus += o.Bonus
	}
	e.WinTypes[o.WinType]++
	e.Outcomes = append(e.Outcomes, o)
}

// ApplyLoss records a loss.
func (e *ScoredEntry) ApplyLoss(o RoundOutcome) {
	e.Losses++
	e.Outcomes = append(e.Outcomes, o)
}

// TeamAggregate sums ScoredEntry categories for one owner. It is derived, never mutated in place.
type TeamAggregate struct {
	Owner            string         `json:"owner"`
	ChampWins        int            `json:"champ_wins"`
	ChampAdvancement float64        `json:"champ_advancement"`
	ChampBonus       float64        `json:"champ_bonus"`
	ConsWins         int            `json:"cons_wins"`
	ConsAdvancement  float64        `json:"cons_advancement"`
	ConsBonus        float64        `json:"cons_bonus"`
	PlaceAdvancement float64        `json:"place_advancement"`
	PlaceBonus       float64        `json:"place_bonus"`
	PlacementPoints  float64        `json:"placement_points"`
	Total            float64        `json:"total"`
	Wrestlers        int            `json:"wrestlers"`
	WinTypes         map[string]int `json:"win_types"`
}

// Aggregate rebuilds team aggregates from entries. owners fixes the output order and
// guarantees a row for teams without any scored wrestler.
func Aggregate(owners []string, entries []*ScoredEntry) []TeamAggregate {
	idx := make(map[string]int, len(owners))
	out := make([]TeamAggregate, 0, len(owners))
	for _, o := range owners {
		idx[o] = len(out)
		out = append(out, TeamAggregate{Owner: o, WinTypes: make(map[string]int)})
	}
	for _, e := range entries {
		i, ok := idx[e.Wrestler.Owner]
		if !ok {
			continue
		}
		t := &out[i]
		t.ChampWins += e.ChampWins
		t.ChampAdvancement += e.ChampAdvancement
		t.ChampBonus += e.ChampBonus
		t.ConsWins += e.ConsWins
		t.ConsAdvancement += e.ConsAdvancement
		t.ConsBonus += e.ConsBonus
		t.PlaceAdvancement += e.PlaceAdvancement
		t.PlaceBonus += e.PlaceBonus
		t.PlacementPoints += e.PlacementPoints
		t.Total += e.Total()
		t.Wrestlers++
		for k, v := range e.WinTypes {
			t.WinTypes[k] += v
		}
	}
	return out
}
