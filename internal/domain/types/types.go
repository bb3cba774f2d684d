// Package types contains the output table rows shared by exporters, the API and the snapshot store.
package types

import "github.com/okian/takedown/internal/domain/model"

// Entry is a standings row.
type Entry struct {
	Rank  int     `json:"rank"`
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// ResultRow is one drafted wrestler in the results table.
type ResultRow struct {
	WrestlerID       string  `json:"wrestler_id" db:"wrestler_id"`
	Owner            string  `json:"owner" db:"owner"`
	Weight           string  `json:"weight" db:"weight"`
	Wrestler         string  `json:"wrestler" db:"wrestler"`
	School           string  `json:"school" db:"school"`
	Seed             int     `json:"seed" db:"seed"`
	ChampWins        int     `json:"champ_wins" db:"champ_wins"`
	ChampAdvancement float64 `json:"champ_advancement" db:"champ_advancement"`
	ChampBonus       float64 `json:"champ_bonus" db:"champ_bonus"`
	ConsWins         int     `json:"cons_wins" db:"cons_wins"`
	ConsAdvancement  float64 `json:"cons_advancement" db:"cons_advancement"`
	ConsBonus        float64 `json:"cons_bonus" db:"cons_bonus"`
	PlaceAdvancement float64 `json:"place_advancement" db:"place_advancement"`
	PlaceBonus       float64 `json:"place_bonus" db:"place_bonus"`
	Advancement      float64 `json:"advancement" db:"advancement"`
	Bonus            float64 `json:"bonus" db:"bonus"`
	Placement        int     `json:"placement" db:"placement"`
	PlacementPoints  float64 `json:"placement_points" db:"placement_points"`
	Total            float64 `json:"total" db:"total"`
	Wins             int     `json:"wins" db:"wins"`
	Losses           int     `json:"losses" db:"losses"`
}

// RoundRow is one (wrestler, round) outcome in the round table.
type RoundRow struct {
	WrestlerID  string  `json:"wrestler_id" db:"wrestler_id"`
	Owner       string  `json:"owner" db:"owner"`
	Weight      string  `json:"weight" db:"weight"`
	Wrestler    string  `json:"wrestler" db:"wrestler"`
	School      string  `json:"school" db:"school"`
	Round       string  `json:"round" db:"round"`
	RoundOrder  int     `json:"round_order" db:"round_order"`
	Outcome     string  `json:"outcome" db:"outcome"`
	WinType     string  `json:"win_type" db:"win_type"`
	Opponent    string  `json:"opponent" db:"opponent"`
	Advancement float64 `json:"advancement" db:"advancement"`
	Bonus       float64 `json:"bonus" db:"bonus"`
}

// PlacementRow is one placed wrestler in the placements table.
type PlacementRow struct {
	WrestlerID string  `json:"wrestler_id" db:"wrestler_id"`
	Weight     string  `json:"weight" db:"weight"`
	Rank       int     `json:"rank" db:"rank"`
	Wrestler   string  `json:"wrestler" db:"wrestler"`
	School     string  `json:"school" db:"school"`
	Owner      string  `json:"owner" db:"owner"`
	Drafted    bool    `json:"drafted" db:"drafted"`
	Points     float64 `json:"points" db:"points"`
}

// TeamRow is one owner in the team summary.
type TeamRow struct {
	Rank             int     `json:"rank" db:"rank"`
	Owner            string  `json:"owner" db:"owner"`
	ChampWins        int     `json:"champ_wins" db:"champ_wins"`
	ChampAdvancement float64 `json:"champ_advancement" db:"champ_advancement"`
	ChampBonus       float64 `json:"champ_bonus" db:"champ_bonus"`
	ConsWins         int     `json:"cons_wins" db:"cons_wins"`
	ConsAdvancement  float64 `json:"cons_advancement" db:"cons_advancement"`
	ConsBonus        float64 `json:"cons_bonus" db:"cons_bonus"`
	PlaceAdvancement float64 `json:"place_advancement" db:"place_advancement"`
	PlaceBonus       float64 `json:"place_bonus" db:"place_bonus"`
	PlacementPoints  float64 `json:"placement_points" db:"placement_points"`
	Total            float64 `json:"total" db:"total"`
	Wrestlers        int     `json:"wrestlers" db:"wrestlers"`
	Falls            int     `json:"falls" db:"falls"`
	TechFalls        int     `json:"tech_falls" db:"tech_falls"`
	Majors           int     `json:"majors" db:"majors"`
}

// Tables bundles the four output tables.
type Tables struct {
	Results    []ResultRow    `json:"results"`
	Rounds     []RoundRow     `json:"rounds"`
	Placements []PlacementRow `json:"placements"`
	Teams      []TeamRow      `json:"teams"`
}

// NewResultRow flattens a scored entry.
func NewResultRow(e *model.ScoredEntry) ResultRow {
	w := e.Wrestler
	return ResultRow{
		WrestlerID:       w.ID,
		Owner:            w.Owner,
		Weight:           w.Weight,
		Wrestler:         w.Name,
		School:           w.School,
		Seed:             w.Seed,
		ChampWins:        e.ChampWins,
		ChampAdvancement: e.ChampAdvancement,
		ChampBonus:       e.ChampBonus,
		ConsWins:         e.ConsWins,
		ConsAdvancement:  e.ConsAdvancement,
		ConsBonus:        e.ConsBonus,
		PlaceAdvancement: e.PlaceAdvancement,
		PlaceBonus:       e.PlaceBonus,
		Advancement:      e.Advancement(),
		Bonus:            e.Bonus(),
		Placement:        e.Placement,
		PlacementPoints:  e.PlacementPoints,
		Total:            e.Total(),
		Wins:             e.Wins,
		Losses:           e.Losses,
	}
}

// NewRoundRow flattens one outcome of a scored entry.
func NewRoundRow(w model.Wrestler, o model.RoundOutcome) RoundRow {
	return RoundRow{
		WrestlerID:  w.ID,
		Owner:       w.Owner,
		Weight:      w.Weight,
		Wrestler:    w.Name,
		School:      w.School,
		Round:       o.Round,
		RoundOrder:  o.Order,
		Outcome:     o.Cell(),
		WinType:     o.WinType,
		Opponent:    o.Opponent,
		Advancement: o.Advancement,
		Bonus:       o.Bonus,
	}
}

// NewTeamRow flattens a team aggregate.
func NewTeamRow(rank int, t model.TeamAggregate) TeamRow {
	return TeamRow{
		Rank:             rank,
		Owner:            t.Owner,
		ChampWins:        t.ChampWins,
		ChampAdvancement: t.ChampAdvancement,
		ChampBonus:       t.ChampBonus,
		ConsWins:         t.ConsWins,
		ConsAdvancement:  t.ConsAdvancement,
		ConsBonus:        t.ConsBonus,
		PlaceAdvancement: t.PlaceAdvancement,
		PlaceBonus:       t.PlaceBonus,
		PlacementPoints:  t.PlacementPoints,
		Total:            t.Total,
		Wrestlers:        t.Wrestlers,
		Falls:            t.WinTypes[model.WinFall],
		TechFalls:        t.WinTypes[model.WinTechFall],
		Majors:           t.WinTypes[model.WinMajorDecision],
	}
}
