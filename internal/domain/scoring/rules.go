package scoring

import "github.com/okian/takedown/internal/domain/model"

// WinRule is the points policy for one win type.
// Advancement overrides the round default for the listed round tags.
type WinRule struct {
	Bonus       float64            `koanf:"bonus" json:"bonus" yaml:"bonus"`
	Advancement map[string]float64 `koanf:"advancement" json:"advancement,omitempty" yaml:"advancement,omitempty"`
}

// Rules is the full scoring table. It is configuration, never embedded in the scorer.
type Rules struct {
	Rounds    model.Rounds       `koanf:"rounds" json:"rounds" yaml:"rounds"`
	WinTypes  map[string]WinRule `koanf:"win_types" json:"win_types" yaml:"win_types"`
	Placement map[int]float64    `koanf:"placement" json:"placement" yaml:"placement"`
}

// DefaultRounds is the NCAA 33-man bracket: champ rounds score 1, consolation 0.5,
// finals and placement matches 0.
func DefaultRounds() model.Rounds {
	return model.Rounds{
		{Tag: "PR", Name: "Pig Tails", Bracket: model.BracketChamp, Order: 0, Labels: []string{"Prelim", "Pig Tails", "Preliminary"}, Advancement: 1},
		{Tag: "R32", Name: "Champ. R1", Bracket: model.BracketChamp, Order: 1, Labels: []string{"Champ. Round 1", "Champ Round 1", "Championship Round 1"}, Advancement: 1, Expected: true},
		{Tag: "R16", Name: "Champ. R2", Bracket: model.BracketChamp, Order: 2, Labels: []string{"Champ. Round 2", "Champ Round 2", "Championship Round 2"}, Advancement: 1, Expected: true},
		{Tag: "QF", Name: "Quarters", Bracket: model.BracketChamp, Order: 3, Labels: []string{"Quarterfinal", "Quarterfinals", "Quarters"}, Advancement: 1, Expected: true},
		{Tag: "SF", Name: "Semis", Bracket: model.BracketChamp, Order: 4, Labels: []string{"Semifinal", "Semifinals"}, Advancement: 1, Expected: true},
		{Tag: "CPT", Name: "Cons. Pig Tails", Bracket: model.BracketCons, Order: 5, Labels: []string{"Consolation Pig Tails", "Cons. Pig Tails", "Prelim"}, Advancement: 0.5},
		{Tag: "C1", Name: "Cons. R1", Bracket: model.BracketCons, Order: 6, Labels: []string{"Cons. Round 1", "Consolation Round 1"}, Advancement: 0.5, Expected: true},
		{Tag: "C2", Name: "Cons. R2", Bracket: model.BracketCons, Order: 7, Labels: []string{"Cons. Round 2", "Consolation Round 2"}, Advancement: 0.5, Expected: true},
		{Tag: "C3", Name: "Cons. R3", Bracket: model.BracketCons, Order: 8, Labels: []string{"Cons. Round 3", "Consolation Round 3"}, Advancement: 0.5, Expected: true},
		{Tag: "C4", Name: "Cons. R4", Bracket: model.BracketCons, Order: 9, Labels: []string{"Cons. Round 4", "Consolation Round 4"}, Advancement: 0.5, Expected: true},
		{Tag: "C5", Name: "Cons. R5", Bracket: model.BracketCons, Order: 10, Labels: []string{"Cons. Round 5", "Consolation Round 5"}, Advancement: 0.5, Expected: true},
		{Tag: "CSF", Name: "Cons. Semis", Bracket: model.BracketCons, Order: 11, Labels: []string{"Cons. Semi", "Cons. Semis", "Consolation Semifinal", "Consolation Semifinals"}, Advancement: 0.5, Expected: true},
		{Tag: "F", Name: "Finals", Bracket: model.BracketPlace, Order: 12, Labels: []string{"1st Place Match", "Championships", "Championship Finals"}, PlacementRank: 1, Expected: true},
		{Tag: "P3", Name: "3rd Place", Bracket: model.BracketPlace, Order: 13, Labels: []string{"3rd Place Match"}, PlacementRank: 3, Expected: true},
		{Tag: "P5", Name: "5th Place", Bracket: model.BracketPlace, Order: 14, Labels: []string{"5th Place Match"}, PlacementRank: 5, Expected: true},
		{Tag: "P7", Name: "7th Place", Bracket: model.BracketPlace, Order: 15, Labels: []string{"7th Place Match"}, PlacementRank: 7, Expected: true},
	}
}

// DefaultWinTypes carries the NCAA team-scoring bonus values.
func DefaultWinTypes() map[string]WinRule {
	return map[string]WinRule{
		model.WinFall:             {Bonus: 2},
		model.WinTechFall:         {Bonus: 1.5},
		model.WinMajorDecision:    {Bonus: 1},
		model.WinDecision:         {Bonus: 0},
		model.WinSuddenVictory:    {Bonus: 0},
		model.WinTieBreak:         {Bonus: 0},
		model.WinDefault:          {Bonus: 2},
		model.WinForfeit:          {Bonus: 2},
		model.WinMedicalForfeit:   {Bonus: 2},
		model.WinDisqualification: {Bonus: 2},
	}
}

// DefaultPlacement is the rank to points table for 1st through 8th.
func DefaultPlacement() map[int]float64 {
	return map[int]float64{1: 16, 2: 12, 3: 10, 4: 9, 5: 7, 6: 6, 7: 4, 8: 3}
}

// DefaultRules bundles the defaults.
func DefaultRules() Rules {
	return Rules{
		Rounds:    DefaultRounds(),
		WinTypes:  DefaultWinTypes(),
		Placement: DefaultPlacement(),
	}
}
