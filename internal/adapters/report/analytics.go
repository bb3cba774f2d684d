package report

import (
	"sort"
	"strings"

	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/types"
)

// WinMix counts one team's wins by type.
type WinMix struct {
	Owner  string         `json:"owner"`
	ByType map[string]int `json:"by_type"`
	Total  int            `json:"total"`
	Bonus  int            `json:"bonus"`
}

// BonusPct is the share of wins that earned bonus points.
func (m WinMix) BonusPct() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Bonus) / float64(m.Total) * 100
}

// bonusTypes are the decisive wins counted toward the bonus rate.
var bonusTypes = map[string]bool{ //nolint:gochecknoglobals // lookup table
	model.WinFall: true, model.WinTechFall: true, model.WinMajorDecision: true,
}

// WinMixes counts wins per team from the round table, in team-table order.
func WinMixes(t types.Tables) []WinMix {
	idx := make(map[string]int, len(t.Teams))
	out := make([]WinMix, 0, len(t.Teams))
	for _, team := range t.Teams {
		idx[team.Owner] = len(out)
		out = append(out, WinMix{Owner: team.Owner, ByType: map[string]int{}})
	}
	for _, r := range t.Rounds {
		if !strings.HasPrefix(r.Outcome, model.ResultWin) {
			continue
		}
		i, ok := idx[r.Owner]
		if !ok {
			continue
		}
		m := &out[i]
		m.ByType[model.WinAbbrev(r.WinType)]++
		m.Total++
		if bonusTypes[r.WinType] {
			m.Bonus++
		}
	}
	return out
}

// Podium counts one team's placers by rank.
type Podium struct {
	Owner        string      `json:"owner"`
	ByRank       map[int]int `json:"by_rank"`
	AllAmericans int         `json:"all_americans"`
	Points       float64     `json:"points"`
}

// Podiums counts drafted placers per team, in team-table order.
func Podiums(t types.Tables) []Podium {
	idx := make(map[string]int, len(t.Teams))
	out := make([]Podium, 0, len(t.Teams))
	for _, team := range t.Teams {
		idx[team.Owner] = len(out)
		out = append(out, Podium{Owner: team.Owner, ByRank: map[int]int{}})
	}
	for _, p := range t.Placements {
		i, ok := idx[p.Owner]
		if !ok || !p.Drafted || p.Rank < 1 || p.Rank > 8 {
			continue
		}
		out[i].ByRank[p.Rank]++
		out[i].AllAmericans++
		out[i].Points += p.Points
	}
	return out
}

// Wrestler is one wrestler's rows, for lookups by name.
type Wrestler struct {
	Result types.ResultRow  `json:"result"`
	Rounds []types.RoundRow `json:"rounds"`
}

// FindWrestlers returns drafted wrestlers whose name contains query, case-insensitively.
func FindWrestlers(t types.Tables, query string) []Wrestler {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	byID := make(map[string][]types.RoundRow)
	for _, r := range t.Rounds {
		byID[r.WrestlerID] = append(byID[r.WrestlerID], r)
	}
	var out []Wrestler
	for _, r := range t.Results {
		if strings.Contains(strings.ToLower(r.Wrestler), q) {
			out = append(out, Wrestler{Result: r, Rounds: byID[r.WrestlerID]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Result.Total > out[j].Result.Total })
	return out
}
