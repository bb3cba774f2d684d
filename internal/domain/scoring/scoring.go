// Package scoring turns resolved outcomes into point deltas using a configured rules table.
package scoring

import (
	"fmt"

	"github.com/okian/takedown/internal/domain/model"
)

// Option applies a configuration option to the TableScorer.
type Option func(*TableScorer)

// WithRules replaces the default rules table. Empty sections keep their defaults.
func WithRules(r Rules) Option {
	return func(s *TableScorer) {
		if len(r.Rounds) > 0 {
			s.rounds = r.Rounds.ByTag()
		}
		if len(r.WinTypes) > 0 {
			s.winTypes = make(map[string]WinRule, len(r.WinTypes))
			for k, v := range r.WinTypes {
				s.winTypes[k] = v
			}
		}
		if len(r.Placement) > 0 {
			s.placement = make(map[int]float64, len(r.Placement))
			for k, v := range r.Placement {
				s.placement[k] = v
			}
		}
	}
}

// Scorer computes point deltas. Implementations hold no state between calls.
type Scorer interface {
	ScoreMatch(m model.ResolvedMatch) (model.MatchDelta, error)
	ScorePlacement(p model.ResolvedPlacement) (model.PlacementDelta, error)
}

// TableScorer implements Scorer over a Rules table.
type TableScorer struct {
	rounds    map[string]model.Round
	winTypes  map[string]WinRule
	placement map[int]float64
}

// NewTableScorer creates a scorer with the default NCAA rules unless overridden.
func NewTableScorer(opts ...Option) *TableScorer {
	d := DefaultRules()
	s := &TableScorer{
		rounds:    d.Rounds.ByTag(),
		winTypes:  d.WinTypes,
		placement: d.Placement,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreMatch attributes advancement and bonus to the winner. The loser receives nothing.
func (s *TableScorer) ScoreMatch(m model.ResolvedMatch) (model.MatchDelta, error) {
	rule, ok := s.winTypes[m.WinType]
	if !ok {
		return model.MatchDelta{}, fmt.Errorf("%w: win type %q", ErrUnscorableOutcome, m.WinTypeRaw)
	}
	round, ok := s.rounds[m.Round]
	if !ok {
		return model.MatchDelta{}, fmt.Errorf("%w: round %q", ErrUnscorableOutcome, m.Round)
	}

	adv := round.Advancement
	if v, ok := rule.Advancement[round.Tag]; ok {
		adv = v
	}
	return model.MatchDelta{
		WinnerID:    m.WinnerID,
		LoserID:     m.LoserID,
		Advancement: adv,
		Bonus:       rule.Bonus,
	}, nil
}

// ScorePlacement looks the rank up in the placement table. Unlisted ranks score zero.
func (s *TableScorer) ScorePlacement(p model.ResolvedPlacement) (model.PlacementDelta, error) {
	if p.Rank < 0 {
		return model.PlacementDelta{}, fmt.Errorf("%w: rank %d", ErrUnscorableOutcome, p.Rank)
	}
	return model.PlacementDelta{
		WrestlerID: p.WrestlerID,
		Rank:       p.Rank,
		Placement:  s.placement[p.Rank],
	}, nil
}

// Round returns the configured round for tag.
func (s *TableScorer) Round(tag string) (model.Round, bool) {
	r, ok := s.rounds[tag]
	return r, ok
}
