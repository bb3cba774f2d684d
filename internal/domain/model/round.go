package model

import (
	"sort"
	"strings"
)

// Bracket groups rounds for the champ/cons split.
type Bracket string

// Brackets.
const (
	BracketChamp Bracket = "champ"
	BracketCons  Bracket = "cons"
	BracketPlace Bracket = "place"
)

// Round describes one bracket stage and the raw labels that name it in result text.
// Tag is a short key without dots so it can be used in config maps.
type Round struct {
	Tag           string   `koanf:"tag" json:"tag" yaml:"tag"`
	Name          string   `koanf:"name" json:"name" yaml:"name"`
	Bracket       Bracket  `koanf:"bracket" json:"bracket" yaml:"bracket"`
	Order         int      `koanf:"order" json:"order" yaml:"order"`
	Labels        []string `koanf:"labels" json:"labels" yaml:"labels"`
	Advancement   float64  `koanf:"advancement" json:"advancement" yaml:"advancement"`
	PlacementRank int      `koanf:"placement_rank" json:"placement_rank,omitempty" yaml:"placement_rank,omitempty"`
	Expected      bool     `koanf:"expected" json:"expected" yaml:"expected"`
}

// Display returns Name, or Tag when no name is set.
func (r Round) Display() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Tag
}

// names returns tag, name and labels.
func (r Round) names() []string {
	return append([]string{r.Tag, r.Name}, r.Labels...)
}

// IsPlacementMatch reports whether the round decides a final rank.
func (r Round) IsPlacementMatch() bool { return r.PlacementRank > 0 }

// Rounds is an ordered round table.
type Rounds []Round

// Sorted returns a copy ordered by Order, then Tag.
func (rs Rounds) Sorted() Rounds {
	out := make(Rounds, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// ByTag indexes rounds by canonical tag.
func (rs Rounds) ByTag() map[string]Round {
	out := make(map[string]Round, len(rs))
	for _, r := range rs {
		out[r.Tag] = r
	}
	return out
}

// Lookup finds the round whose tag or any label matches label, case-insensitively.
func (rs Rounds) Lookup(label string) (Round, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return Round{}, false
	}
	for _, r := range rs {
		for _, n := range r.names() {
			if n != "" && strings.ToLower(n) == l {
				return r, true
			}
		}
	}
	return Round{}, false
}

// InBracket returns the rounds of bracket b, keeping order.
func (rs Rounds) InBracket(b Bracket) Rounds {
	var out Rounds
	for _, r := range rs {
		if r.Bracket == b {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the round with the longest name or label contained in text.
// Longest wins so "Cons. Semi" is not mistaken for "Semi". Tags only match as whole words.
func (rs Rounds) Find(text string) (Round, bool) {
	t := strings.ToLower(text)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(t, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ':' || r == ','
	}) {
		words[w] = true
	}

	best, bestLen := Round{}, 0
	for _, r := range rs {
		if tag := strings.ToLower(r.Tag); tag != "" && words[tag] && len(tag) > bestLen {
			best, bestLen = r, len(tag)
		}
		for _, n := range append([]string{r.Name}, r.Labels...) {
			l := strings.ToLower(n)
			if l != "" && len(l) > bestLen && strings.Contains(t, l) {
				best, bestLen = r, len(l)
			}
		}
	}
	return best, bestLen > 0
}
