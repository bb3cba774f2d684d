package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/okian/takedown/internal/domain/model"
)

// WinToken lists the spellings that name one canonical win type.
type WinToken struct {
	Type   string   `koanf:"type" json:"type" yaml:"type"`
	Tokens []string `koanf:"tokens" json:"tokens" yaml:"tokens"`
}

// Vocabulary is the text convention of one tournament feed.
type Vocabulary struct {
	Rounds           model.Rounds
	WinTokens        []WinToken
	WeightClasses    []string
	PlacementHeaders []string
}

// DefaultWinTokens covers the spellings seen in NCAA result feeds.
func DefaultWinTokens() []WinToken {
	return []WinToken{
		{Type: model.WinFall, Tokens: []string{"fall", "pin", "pinned"}},
		{Type: model.WinTechFall, Tokens: []string{"tech fall", "technical fall", "tf"}},
		{Type: model.WinMajorDecision, Tokens: []string{"major decision", "maj dec", "md"}},
		{Type: model.WinDecision, Tokens: []string{"decision", "dec"}},
		{Type: model.WinSuddenVictory, Tokens: []string{"sudden victory", "sv"}},
		{Type: model.WinTieBreak, Tokens: []string{"tie breaker", "tie-breaker", "tiebreaker", "tie break", "tb"}},
		{Type: model.WinDefault, Tokens: []string{"injury default", "inj. def", "default", "def"}},
		{Type: model.WinForfeit, Tokens: []string{"forfeit", "ff", "fft"}},
		{Type: model.WinMedicalForfeit, Tokens: []string{"medical forfeit", "med fft", "mff"}},
		{Type: model.WinDisqualification, Tokens: []string{"disqualification", "dq", "misconduct"}},
	}
}

// DefaultWeightClasses are the NCAA Division I weights.
func DefaultWeightClasses() []string {
	return []string{"125", "133", "141", "149", "157", "165", "174", "184", "197", "285", "DH"}
}

// DefaultPlacementHeaders name the final standings block.
func DefaultPlacementHeaders() []string {
	return []string{"Placements", "Place Winners", "Final Placements", "Final Standings", "Placers"}
}

// DefaultVocabulary builds a vocabulary over rounds.
func DefaultVocabulary(rounds model.Rounds) Vocabulary {
	return Vocabulary{
		Rounds:           rounds,
		WinTokens:        DefaultWinTokens(),
		WeightClasses:    DefaultWeightClasses(),
		PlacementHeaders: DefaultPlacementHeaders(),
	}
}

type tokenMatcher struct {
	winType string
	token   string
	re      *regexp.Regexp
}

// compiled is the regexp form of a Vocabulary.
type compiled struct {
	rounds    model.Rounds
	tokens    []tokenMatcher
	weights   map[string]string
	placement []string
}

func compile(v Vocabulary) *compiled {
	c := &compiled{
		rounds:  v.Rounds,
		weights: make(map[string]string, len(v.WeightClasses)),
	}
	for _, w := range v.WeightClasses {
		c.weights[strings.ToLower(strings.TrimSpace(w))] = strings.TrimSpace(w)
	}
	for _, h := range v.PlacementHeaders {
		c.placement = append(c.placement, strings.ToLower(strings.TrimSpace(h)))
	}
	for _, wt := range v.WinTokens {
		for _, tok := range wt.Tokens {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			c.tokens = append(c.tokens, tokenMatcher{
				winType: wt.Type,
				token:   tok,
				re:      regexp.MustCompile(`(?i)(?:^|[^a-z])(` + regexp.QuoteMeta(tok) + `)(?:$|[^a-z])`),
			})
		}
	}
	// Longest first so "tech fall" is tried before "fall".
	sort.SliceStable(c.tokens, func(i, j int) bool {
		return len(c.tokens[i].token) > len(c.tokens[j].token)
	})
	return c
}

// winType finds the earliest win-type token in text; ties go to the longest token.
// token is the matched spelling and rest is the text after it.
func (c *compiled) winType(text string) (winType, token, rest string, ok bool) {
	bestPos, bestLen := -1, 0
	for _, tm := range c.tokens {
		loc := tm.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		start, end := loc[2], loc[3]
		if bestPos == -1 || start < bestPos || start == bestPos && end-start > bestLen {
			bestPos, bestLen = start, end-start
			winType = tm.winType
			token = text[start:end]
			rest = text[end:]
		}
	}
	return winType, token, rest, bestPos >= 0
}

// weight returns the canonical weight class if line is a weight header.
func (c *compiled) weight(line string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(line))
	for _, suffix := range []string{" pounds", " lbs.", " lbs", " lb", "lbs"} {
		l = strings.TrimSpace(strings.TrimSuffix(l, suffix))
	}
	w, ok := c.weights[l]
	return w, ok
}

func (c *compiled) isPlacementHeader(line string) bool {
	l := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":")))
	for _, h := range c.placement {
		if l == h {
			return true
		}
	}
	return false
}
