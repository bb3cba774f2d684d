package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/okian/takedown/internal/domain/model"
)

var (
	// A (S) [record] [(#seed)] won by|in <type> over B (S) [tail]
	wonRe = regexp.MustCompile(`(?i)^(?:([^()]+?)\s*(?::|\s[-–])\s+)?([^()]+?)\s*\(([^()]*)\)(?:[^()]|\([^()]*\))*?\s+won\s+(?:by|in)\s+(.+?)\s+over\s+([^()]+?)\s*\(([^()]*)\)(.*)$`)
	// A (S) [record] [(#seed)] def.|defeated|dec.|over|beat B (S) [by|via] <type> [score]
	defRe = regexp.MustCompile(`(?i)^(?:([^()]+?)\s*(?::|\s[-–])\s+)?([^()]+?)\s*\(([^()]*)\)(?:[^()]|\([^()]*\))*?\s+(def\.?|defeated|dec\.?|over|beat|beats)\s+([^()]+?)\s*\(([^()]*)\)\s*,?\s*(?:(?:by|via)\s+)?(.*)$`)

	overtimeRe  = regexp.MustCompile(`(?i)\b(SV|TB)-\d`)
	parenRe     = regexp.MustCompile(`\(([^()]*)\)`)
	rankRoundRe = regexp.MustCompile(`(?i)^(\d+)(?:st|nd|rd|th)\s+place`)
	seedRe      = regexp.MustCompile(`^#?\d+\s+`)
)

// sectionResult is what one section yields. Sections never share state.
type sectionResult struct {
	matches     []model.MatchRecord
	placements  []model.PlacementRecord
	diagnostics []model.Diagnostic
}

// matchMentions returns winner and loser for a match line, or nil.
func matchMentions(text string) []model.Mention {
	if m := wonRe.FindStringSubmatch(text); m != nil {
		return []model.Mention{
			{Name: cleanName(m[2]), School: strings.TrimSpace(m[3])},
			{Name: cleanName(m[5]), School: strings.TrimSpace(m[6])},
		}
	}
	if m := defRe.FindStringSubmatch(text); m != nil {
		return []model.Mention{
			{Name: cleanName(m[2]), School: strings.TrimSpace(m[3])},
			{Name: cleanName(m[5]), School: strings.TrimSpace(m[6])},
		}
	}
	return nil
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = seedRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func placementMention(text string) (model.Mention, bool) {
	rest := text
	if m := placementRe.FindStringSubmatch(text); m != nil {
		rest = m[2]
	} else if m := unplacedRe.FindStringSubmatch(text); m != nil {
		rest = m[1]
	}
	if m := mentionRe.FindStringSubmatch(rest); m != nil {
		name := cleanName(m[1])
		return model.Mention{Name: name, School: strings.TrimSpace(m[2])}, name != ""
	}
	name := cleanName(rest)
	return model.Mention{Name: name}, name != ""
}

// extract is the second pass over one section.
func (c *compiled) extract(sec Section, hints *Catalogue) sectionResult {
	var out sectionResult
	byTag := c.rounds.ByTag()
	for _, line := range sec.Lines {
		switch line.Kind {
		case KindPlacement:
			if p, ok := c.extractPlacement(sec, line); ok {
				out.placements = append(out.placements, p)
			} else {
				out.diagnostics = append(out.diagnostics, model.Warn(model.DiagUnparsedLine, line.No, line.Text,
					"placement line has no wrestler"))
			}
		case KindMatch:
			m, diag, ok := c.extractMatch(sec, line, hints)
			if !ok {
				out.diagnostics = append(out.diagnostics, diag)
				continue
			}
			out.matches = append(out.matches, m)
			if r, found := byTag[m.Round]; found && r.IsPlacementMatch() {
				out.placements = append(out.placements,
					model.PlacementRecord{Line: line.No, Text: line.Text, Weight: sec.Weight, Rank: r.PlacementRank, Mention: m.Winner, Source: model.PlacementFromMatch},
					model.PlacementRecord{Line: line.No, Text: line.Text, Weight: sec.Weight, Rank: r.PlacementRank + 1, Mention: m.Loser, Source: model.PlacementFromMatch},
				)
			}
		}
	}
	return out
}

func (c *compiled) extractPlacement(sec Section, line Line) (model.PlacementRecord, bool) {
	mention, ok := placementMention(line.Text)
	if !ok {
		return model.PlacementRecord{}, false
	}
	mention.Weight = sec.Weight
	rank := 0
	if m := placementRe.FindStringSubmatch(line.Text); m != nil {
		rank, _ = strconv.Atoi(m[1])
	}
	return model.PlacementRecord{
		Line:    line.No,
		Text:    line.Text,
		Weight:  sec.Weight,
		Rank:    rank,
		Mention: mention,
		Source:  model.PlacementFromBlock,
	}, true
}

func (c *compiled) extractMatch(sec Section, line Line, hints *Catalogue) (model.MatchRecord, model.Diagnostic, bool) {
	var (
		prefix, method, tail string
		winner, loser        model.Mention
		verb                 string
	)
	if m := wonRe.FindStringSubmatch(line.Text); m != nil {
		prefix, method, tail = m[1], m[4], m[7]
		winner = model.Mention{Name: cleanName(m[2]), School: strings.TrimSpace(m[3])}
		loser = model.Mention{Name: cleanName(m[5]), School: strings.TrimSpace(m[6])}
	} else if m := defRe.FindStringSubmatch(line.Text); m != nil {
		prefix, verb, method = m[1], strings.ToLower(m[4]), m[7]
		winner = model.Mention{Name: cleanName(m[2]), School: strings.TrimSpace(m[3])}
		loser = model.Mention{Name: cleanName(m[5]), School: strings.TrimSpace(m[6])}
	} else {
		return model.MatchRecord{}, model.Warn(model.DiagUnparsedLine, line.No, line.Text, "match line has no known shape"), false
	}
	if winner.Name == "" || loser.Name == "" {
		return model.MatchRecord{}, model.Warn(model.DiagUnparsedLine, line.No, line.Text, "match line is missing a wrestler"), false
	}

	round, ok := c.resolveRound(prefix, sec)
	if !ok {
		return model.MatchRecord{}, model.Warn(model.DiagUnparsedLine, line.No, line.Text, "no round"), false
	}

	winner.Weight, loser.Weight = sec.Weight, sec.Weight
	fillSchool(&winner, hints)
	fillSchool(&loser, hints)

	rec := model.MatchRecord{
		Line:       line.No,
		Text:       line.Text,
		Weight:     sec.Weight,
		RoundLabel: roundLabel(prefix, sec, round),
		Round:      round.Tag,
		Winner:     winner,
		Loser:      loser,
	}
	c.outcome(&rec, verb, method, tail)
	return rec, model.Diagnostic{}, true
}

func fillSchool(m *model.Mention, hints *Catalogue) {
	if m.School != "" || hints == nil {
		return
	}
	if s, ok := hints.SchoolHint(m.Name); ok {
		m.School = s
	}
}

func roundLabel(prefix string, sec Section, r model.Round) string {
	if p := strings.TrimSpace(prefix); p != "" {
		return p
	}
	if sec.HasRound && sec.Round.Tag == r.Tag {
		return sec.Round.Display()
	}
	return r.Display()
}

// resolveRound prefers a label in the line prefix over the section header.
// Within a section the section's own bracket is searched first, so a bare
// "Prelim" under a consolation header maps to the consolation round.
func (c *compiled) resolveRound(prefix string, sec Section) (model.Round, bool) {
	if p := strings.TrimSpace(prefix); p != "" {
		if sec.HasRound {
			if r, ok := c.rounds.InBracket(sec.Round.Bracket).Lookup(p); ok {
				return r, true
			}
		}
		if r, ok := c.rounds.Lookup(p); ok {
			return r, true
		}
		if r, ok := c.rounds.Find(p); ok {
			return r, true
		}
		if m := rankRoundRe.FindStringSubmatch(p); m != nil {
			rank, _ := strconv.Atoi(m[1])
			for _, r := range c.rounds {
				if r.PlacementRank == rank {
					return r, true
				}
			}
		}
	}
	if sec.HasRound {
		return sec.Round, true
	}
	return model.Round{}, false
}

// outcome fills win type and score from the method text and any trailing text.
func (c *compiled) outcome(rec *model.MatchRecord, verb, method, tail string) {
	var score string
	wt, tok, _, ok := c.winType(method)
	switch {
	case ok:
		rec.WinType, rec.WinTypeRaw, rec.Recognised = wt, strings.TrimSpace(tok), true
		score = c.trimWinToken(method)
	case strings.HasPrefix(verb, "dec"):
		rec.WinType, rec.WinTypeRaw, rec.Recognised = model.WinDecision, verb, true
		score = strings.TrimSpace(method)
	default:
		raw := strings.TrimSpace(method)
		if f := strings.Fields(raw); len(f) > 0 {
			raw = strings.Trim(f[0], ".,;()")
		}
		rec.WinType, rec.WinTypeRaw = raw, raw
	}

	if m := overtimeRe.FindStringSubmatch(method + " " + tail); m != nil &&
		(rec.WinType == model.WinDecision || !rec.Recognised) {
		rec.Recognised = true
		rec.WinType = model.WinTieBreak
		if strings.EqualFold(m[1], "SV") {
			rec.WinType = model.WinSuddenVictory
		}
	}

	if t := strings.TrimSpace(tail); t != "" {
		if ps := parenRe.FindAllStringSubmatch(t, -1); len(ps) > 0 {
			t = ps[len(ps)-1][1]
		}
		if t = c.trimWinToken(t); t != "" {
			score = strings.TrimSpace(score + " " + t)
		}
	}
	score = strings.Trim(score, " ()")
	if score != "" {
		rec.Score = &score
	}
}

// trimWinToken drops a leading win-type token so only the score remains.
// "SV-1" style tokens stay since the period number belongs to the score.
func (c *compiled) trimWinToken(t string) string {
	t = strings.TrimSpace(t)
	_, tok, rest, ok := c.winType(t)
	if !ok || !strings.HasPrefix(strings.ToLower(t), strings.ToLower(tok)) || strings.HasPrefix(rest, "-") {
		return t
	}
	return strings.TrimSpace(rest)
}

func duplicateDetail(first int) string {
	return fmt.Sprintf("same pairing already recorded at line %d", first)
}
