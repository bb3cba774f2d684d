package parser

import (
	"regexp"
	"strings"

	"github.com/okian/takedown/internal/domain/model"
)

// LineKind is the structural class a line is given in the first pass.
type LineKind string

// Line kinds.
const (
	KindBlank           LineKind = "blank"
	KindWeight          LineKind = "weight"
	KindRound           LineKind = "round"
	KindPlacementHeader LineKind = "placement_header"
	KindBye             LineKind = "bye"
	KindMatch           LineKind = "match"
	KindPlacement       LineKind = "placement"
	KindNoise           LineKind = "noise"
)

var (
	mentionRe   = regexp.MustCompile(`([^()]+?)\s*\(([^()]*)\)`)
	winVerbRe   = regexp.MustCompile(`(?i)(?:\bwon\s+(?:by|in)\b|\bdef(?:eated|\.|\b)|\bdec\.|\bover\b|\bbeat\b)`)
	byeRe       = regexp.MustCompile(`(?i)\bbye\b`)
	placementRe = regexp.MustCompile(`(?i)^\s*(\d+)(?:st|nd|rd|th)(?:\s+place)?\s*[:\-–]\s*(.+?)\s*$`)
	unplacedRe  = regexp.MustCompile(`(?i)^\s*(?:unplaced|dnp|did not place)\s*[:\-–]\s*(.+?)\s*$`)
)

// Line is one source line after classification.
type Line struct {
	No   int      `json:"no"`
	Text string   `json:"text"`
	Kind LineKind `json:"kind"`
}

// Section is a run of lines sharing a weight class and round context.
type Section struct {
	Index     int
	Weight    string
	Round     model.Round
	HasRound  bool
	Placement bool
	Lines     []Line
}

// Scan is the output of the structural pass.
type Scan struct {
	Lines       []Line
	Sections    []Section
	Catalogue   *Catalogue
	Diagnostics []model.Diagnostic
}

// Counts returns the number of lines per kind.
func (s *Scan) Counts() map[LineKind]int {
	out := make(map[LineKind]int)
	for _, l := range s.Lines {
		out[l.Kind]++
	}
	return out
}

func (c *compiled) classify(text string) LineKind {
	t := strings.TrimSpace(text)
	switch {
	case t == "":
		return KindBlank
	case isWeight(c, t):
		return KindWeight
	}

	mentions := len(mentionRe.FindAllStringIndex(t, -1))
	switch {
	case mentions >= 2 && winVerbRe.MatchString(t):
		return KindMatch
	case placementRe.MatchString(t) || unplacedRe.MatchString(t):
		return KindPlacement
	case byeRe.MatchString(t):
		return KindBye
	case mentions == 0 && c.isPlacementHeader(t):
		return KindPlacementHeader
	case mentions == 0:
		if _, ok := c.rounds.Find(t); ok {
			return KindRound
		}
	}
	return KindNoise
}

func isWeight(c *compiled, t string) bool {
	_, ok := c.weight(t)
	return ok
}

// scan is the first pass: classify lines, cut sections and catalogue mentions.
func (c *compiled) scan(text string) *Scan {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	s := &Scan{Catalogue: newCatalogue()}

	cur := Section{}
	flush := func() {
		if len(cur.Lines) > 0 {
			cur.Index = len(s.Sections)
			s.Sections = append(s.Sections, cur)
		}
		cur = Section{Weight: cur.Weight, Round: cur.Round, HasRound: cur.HasRound, Placement: cur.Placement}
	}

	for i, r := range raw {
		line := Line{No: i + 1, Text: strings.TrimSpace(r)}
		line.Kind = c.classify(line.Text)
		s.Lines = append(s.Lines, line)

		switch line.Kind {
		case KindBlank, KindBye:
		case KindWeight:
			flush()
			cur.Weight, _ = c.weight(line.Text)
		case KindRound:
			flush()
			cur.Round, cur.HasRound = c.rounds.Find(line.Text)
			cur.Placement = false
		case KindPlacementHeader:
			flush()
			cur.Placement = true
		case KindMatch, KindPlacement:
			cur.Lines = append(cur.Lines, line)
			c.catalogue(s.Catalogue, line)
		case KindNoise:
			s.Diagnostics = append(s.Diagnostics, model.Warn(model.DiagUnparsedLine, line.No, line.Text,
				"line matches no known shape"))
		}
	}
	flush()
	return s
}

func (c *compiled) catalogue(cat *Catalogue, line Line) {
	if line.Kind == KindPlacement {
		if m, ok := placementMention(line.Text); ok {
			cat.add(m.Name, m.School)
		}
		return
	}
	for _, m := range matchMentions(line.Text) {
		cat.add(m.Name, m.School)
	}
}
