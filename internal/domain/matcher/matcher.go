// Package matcher resolves text mentions to roster wrestlers.
//
// Resolution tries a fixed strategy chain: exact, collision, fuzzy, then
// undrafted. The matcher is built once per run from a read-only roster and is
// safe to share between goroutines.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/takedown/internal/domain/model"
)

// Strategy names the step that resolved a mention.
type Strategy string

// Strategies in the order they are tried.
const (
	StrategyExact     Strategy = "exact"
	StrategyCollision Strategy = "collision"
	StrategyFuzzy     Strategy = "fuzzy"
	StrategyUndrafted Strategy = "undrafted"
)

// Resolution is the identity bound to a mention.
type Resolution struct {
	WrestlerID string         `json:"wrestler_id"`
	Strategy   Strategy       `json:"strategy"`
	Drafted    bool           `json:"drafted"`
	Wrestler   model.Wrestler `json:"wrestler"`
}

// Resolver is the matching contract the processor depends on.
type Resolver interface {
	Resolve(m model.Mention) (Resolution, error)
}

// Option applies a configuration option to the Matcher.
type Option func(*settings)

type settings struct {
	roster model.Roster
	cfg    Config
}

// WithRoster sets the wrestlers to match against.
func WithRoster(r model.Roster) Option {
	return func(s *settings) { s.roster = r }
}

// WithConfig replaces all matching inputs.
func WithConfig(c Config) Option {
	return func(s *settings) { s.cfg = c }
}

// WithCollisions replaces the collision list.
func WithCollisions(names []string) Option {
	return func(s *settings) { s.cfg.Collisions = names }
}

// WithOverrides replaces the direct overrides.
func WithOverrides(o map[string]Override) Option {
	return func(s *settings) { s.cfg.Overrides = o }
}

// WithSchoolAliases replaces the school alias table.
func WithSchoolAliases(a map[string]string) Option {
	return func(s *settings) { s.cfg.SchoolAliases = a }
}

// WithNameVariants replaces the name variant table.
func WithNameVariants(v map[string]string) Option {
	return func(s *settings) { s.cfg.NameVariants = v }
}

type candidate struct {
	w      model.Wrestler
	exact  string // lower(name)|lower(school)
	name   string
	school string
	last   string
}

// Matcher implements Resolver over an indexed roster.
type Matcher struct {
	norm       normaliser
	rows       []candidate
	byExact    map[string][]int
	byName     map[string][]int
	collisions map[string]bool
	overrides  map[string]Override
}

// New indexes the roster. Without options it uses DefaultConfig and an empty roster.
func New(opts ...Option) *Matcher {
	s := settings{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&s)
	}

	m := &Matcher{
		norm:       newNormaliser(s.cfg.NameVariants, s.cfg.SchoolAliases),
		byExact:    make(map[string][]int, len(s.roster)),
		byName:     make(map[string][]int, len(s.roster)),
		collisions: make(map[string]bool, len(s.cfg.Collisions)),
		overrides:  make(map[string]Override, len(s.cfg.Overrides)),
	}
	for _, c := range s.cfg.Collisions {
		m.collisions[m.norm.name(c)] = true
	}
	for k, v := range s.cfg.Overrides {
		m.overrides[m.norm.name(k)] = v
	}
	for i, w := range s.roster {
		c := candidate{
			w:      w,
			exact:  exactKey(w.Name, w.School),
			name:   m.norm.name(w.Name),
			school: m.norm.school(w.School),
		}
		c.last = lastName(c.name)
		m.rows = append(m.rows, c)
		m.byExact[c.exact] = append(m.byExact[c.exact], i)
		m.byName[c.name] = append(m.byName[c.name], i)
	}
	return m
}

func exactKey(name, school string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(school))
}

// Resolve binds a mention to a wrestler. Ties fail with ErrAmbiguousMention;
// mentions outside the roster resolve as undrafted.
func (m *Matcher) Resolve(mention model.Mention) (Resolution, error) {
	if strings.TrimSpace(mention.Name) == "" {
		return Resolution{}, fmt.Errorf("%w: empty name", ErrUnknownMention)
	}
	mention = m.override(mention)

	name := m.norm.name(mention.Name)
	school := m.norm.school(mention.School)

	exact := m.byExact[exactKey(mention.Name, mention.School)]
	if len(exact) == 1 {
		return m.resolved(exact[0], StrategyExact), nil
	}

	if len(exact) > 1 || m.isCollision(name) || len(m.byName[name]) > 1 {
		switch ids := m.filter(m.byName[name], school, mention.Weight); len(ids) {
		case 0:
		case 1:
			return m.resolved(ids[0], StrategyCollision), nil
		default:
			return Resolution{}, m.ambiguous(mention, ids)
		}
	}

	if res, ok, err := m.fuzzy(mention, name, school); ok {
		return res, err
	}

	return m.undrafted(mention, name, school), nil
}

func (m *Matcher) override(mention model.Mention) model.Mention {
	o, ok := m.overrides[m.norm.name(mention.Name)]
	if !ok {
		return mention
	}
	mention.Name = o.Name
	if o.School != "" {
		mention.School = o.School
	}
	return mention
}

func (m *Matcher) isCollision(name string) bool {
	return m.collisions[name] || m.collisions[lastName(name)]
}

// filter keeps candidates matching school and weight when the mention has them.
func (m *Matcher) filter(ids []int, school, weight string) []int {
	var out []int
	for _, i := range ids {
		c := m.rows[i]
		if school != "" && c.school != school {
			continue
		}
		if weight != "" && c.w.Weight != weight {
			continue
		}
		out = append(out, i)
	}
	return out
}

// fuzzy reports ok when it reached a decision, resolved or ambiguous.
func (m *Matcher) fuzzy(mention model.Mention, name, school string) (Resolution, bool, error) {
	var steps [][]int
	if school != "" {
		var full, last []int
		target := lastName(name)
		for i, c := range m.rows {
			if c.school != school {
				continue
			}
			if c.name == name {
				full = append(full, i)
			}
			if c.last == target && sameInitial(c.name, name) &&
				(mention.Weight == "" || c.w.Weight == mention.Weight) {
				last = append(last, i)
			}
		}
		steps = append(steps, full, last)
	} else {
		steps = append(steps, m.byName[name])
	}

	for _, ids := range steps {
		ids = m.narrowByWeight(ids, mention.Weight)
		switch len(ids) {
		case 0:
			continue
		case 1:
			return m.resolved(ids[0], StrategyFuzzy), true, nil
		default:
			return Resolution{}, true, m.ambiguous(mention, ids)
		}
	}
	return Resolution{}, false, nil
}

// narrowByWeight drops other weights only when that leaves someone.
func (m *Matcher) narrowByWeight(ids []int, weight string) []int {
	if weight == "" || len(ids) < 2 {
		return ids
	}
	var out []int
	for _, i := range ids {
		if m.rows[i].w.Weight == weight {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		return ids
	}
	return out
}

func (m *Matcher) resolved(i int, s Strategy) Resolution {
	w := m.rows[i].w
	return Resolution{WrestlerID: w.ID, Strategy: s, Drafted: w.Drafted(), Wrestler: w}
}

func (m *Matcher) undrafted(mention model.Mention, name, school string) Resolution {
	w := model.Wrestler{
		ID:     model.NewWrestlerID(mention.Weight, "undrafted:"+name, school),
		Name:   strings.TrimSpace(mention.Name),
		School: strings.TrimSpace(mention.School),
		Weight: mention.Weight,
	}
	return Resolution{WrestlerID: w.ID, Strategy: StrategyUndrafted, Wrestler: w}
}

func (m *Matcher) ambiguous(mention model.Mention, ids []int) error {
	labels := make([]string, 0, len(ids))
	for _, i := range ids {
		labels = append(labels, m.rows[i].w.Label()+" @"+m.rows[i].w.Weight)
	}
	sort.Strings(labels)
	return fmt.Errorf("%w: %s matches %s", ErrAmbiguousMention, mention, strings.Join(labels, ", "))
}

// sameInitial compares first initials when both names have a first name.
func sameInitial(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 2 || len(fb) < 2 {
		return true
	}
	return fa[0][0] == fb[0][0]
}
