// Package simulate generates a synthetic tournament: a draft roster and the
// results text a feed would publish for it. Output is deterministic per seed.
package simulate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/okian/takedown/internal/domain/matcher"
	"github.com/okian/takedown/internal/domain/model"
)

const fieldSize = 32

//nolint:gochecknoglobals // fixture data
var schools = []string{
	"Iowa", "Penn State", "Ohio State", "Michigan", "Minnesota", "Nebraska", "Oklahoma State",
	"Arizona State", "Cornell", "Virginia Tech", "NC State", "Missouri", "Northern Iowa",
	"Wisconsin", "Illinois", "Rutgers", "Lehigh", "Princeton", "Stanford", "Wyoming",
	"Army", "Navy", "Pittsburgh", "South Dakota State", "North Carolina", "Purdue",
	"Iowa State", "Oklahoma", "Northwestern", "Indiana", "Maryland", "Cal Poly",
}

// Options controls the generated tournament.
type Options struct {
	Seed           int64
	Owners         int
	DraftPerWeight int
	Weights        []string
}

// Option adjusts Options.
type Option func(*Options)

// WithSeed fixes the random source.
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithOwners sets how many fantasy teams draft.
func WithOwners(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Owners = n
		}
	}
}

// WithDraftPerWeight sets how many wrestlers each weight contributes to the draft.
func WithDraftPerWeight(n int) Option {
	return func(o *Options) {
		if n > 0 && n <= fieldSize {
			o.DraftPerWeight = n
		}
	}
}

// WithWeights replaces the weight classes.
func WithWeights(w ...string) Option { return func(o *Options) { o.Weights = w } }

// Tournament is one generated event.
type Tournament struct {
	Roster model.Roster
	Text   string
	// Placers maps weight to the names placing 1st through 8th.
	Placers map[string][]string
}

type entrant struct {
	name   string
	school string
	seed   int
}

func (e *entrant) String() string { return e.name + " (" + e.school + ")" }

type generator struct {
	f         *gofakeit.Faker
	names     map[string]bool
	overrides map[string]matcher.Override
	variants  map[string]string
	out       strings.Builder
}

// Generate builds a tournament with a full 32-man bracket per weight.
func Generate(opts ...Option) Tournament {
	o := Options{
		Seed:           1,
		Owners:         8,
		DraftPerWeight: 8,
		Weights:        []string{"125", "133", "141", "149", "157", "165", "174", "184", "197", "285"},
	}
	for _, opt := range opts {
		opt(&o)
	}

	g := &generator{
		f:         gofakeit.New(uint64(o.Seed)),
		names:     make(map[string]bool),
		overrides: matcher.DefaultOverrides(),
		variants:  matcher.DefaultNameVariants(),
	}
	owners := g.owners(o.Owners)

	t := Tournament{Placers: make(map[string][]string, len(o.Weights))}
	pick := 0
	for _, weight := range o.Weights {
		field := g.field()
		for i := 0; i < o.DraftPerWeight; i++ {
			e := field[i]
			t.Roster = append(t.Roster, model.NewWrestler(e.name, e.school, weight, e.seed, owners[snake(pick, len(owners))]))
			pick++
		}
		places := g.bracket(weight, field)
		names := make([]string, len(places))
		for i, e := range places {
			names[i] = e.name
		}
		t.Placers[weight] = names
	}
	t.Text = g.out.String()
	return t
}

// snake returns the owner index for draft pick n.
func snake(n, owners int) int {
	round, pos := n/owners, n%owners
	if round%2 == 1 {
		return owners - 1 - pos
	}
	return pos
}

func (g *generator) owners(n int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		name := g.f.Color() + " " + g.f.Animal()
		name = strings.ToUpper(name[:1]) + name[1:]
		if seen[name] {
			name += " " + strconv.Itoa(len(out)+1)
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// field draws 32 wrestlers. Names are unique across the tournament, and no two
// entrants in one weight share a school, last name and first initial, so every
// mention resolves to exactly one wrestler.
func (g *generator) field() []*entrant {
	out := make([]*entrant, 0, fieldSize)
	short := make(map[string]bool, fieldSize)
	for len(out) < fieldSize {
		first, last := g.f.FirstName(), g.f.LastName()
		name := first + " " + last
		school := g.f.RandomString(schools)
		folded := g.fold(name)
		key := folded[:1] + "|" + g.fold(last) + "|" + strings.ToLower(school)
		if g.names[folded] || short[key] || strings.ContainsAny(name, "()") {
			continue
		}
		if _, ok := g.overrides[strings.ToLower(name)]; ok {
			continue
		}
		g.names[folded] = true
		short[key] = true
		out = append(out, &entrant{name: name, school: school, seed: len(out) + 1})
	}
	return out
}

// fold lowercases and applies the matcher's spelling variants.
func (g *generator) fold(s string) string {
	s = strings.ToLower(s)
	for from, to := range g.variants {
		s = strings.ReplaceAll(s, from, to)
	}
	return s
}

// bracket plays a double-elimination bracket and returns placers 1st to 8th.
func (g *generator) bracket(weight string, field []*entrant) []*entrant {
	g.out.WriteString(weight + "\n")

	r16, l1 := g.pairs("Champ. Round 1", field)
	qf, l2 := g.pairs("Champ. Round 2", r16)
	c1, _ := g.pairs("Cons. Round 1", l1)
	sf, l3 := g.pairs("Quarterfinal", qf)
	c2, _ := g.versus("Cons. Round 2", c1, l2)
	c3, _ := g.pairs("Cons. Round 3", c2)
	finalists, l4 := g.pairs("Semifinal", sf)
	c4, _ := g.versus("Cons. Round 4", c3, l3)
	c5, seventh := g.pairs("Cons. Round 5", c4)
	c6, fifth := g.versus("Cons. Semi", c5, l4)

	first, second := g.bout("1st Place Match", finalists[0], finalists[1])
	third, fourth := g.bout("3rd Place Match", c6[0], c6[1])
	p5, p6 := g.bout("5th Place Match", fifth[0], fifth[1])
	p7, p8 := g.bout("7th Place Match", seventh[0], seventh[1])

	places := []*entrant{first, second, third, fourth, p5, p6, p7, p8}
	g.out.WriteString("Placements\n")
	for i, e := range places {
		fmt.Fprintf(&g.out, "%s: %s\n", ordinal(i+1), e)
	}
	g.out.WriteString("\n")
	return places
}

// pairs plays best against worst within one pool.
func (g *generator) pairs(label string, pool []*entrant) (winners, losers []*entrant) {
	n := len(pool)
	for i := 0; i < n/2; i++ {
		w, l := g.bout(label, pool[i], pool[n-1-i])
		winners, losers = append(winners, w), append(losers, l)
	}
	return winners, losers
}

// versus plays a[i] against b[len(b)-1-i], mixing two pools.
func (g *generator) versus(label string, a, b []*entrant) (winners, losers []*entrant) {
	for i := range a {
		w, l := g.bout(label, a[i], b[len(b)-1-i])
		winners, losers = append(winners, w), append(losers, l)
	}
	return winners, losers
}

func (g *generator) bout(label string, a, b *entrant) (winner, loser *entrant) {
	p := 0.5 + 0.02*float64(b.seed-a.seed)
	p = min(max(p, 0.15), 0.85)
	winner, loser = a, b
	if g.f.Float64() >= p {
		winner, loser = b, a
	}
	method, tail := g.result()
	fmt.Fprintf(&g.out, "%s - %s won by %s over %s (%s)\n", label, winner, method, loser, tail)
	return winner, loser
}

func (g *generator) result() (method, tail string) {
	switch roll := g.f.Number(1, 100); {
	case roll <= 15:
		return "fall", fmt.Sprintf("Fall %d:%02d", g.f.Number(0, 6), g.f.Number(0, 59))
	case roll <= 25:
		hi := g.f.Number(15, 22)
		return "tech fall", fmt.Sprintf("TF %d-%d", hi, g.f.Number(0, hi-15))
	case roll <= 45:
		lo := g.f.Number(0, 6)
		return "major decision", fmt.Sprintf("MD %d-%d", lo+g.f.Number(8, 14), lo)
	case roll <= 50:
		return "sudden victory", fmt.Sprintf("SV-1 %d-%d", g.f.Number(3, 6)+2, g.f.Number(3, 6))
	default:
		lo := g.f.Number(0, 6)
		return "decision", fmt.Sprintf("Dec %d-%d", lo+g.f.Number(1, 7), lo)
	}
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return strconv.Itoa(n) + "th"
}

// WriteRosterCSV writes the roster in the draft sheet layout.
func WriteRosterCSV(w io.Writer, roster model.Roster) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Weight", "Wrestler", "School", "Seed", "Team Name"}); err != nil {
		return err
	}
	for _, wr := range roster {
		seed := ""
		if wr.Seed > 0 {
			seed = "#" + strconv.Itoa(wr.Seed)
		}
		if err := cw.Write([]string{wr.Weight, wr.Name, wr.School, seed, wr.Owner}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
