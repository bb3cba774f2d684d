// Package service runs the results pipeline and serves its latest output.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	repository "github.com/okian/takedown/internal/adapters/repository"
	"github.com/okian/takedown/internal/domain/dedupe"
	"github.com/okian/takedown/internal/domain/matcher"
	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/parser"
	"github.com/okian/takedown/internal/domain/scoring"
	"github.com/okian/takedown/internal/domain/types"
	"github.com/okian/takedown/pkg/logger"
	"github.com/okian/takedown/pkg/metrics"
)

// Input is everything one run reads.
type Input struct {
	Roster model.Roster
	Text   string
}

// Stats summarises one run.
type Stats struct {
	Parse           parser.Stats             `json:"parse"`
	Resolutions     map[matcher.Strategy]int `json:"resolutions"`
	MatchesScored   int                      `json:"matches_scored"`
	MatchesExcluded int                      `json:"matches_excluded"`
	Placements      int                      `json:"placements"`
	Drafted         int                      `json:"drafted"`
	Teams           int                      `json:"teams"`
	TotalPoints     float64                  `json:"total_points"`
}

// Output is the four tables plus every recovered problem.
type Output struct {
	Tables      types.Tables       `json:"tables"`
	Diagnostics []model.Diagnostic `json:"diagnostics"`
	Stats       Stats              `json:"stats"`
}

// ProcessorOption applies a configuration option to the Processor.
type ProcessorOption func(*Processor)

// WithRules sets the scoring rules and the rounds the parser recognises.
func WithRules(r scoring.Rules) ProcessorOption {
	return func(p *Processor) { p.rules = r }
}

// WithMatching sets the matcher inputs.
func WithMatching(c matcher.Config) ProcessorOption {
	return func(p *Processor) { p.matching = c }
}

// WithExecutor sets how parser sections are extracted.
func WithExecutor(e parser.Executor) ProcessorOption {
	return func(p *Processor) {
		if e != nil {
			p.exec = e
		}
	}
}

// WithStandings sets the store team totals are ranked through.
func WithStandings(s repository.Store) ProcessorOption {
	return func(p *Processor) {
		if s != nil {
			p.standings = s
		}
	}
}

// WithProcessorLogger sets the logger.
func WithProcessorLogger(l logger.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// Processor turns a roster and results text into tables. Every run starts from scratch.
type Processor struct {
	rules     scoring.Rules
	matching  matcher.Config
	exec      parser.Executor
	standings repository.Store
	log       logger.Logger

	parser *parser.Parser
	scorer *scoring.TableScorer
	rounds map[string]model.Round
}

// NewProcessor builds a processor with the NCAA defaults unless overridden.
func NewProcessor(opts ...ProcessorOption) *Processor {
	p := &Processor{
		rules:     scoring.DefaultRules(),
		matching:  matcher.DefaultConfig(),
		exec:      parser.Sequential{},
		standings: repository.NewTreapStore(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.rules.Rounds) == 0 {
		p.rules.Rounds = scoring.DefaultRounds()
	}
	p.scorer = scoring.NewTableScorer(scoring.WithRules(p.rules))
	p.rounds = p.rules.Rounds.ByTag()
	p.parser = parser.New(
		parser.WithVocabulary(parser.DefaultVocabulary(p.rules.Rounds)),
		parser.WithExecutor(p.exec),
		parser.WithLogger(p.log),
	)
	return p
}

// Rules returns the scoring rules in use.
func (p *Processor) Rules() scoring.Rules { return p.rules }

// Standings returns the store team totals are ranked through.
func (p *Processor) Standings() repository.Store { return p.standings }

// run holds the per-run state. It never outlives Run.
type run struct {
	p        *Processor
	resolver matcher.Resolver
	entries  map[string]*model.ScoredEntry
	placed   map[string]model.ResolvedPlacement
	rows     []types.PlacementRow
	played   map[string]int
	diags    []model.Diagnostic
	stats    Stats
}

// Run executes parse, resolve, score and aggregate. Only structural problems
// are returned as errors.
func (p *Processor) Run(ctx context.Context, in Input) (*Output, error) {
	start := time.Now()
	out, err := p.run(ctx, in)
	if err != nil {
		metrics.RecordRun("error", time.Since(start))
		metrics.RecordErrorByComponent("processor", "structural")
		return nil, err
	}
	metrics.RecordRun("ok", time.Since(start))
	for k, n := range out.Stats.Parse.ByKind {
		metrics.RecordLines(string(k), n)
	}
	for _, d := range out.Diagnostics {
		metrics.RecordDiagnostic(string(d.Kind))
	}
	metrics.UpdateRunShape(out.Stats.Teams, out.Stats.Drafted, out.Stats.TotalPoints)

	p.log.Info(ctx, "run complete",
		logger.Int("matches_scored", out.Stats.MatchesScored),
		logger.Int("matches_excluded", out.Stats.MatchesExcluded),
		logger.Int("placements", out.Stats.Placements),
		logger.Int("diagnostics", len(out.Diagnostics)),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (p *Processor) run(ctx context.Context, in Input) (*Output, error) {
	if len(in.Roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if err := in.Roster.Validate(p.matching.Collisions); err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	doc, err := p.parser.Parse(ctx, in.Text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	r := &run{
		p:        p,
		resolver: matcher.New(matcher.WithRoster(in.Roster), matcher.WithConfig(p.matching)),
		entries:  make(map[string]*model.ScoredEntry),
		placed:   make(map[string]model.ResolvedPlacement),
		played:   make(map[string]int),
		diags:    append([]model.Diagnostic(nil), doc.Diagnostics...),
		stats:    Stats{Parse: doc.Stats, Resolutions: make(map[matcher.Strategy]int)},
	}
	for _, w := range in.Roster {
		if w.Drafted() {
			r.entries[w.ID] = model.NewScoredEntry(w)
		}
	}
	r.stats.Drafted = len(r.entries)

	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(2 * len(doc.Matches)))
	for _, m := range doc.Matches {
		if m.Conflict {
			r.stats.MatchesExcluded++
			metrics.RecordMatch("conflict")
			continue
		}
		r.match(m, seen)
	}
	r.placements(doc.Placements)
	r.missingRounds()

	tables, err := r.tables(ctx, in.Roster.Owners())
	if err != nil {
		return nil, err
	}
	sort.SliceStable(r.diags, func(i, j int) bool { return r.diags[i].Line < r.diags[j].Line })
	return &Output{Tables: tables, Diagnostics: r.diags, Stats: r.stats}, nil
}

func (r *run) warn(kind model.DiagnosticKind, line int, text, detail string) {
	r.diags = append(r.diags, model.Warn(kind, line, text, detail))
}

// resolve binds a mention, turning matcher failures into diagnostics.
func (r *run) resolve(mention model.Mention, weight string, line int, text string) (matcher.Resolution, bool) {
	if mention.Weight == "" {
		mention.Weight = weight
	}
	res, err := r.resolver.Resolve(mention)
	switch {
	case err == nil:
		r.stats.Resolutions[res.Strategy]++
		metrics.RecordResolution(string(res.Strategy))
		return res, true
	case errors.Is(err, matcher.ErrAmbiguousMention):
		r.warn(model.DiagAmbiguousMention, line, text, err.Error())
	default:
		r.warn(model.DiagUnknownMention, line, text, err.Error())
	}
	metrics.RecordResolution("failed")
	return matcher.Resolution{}, false
}

func (r *run) match(m model.MatchRecord, seen dedupe.Deduper) {
	exclude := func(outcome string) {
		r.stats.MatchesExcluded++
		metrics.RecordMatch(outcome)
	}

	winner, ok := r.resolve(m.Winner, m.Weight, m.Line, m.Text)
	if !ok {
		exclude("unresolved")
		return
	}
	loser, ok := r.resolve(m.Loser, m.Weight, m.Line, m.Text)
	if !ok {
		exclude("unresolved")
		return
	}

	rm := model.ResolvedMatch{
		MatchRecord:   m,
		WinnerID:      winner.WrestlerID,
		LoserID:       loser.WrestlerID,
		WinnerDrafted: winner.Drafted,
		LoserDrafted:  loser.Drafted,
	}
	delta, err := r.p.scorer.ScoreMatch(rm)
	if err != nil {
		r.warn(model.DiagUnscorableOutcome, m.Line, m.Text, err.Error())
		exclude("unscorable")
		return
	}

	winKey, loseKey := rm.WinnerID+"|"+m.Round, rm.LoserID+"|"+m.Round
	for _, k := range []string{winKey, loseKey} {
		if first, dup := seen.First(k); dup {
			r.warn(model.DiagRoundOvercount, m.Line, m.Text,
				fmt.Sprintf("wrestler already has a %s match on line %d", m.Round, first))
			exclude("overcount")
			return
		}
	}
	seen.SeenAndRecord(winKey, m.Line)
	seen.SeenAndRecord(loseKey, m.Line)

	round := r.p.rounds[m.Round]
	r.played[round.Tag]++
	r.stats.MatchesScored++
	metrics.RecordMatch("scored")

	if e, ok := r.entries[rm.WinnerID]; ok {
		adv, bonus := delta.For(rm.WinnerID)
		e.ApplyWin(round.Bracket, model.RoundOutcome{
			Round:       round.Display(),
			Order:       round.Order,
			Result:      model.ResultWin,
			WinType:     m.WinType,
			Opponent:    loser.Wrestler.Label(),
			Advancement: adv,
			Bonus:       bonus,
			Line:        m.Line,
		})
	}
	if e, ok := r.entries[rm.LoserID]; ok {
		e.ApplyLoss(model.RoundOutcome{
			Round:    round.Display(),
			Order:    round.Order,
			Result:   model.ResultLoss,
			WinType:  m.WinType,
			Opponent: winner.Wrestler.Label(),
			Line:     m.Line,
		})
	}
}

// placements applies each wrestler's rank once, block records first.
func (r *run) placements(recs []model.PlacementRecord) {
	ordered := append([]model.PlacementRecord(nil), recs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		bi, bj := ordered[i].Source == model.PlacementFromBlock, ordered[j].Source == model.PlacementFromBlock
		return bi && !bj
	})

	for _, rec := range ordered {
		if rec.Rank < 1 {
			continue
		}
		res, ok := r.resolvePlacer(rec)
		if !ok {
			continue
		}
		if prev, dup := r.placed[res.WrestlerID]; dup {
			if prev.Rank != rec.Rank {
				r.warn(model.DiagPlacementConflict, rec.Line, rec.Text,
					fmt.Sprintf("%s already placed %d (%s, line %d); ignoring %d",
						res.Wrestler.Label(), prev.Rank, prev.Source, prev.Line, rec.Rank))
			}
			continue
		}

		rp := model.ResolvedPlacement{PlacementRecord: rec, WrestlerID: res.WrestlerID, Drafted: res.Drafted}
		r.placed[res.WrestlerID] = rp
		r.stats.Placements++

		row := types.PlacementRow{
			WrestlerID: res.WrestlerID,
			Weight:     placementWeight(rec, res),
			Rank:       rec.Rank,
			Wrestler:   res.Wrestler.Name,
			School:     res.Wrestler.School,
			Owner:      res.Wrestler.Owner,
			Drafted:    res.Drafted,
		}
		if !res.Drafted {
			r.diags = append(r.diags, model.Info(model.DiagUndraftedPlacement, rec.Line, rec.Text,
				fmt.Sprintf("%s placed %d but is not drafted", res.Wrestler.Label(), rec.Rank)))
			r.rows = append(r.rows, row)
			continue
		}

		delta, err := r.p.scorer.ScorePlacement(rp)
		if err != nil {
			r.warn(model.DiagUnscorableOutcome, rec.Line, rec.Text, err.Error())
			r.rows = append(r.rows, row)
			continue
		}
		if !rec.Scorable() {
			delta.Placement = 0
		}
		if e, ok := r.entries[res.WrestlerID]; ok {
			e.Placement = delta.Rank
			e.PlacementPoints = delta.Placement
		}
		row.Points = delta.Placement
		r.rows = append(r.rows, row)
	}
}

func (r *run) resolvePlacer(rec model.PlacementRecord) (matcher.Resolution, bool) {
	mention := rec.Mention
	if mention.Weight == "" {
		mention.Weight = rec.Weight
	}
	res, err := r.resolver.Resolve(mention)
	// Block weights carry over from the last weight header. Retry without it
	// before settling for an undrafted placer.
	if mention.Weight != "" && (err != nil || res.Strategy == matcher.StrategyUndrafted) {
		mention.Weight = ""
		if alt, altErr := r.resolver.Resolve(mention); altErr == nil && alt.Strategy != matcher.StrategyUndrafted {
			res, err = alt, nil
		}
	}
	if err != nil {
		r.warn(model.DiagOrphanPlacement, rec.Line, rec.Text,
			fmt.Sprintf("placed wrestler cannot be resolved: %v", err))
		return matcher.Resolution{}, false
	}
	r.stats.Resolutions[res.Strategy]++
	metrics.RecordResolution(string(res.Strategy))
	return res, true
}

func (r *run) missingRounds() {
	for _, round := range r.p.rules.Rounds.Sorted() {
		if round.Expected && r.played[round.Tag] == 0 {
			r.warn(model.DiagMissingRound, 0, "",
				fmt.Sprintf("no scored match for round %s (%s)", round.Tag, round.Display()))
		}
	}
}

func (r *run) tables(ctx context.Context, owners []string) (types.Tables, error) {
	entries := make([]*model.ScoredEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Wrestler, entries[j].Wrestler
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if wa, wb := weightKey(a.Weight), weightKey(b.Weight); wa != wb {
			return wa < wb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	var t types.Tables
	for _, e := range entries {
		t.Results = append(t.Results, types.NewResultRow(e))
		outcomes := append([]model.RoundOutcome(nil), e.Outcomes...)
		sort.SliceStable(outcomes, func(i, j int) bool {
			if outcomes[i].Order != outcomes[j].Order {
				return outcomes[i].Order < outcomes[j].Order
			}
			return outcomes[i].Line < outcomes[j].Line
		})
		for _, o := range outcomes {
			t.Rounds = append(t.Rounds, types.NewRoundRow(e.Wrestler, o))
		}
		r.stats.TotalPoints += e.Total()
	}

	t.Placements = r.rows
	sort.SliceStable(t.Placements, func(i, j int) bool {
		a, b := t.Placements[i], t.Placements[j]
		if wa, wb := weightKey(a.Weight), weightKey(b.Weight); wa != wb {
			return wa < wb
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Wrestler < b.Wrestler
	})

	teams := model.Aggregate(owners, entries)
	byOwner := make(map[string]model.TeamAggregate, len(teams))
	totals := make(map[string]float64, len(teams))
	for _, a := range teams {
		byOwner[a.Owner] = a
		totals[a.Owner] = a.Total
	}
	r.stats.Teams = len(teams)
	if err := r.p.standings.Replace(ctx, totals); err != nil {
		return types.Tables{}, fmt.Errorf("standings: %w", err)
	}
	if len(teams) == 0 {
		return t, nil
	}
	ranked, err := r.p.standings.TopN(ctx, len(teams))
	if err != nil {
		return types.Tables{}, fmt.Errorf("standings: %w", err)
	}
	for _, s := range ranked {
		t.Teams = append(t.Teams, types.NewTeamRow(s.Rank, byOwner[s.Owner]))
	}
	return t, nil
}

// weightKey sorts numeric weight classes numerically, named ones after.
// placementWeight reports a roster wrestler at their roster weight.
func placementWeight(rec model.PlacementRecord, res matcher.Resolution) string {
	if res.Strategy != matcher.StrategyUndrafted {
		return firstNonEmpty(res.Wrestler.Weight, rec.Weight)
	}
	return firstNonEmpty(rec.Weight, res.Wrestler.Weight)
}

func weightKey(w string) string {
	if n, err := strconv.Atoi(w); err == nil {
		return fmt.Sprintf("%06d", n)
	}
	return "~" + w
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
