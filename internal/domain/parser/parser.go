// Package parser turns tournament results text into match and placement records.
//
// Parsing is two-pass. Scan classifies every line, cuts the text into
// weight/round sections and catalogues every wrestler mention. Extract then
// pulls records out of each section independently, so sections can be handed
// to an Executor and merged back in order.
package parser

import (
	"context"
	"sort"
	"strings"

	"github.com/okian/takedown/internal/domain/dedupe"
	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/pkg/logger"
)

// Executor runs n independent units of work. Implementations may run them concurrently.
type Executor interface {
	Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Sequential runs units one after another on the calling goroutine.
type Sequential struct{}

// Run implements Executor.
func (Sequential) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithVocabulary sets the text conventions.
func WithVocabulary(v Vocabulary) Option {
	return func(p *Parser) { p.vocab = v }
}

// WithExecutor sets how sections are extracted.
func WithExecutor(e Executor) Option {
	return func(p *Parser) {
		if e != nil {
			p.exec = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// Stats summarises one parse.
type Stats struct {
	Lines      int              `json:"lines"`
	Sections   int              `json:"sections"`
	Matches    int              `json:"matches"`
	Placements int              `json:"placements"`
	Conflicts  int              `json:"conflicts"`
	ByKind     map[LineKind]int `json:"by_kind"`
}

// Document is everything recovered from one results text.
type Document struct {
	Matches     []model.MatchRecord     `json:"matches"`
	Placements  []model.PlacementRecord `json:"placements"`
	Catalogue   *Catalogue              `json:"-"`
	Diagnostics []model.Diagnostic      `json:"diagnostics"`
	Stats       Stats                   `json:"stats"`
}

// Parser is safe for concurrent use; it holds only compiled configuration.
type Parser struct {
	vocab    Vocabulary
	exec     Executor
	log      logger.Logger
	compiled *compiled
}

// New creates a parser. Without WithVocabulary it knows no rounds.
func New(opts ...Option) *Parser {
	p := &Parser{
		vocab: DefaultVocabulary(nil),
		exec:  Sequential{},
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.compiled = compile(p.vocab)
	return p
}

// Scan runs the structural pass only.
func (p *Parser) Scan(text string) (*Scan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	return p.compiled.scan(text), nil
}

// Parse runs both passes. Only ErrEmptyInput, ErrNoContent and executor
// failures are returned as errors; everything else becomes a diagnostic.
func (p *Parser) Parse(ctx context.Context, text string) (*Document, error) {
	s, err := p.Scan(text)
	if err != nil {
		return nil, err
	}
	if len(s.Sections) == 0 {
		return nil, ErrNoContent
	}

	results := make([]sectionResult, len(s.Sections))
	err = p.exec.Run(ctx, len(s.Sections), func(_ context.Context, i int) error {
		results[i] = p.compiled.extract(s.Sections[i], s.Catalogue)
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc := p.merge(s, results)
	p.log.Debug(ctx, "parsed results text",
		logger.Int("lines", doc.Stats.Lines),
		logger.Int("sections", doc.Stats.Sections),
		logger.Int("matches", doc.Stats.Matches),
		logger.Int("placements", doc.Stats.Placements),
		logger.Int("diagnostics", len(doc.Diagnostics)),
	)
	return doc, nil
}

// merge joins section results in order and flags repeated pairings.
func (p *Parser) merge(s *Scan, results []sectionResult) *Document {
	doc := &Document{
		Catalogue:   s.Catalogue,
		Diagnostics: append([]model.Diagnostic(nil), s.Diagnostics...),
	}
	for _, r := range results {
		doc.Matches = append(doc.Matches, r.matches...)
		doc.Placements = append(doc.Placements, r.placements...)
		doc.Diagnostics = append(doc.Diagnostics, r.diagnostics...)
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(len(doc.Matches)))
	for i := range doc.Matches {
		m := &doc.Matches[i]
		if first, dup := seen.SeenAndRecord(m.PairKey(), m.Line); dup {
			m.Conflict = true
			doc.Stats.Conflicts++
			doc.Diagnostics = append(doc.Diagnostics, model.Warn(model.DiagDuplicateMatch, m.Line, m.Text, duplicateDetail(first)))
		}
	}
	sortDiagnostics(doc.Diagnostics)

	doc.Stats.Lines = len(s.Lines)
	doc.Stats.Sections = len(s.Sections)
	doc.Stats.Matches = len(doc.Matches)
	doc.Stats.Placements = len(doc.Placements)
	doc.Stats.ByKind = s.Counts()
	return doc
}

// sortDiagnostics orders by line, keeping insertion order within a line.
func sortDiagnostics(ds []model.Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Line < ds[j].Line })
}
