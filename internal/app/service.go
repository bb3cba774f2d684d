package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	workerpool "github.com/okian/takedown/internal/adapters/mq/worker"
	repository "github.com/okian/takedown/internal/adapters/repository"
	"github.com/okian/takedown/internal/domain/matcher"
	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/scoring"
	"github.com/okian/takedown/internal/domain/types"
	"github.com/okian/takedown/pkg/logger"
	"github.com/okian/takedown/pkg/metrics"
)

// Source supplies the two run inputs. It is read once per run.
type Source interface {
	Roster(ctx context.Context) (model.Roster, error)
	Text(ctx context.Context) (string, error)
}

// Snapshotter persists the latest run for presentation layers.
type Snapshotter interface {
	Save(ctx context.Context, tables types.Tables, diagnostics []model.Diagnostic) error
}

// Service keeps the latest run of the pipeline and re-runs it on demand.
type Service struct {
	mu    sync.RWMutex
	runMu sync.Mutex

	// Core components
	processor *Processor
	standings repository.Store
	source    Source
	snapshot  Snapshotter

	// Configuration
	workerCount     int
	topCacheSize    int
	refreshInterval time.Duration
	rules           scoring.Rules
	matching        matcher.Config
	hasRules        bool
	hasMatching     bool

	// State
	latest   *Output
	lastRun  time.Time
	lastErr  error
	runs     int
	started  bool
	stopCh   chan struct{}
	stopDone chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many goroutines extract parser sections.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithTopCacheSize sets how many leading teams the standings store caches.
func WithTopCacheSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topCacheSize = n
		}
	}
}

// WithSource sets where runs read the roster and results text.
func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// WithSnapshotter sets where each successful run is persisted.
func WithSnapshotter(sn Snapshotter) Option {
	return func(s *Service) { s.snapshot = sn }
}

// WithRefreshInterval re-runs the pipeline periodically after Start. Zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithScoringRules sets the rules passed to the processor.
func WithScoringRules(r scoring.Rules) Option {
	return func(s *Service) { s.rules, s.hasRules = r, true }
}

// WithMatchingConfig sets the matcher inputs passed to the processor.
func WithMatchingConfig(c matcher.Config) Option {
	return func(s *Service) { s.matching, s.hasMatching = c, true }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. It does nothing until Start or Refresh.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.standings = repository.NewTreapStore(repository.WithTopCacheSize(s.topCacheSize))
	if s.logger == nil {
		s.logger = logger.Get()
	}

	popts := []ProcessorOption{
		WithExecutor(workerpool.NewPool(s.workerCount, workerpool.WithPoolLogger(s.logger))),
		WithStandings(s.standings),
		WithProcessorLogger(s.logger),
	}
	if s.hasRules {
		popts = append(popts, WithRules(s.rules))
	}
	if s.hasMatching {
		popts = append(popts, WithMatching(s.matching))
	}
	s.processor = NewProcessor(popts...)
	return s
}

// Start runs the pipeline once and, if configured, keeps refreshing it.
// A failed first run is logged, not returned, so the API can report it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	stop, done := make(chan struct{}), make(chan struct{})
	s.stopCh, s.stopDone = stop, done
	s.mu.Unlock()

	s.logger.Info(ctx, "starting results service",
		logger.Int("workers", s.workerCount),
		logger.Duration("refresh_interval", s.refreshInterval),
	)

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Error(ctx, "initial run failed", logger.Error(err))
	}

	if s.refreshInterval <= 0 {
		close(done)
		return nil
	}
	go s.refreshLoop(ctx, stop, done)
	return nil
}

func (s *Service) refreshLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Warn(ctx, "scheduled run failed", logger.Error(err))
			}
		}
	}
}

// Stop ends the refresh loop and waits for it.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	done := s.stopDone
	s.mu.Unlock()

	<-done
	s.logger.Info(context.Background(), "results service stopped")
}

// Refresh reads the sources and runs the pipeline from scratch.
// Runs are serialised; the previous output stays visible until the new one is ready.
func (s *Service) Refresh(ctx context.Context) (*Output, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	out, err := s.refresh(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.runs++
	if err == nil {
		s.latest = out
	}
	s.mu.Unlock()
	return out, err
}

func (s *Service) refresh(ctx context.Context) (*Output, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	roster, err := s.source.Roster(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("source", "roster")
		return nil, fmt.Errorf("load roster: %w", err)
	}
	text, err := s.source.Text(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("source", "results")
		return nil, fmt.Errorf("load results: %w", err)
	}

	out, err := s.processor.Run(ctx, Input{Roster: roster, Text: text})
	if err != nil {
		return nil, err
	}

	if s.snapshot != nil {
		start := time.Now()
		if err := s.snapshot.Save(ctx, out.Tables, out.Diagnostics); err != nil {
			metrics.RecordSnapshotWrite("error", float64(time.Since(start).Milliseconds()))
			s.logger.Error(ctx, "snapshot write failed", logger.Error(err))
		} else {
			metrics.RecordSnapshotWrite("ok", float64(time.Since(start).Milliseconds()))
		}
	}
	return out, nil
}

// Latest returns the most recent successful output.
func (s *Service) Latest(_ context.Context) (*Output, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		if s.lastErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotReady, s.lastErr)
		}
		return nil, ErrNotReady
	}
	return s.latest, nil
}

// Rules returns the scoring rules the processor runs with.
func (s *Service) Rules() scoring.Rules { return s.processor.Rules() }

// TopN returns the top N teams.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	entries, err := s.standings.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, Key: e.Owner, Score: e.Total}
	}
	return out, nil
}

// Rank returns the rank and total for one team owner.
func (s *Service) Rank(ctx context.Context, owner string) (types.Entry, error) {
	e, err := s.standings.Rank(ctx, owner)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{Rank: e.Rank, Key: e.Owner, Score: e.Total}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"refreshInterval": s.refreshInterval.String(),
		"runs":            s.runs,
		"teams":           s.standings.Count(context.Background()),
	}
	if !s.lastRun.IsZero() {
		stats["lastRun"] = s.lastRun.UTC().Format(time.RFC3339)
	}
	if s.lastErr != nil {
		stats["lastError"] = s.lastErr.Error()
	}
	if s.latest != nil {
		stats["run"] = s.latest.Stats
		stats["diagnostics"] = len(s.latest.Diagnostics)
	}
	return stats
}
