// Package sqlstore persists the latest run snapshot in SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // driver

	"github.com/okian/takedown/internal/domain/model"
	"github.com/okian/takedown/internal/domain/types"
	"github.com/okian/takedown/pkg/logger"
)

// batchSize bounds rows per multi-row insert to stay under SQLite's variable limit.
const batchSize = 200

// Run is one saved snapshot's metadata.
type Run struct {
	ID          string    `db:"id" json:"id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Teams       int       `db:"teams" json:"teams"`
	Wrestlers   int       `db:"wrestlers" json:"wrestlers"`
	Diagnostics int       `db:"diagnostics" json:"diagnostics"`
}

// Snapshot is the stored state of the latest run.
type Snapshot struct {
	Run         Run
	Tables      types.Tables
	Diagnostics []model.Diagnostic
}

type diagRow struct {
	Kind     string `db:"kind"`
	Severity string `db:"severity"`
	Line     int    `db:"line"`
	Text     string `db:"text"`
	Detail   string `db:"detail"`
}

type table struct {
	name string
	cols []string
}

func (t table) insert() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		t.name, strings.Join(t.cols, ", "), strings.Join(t.cols, ", :"))
}

func (t table) selectAll() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(t.cols, ", "), t.name)
}

//nolint:gochecknoglobals // schema description
var (
	resultsTable = table{"results", []string{
		"wrestler_id", "owner", "weight", "wrestler", "school", "seed",
		"champ_wins", "champ_advancement", "champ_bonus",
		"cons_wins", "cons_advancement", "cons_bonus", "place_advancement", "place_bonus",
		"advancement", "bonus", "placement", "placement_points", "total", "wins", "losses",
	}}
	roundsTable = table{"rounds", []string{
		"wrestler_id", "owner", "weight", "wrestler", "school",
		"round", "round_order", "outcome", "win_type", "opponent", "advancement", "bonus",
	}}
	placementsTable = table{"placements", []string{
		"wrestler_id", "weight", "rank", "wrestler", "school", "owner", "drafted", "points",
	}}
	teamsTable = table{"teams", []string{
		"rank", "owner", "champ_wins", "champ_advancement", "champ_bonus",
		"cons_wins", "cons_advancement", "cons_bonus", "place_advancement", "place_bonus", "placement_points",
		"total", "wrestlers", "falls", "tech_falls", "majors",
	}}
	diagnosticsTable = table{"diagnostics", []string{"kind", "severity", "line", "text", "detail"}}
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides the run timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store keeps the latest snapshot and the metadata of the run that produced it.
type Store struct {
	db  *sqlx.DB
	log logger.Logger
	now func() time.Time
}

// Open connects to dsn and migrates the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", dsn, err)
	}
	// A single connection keeps in-memory databases alive and serialises writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := New(db, opts...)
	version, err := migrateUp(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.log.Info(ctx, "snapshot store ready", logger.String("dsn", dsn), logger.Int("schema", int(version)))
	return s, nil
}

// New wraps an already migrated database.
func New(db *sqlx.DB, opts ...Option) *Store {
	s := &Store{db: db, log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save replaces the stored snapshot and its run record in one transaction.
func (s *Store) Save(ctx context.Context, t types.Tables, diags []model.Diagnostic) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, name := range []string{resultsTable.name, roundsTable.name, placementsTable.name, teamsTable.name, diagnosticsTable.name, "runs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+name); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	if err := insertAll(ctx, tx, resultsTable, t.Results); err != nil {
		return err
	}
	if err := insertAll(ctx, tx, roundsTable, t.Rounds); err != nil {
		return err
	}
	if err := insertAll(ctx, tx, placementsTable, t.Placements); err != nil {
		return err
	}
	if err := insertAll(ctx, tx, teamsTable, t.Teams); err != nil {
		return err
	}
	rows := make([]diagRow, len(diags))
	for i, d := range diags {
		rows[i] = diagRow{Kind: string(d.Kind), Severity: d.Severity, Line: d.Line, Text: d.Text, Detail: d.Detail}
	}
	if err := insertAll(ctx, tx, diagnosticsTable, rows); err != nil {
		return err
	}

	run := Run{
		ID:          uuid.NewString(),
		CreatedAt:   s.now().UTC(),
		Teams:       len(t.Teams),
		Wrestlers:   len(t.Results),
		Diagnostics: len(diags),
	}
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO runs (id, created_at, teams, wrestlers, diagnostics)
		VALUES (:id, :created_at, :teams, :wrestlers, :diagnostics)`, run); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug(ctx, "snapshot saved", logger.String("run", run.ID), logger.Int("teams", run.Teams))
	return nil
}

func insertAll[T any](ctx context.Context, tx *sqlx.Tx, tb table, rows []T) error {
	q := tb.insert()
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, q, rows[start:end]); err != nil {
			return fmt.Errorf("insert %s: %w", tb.name, err)
		}
	}
	return nil
}

// Load reads back the latest snapshot.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.db.GetContext(ctx, &snap.Run,
		"SELECT id, created_at, teams, wrestlers, diagnostics FROM runs LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load run: %w", err)
	}

	if err := s.db.SelectContext(ctx, &snap.Tables.Results, resultsTable.selectAll()); err != nil {
		return Snapshot{}, fmt.Errorf("load results: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Tables.Rounds, roundsTable.selectAll()); err != nil {
		return Snapshot{}, fmt.Errorf("load rounds: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Tables.Placements, placementsTable.selectAll()); err != nil {
		return Snapshot{}, fmt.Errorf("load placements: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Tables.Teams, teamsTable.selectAll()); err != nil {
		return Snapshot{}, fmt.Errorf("load teams: %w", err)
	}
	var rows []diagRow
	if err := s.db.SelectContext(ctx, &rows, diagnosticsTable.selectAll()); err != nil {
		return Snapshot{}, fmt.Errorf("load diagnostics: %w", err)
	}
	for _, r := range rows {
		snap.Diagnostics = append(snap.Diagnostics, model.Diagnostic{
			Kind: model.DiagnosticKind(r.Kind), Severity: r.Severity, Line: r.Line, Text: r.Text, Detail: r.Detail,
		})
	}
	return snap, nil
}
