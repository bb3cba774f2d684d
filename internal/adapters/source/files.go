package source

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/takedown/internal/domain/model"
)

// Files reads both run inputs from disk on every call, so edits to the
// results text are picked up by the next run.
type Files struct {
	RosterPath  string
	ResultsPath string
}

// Roster loads the roster file.
func (f Files) Roster(ctx context.Context) (model.Roster, error) {
	return LoadRoster(ctx, f.RosterPath)
}

// Text loads the results text.
func (f Files) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(f.ResultsPath)
	if err != nil {
		return "", fmt.Errorf("read results: %w", err)
	}
	return string(b), nil
}
