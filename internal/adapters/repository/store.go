// Package repository keeps the team standings for the latest run.
package repository

import "context"

// Entry is one team in the standings.
type Entry struct {
	Rank  int
	Owner string
	Total float64
}

// Store provides read/write access to the standings.
type Store interface {
	// Replace swaps the whole standings for a new run's totals.
	Replace(ctx context.Context, totals map[string]float64) error

	// Set records one owner's total, inserting or moving it.
	Set(ctx context.Context, owner string, total float64) error

	// Rank returns the rank and total for an owner.
	// Returns ErrNotFound if the owner is unknown.
	Rank(ctx context.Context, owner string) (Entry, error)

	// TopN returns the top-N entries ordered by total desc, owner asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of owners tracked.
	Count(ctx context.Context) int
}
