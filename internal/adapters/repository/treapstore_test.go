package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
)

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Set(ctx, "Alpha", 42.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	entry, err := store.Rank(ctx, "Alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Total != 42.5 {
		t.Errorf("expected rank 1 total 42.5, got %+v", entry)
	}

	if _, err := store.Rank(ctx, "Nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestTreapStore_OrderingAndTies(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	err := store.Replace(ctx, map[string]float64{
		"Delta":   30,
		"Alpha":   55.5,
		"Charlie": 30,
		"Bravo":   55.5,
		"Echo":    12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Entry{
		{Rank: 1, Owner: "Alpha", Total: 55.5},
		{Rank: 1, Owner: "Bravo", Total: 55.5},
		{Rank: 3, Owner: "Charlie", Total: 30},
		{Rank: 3, Owner: "Delta", Total: 30},
		{Rank: 5, Owner: "Echo", Total: 12},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], entries[i])
		}
	}

	top2, _ := store.TopN(ctx, 2)
	if len(top2) != 2 || top2[1].Owner != "Bravo" {
		t.Errorf("unexpected top 2: %+v", top2)
	}
}

func TestTreapStore_SetMovesOwner(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	_ = store.Replace(ctx, map[string]float64{"Alpha": 10, "Bravo": 20})

	if err := store.Set(ctx, "Alpha", 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entry, _ := store.Rank(ctx, "Alpha")
	if entry.Rank != 1 {
		t.Errorf("expected Alpha to move to rank 1, got %d", entry.Rank)
	}
	if count := store.Count(ctx); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	_ = store.Replace(ctx, map[string]float64{"Charlie": 1})
	if _, err := store.Rank(ctx, "Alpha"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected replaced owner to be gone, got %v", err)
	}
}

func TestTreapStore_RankBeyondCache(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore(WithTopCacheSize(3))

	totals := make(map[string]float64)
	for i := 0; i < 20; i++ {
		totals[fmt.Sprintf("owner-%02d", i)] = float64(i / 2)
	}
	_ = store.Replace(ctx, totals)

	all, err := store.TopN(ctx, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(all))
	}
	for _, e := range all {
		got, err := store.Rank(ctx, e.Owner)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != e {
			t.Errorf("rank mismatch for %s: TopN %+v, Rank %+v", e.Owner, e, got)
		}
	}
}

func TestTreapStore_MatchesSort(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	rng := rand.New(rand.NewSource(7))

	totals := make(map[string]float64)
	for i := 0; i < 200; i++ {
		owner := fmt.Sprintf("team-%03d", i)
		totals[owner] = float64(rng.Intn(40)) / 2
		_ = store.Set(ctx, owner, float64(rng.Intn(40)))
	}
	for owner, total := range totals {
		_ = store.Set(ctx, owner, total)
	}

	got, _ := store.TopN(ctx, 1000)

	owners := make([]string, 0, len(totals))
	for o := range totals {
		owners = append(owners, o)
	}
	sort.Slice(owners, func(i, j int) bool {
		if totals[owners[i]] != totals[owners[j]] {
			return totals[owners[i]] > totals[owners[j]]
		}
		return owners[i] < owners[j]
	})

	if len(got) != len(owners) {
		t.Fatalf("expected %d entries, got %d", len(owners), len(got))
	}
	for i, o := range owners {
		if got[i].Owner != o || got[i].Total != totals[o] {
			t.Fatalf("position %d: expected %s %.1f, got %+v", i, o, totals[o], got[i])
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				owner := fmt.Sprintf("g%d-%d", g, i)
				_ = store.Set(ctx, owner, float64(i))
				_, _ = store.Rank(ctx, owner)
				_, _ = store.TopN(ctx, 5)
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 400 {
		t.Errorf("expected 400 owners, got %d", count)
	}
}

func TestTreapStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewTreapStore()

	if err := store.Set(ctx, "Alpha", 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := store.TopN(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
