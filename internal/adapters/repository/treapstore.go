package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"

	"github.com/okian/takedown/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total DESC, then owner ASC. "less" means ranks earlier, so an
// in-order traversal yields the standings from first to last.

// Totals are multiples of half a point; four decimals keep sums exact.
const scoreScale = 10_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*scoreScale >= math.MaxInt64:
		return scoreFP(math.MaxInt64)
	case x*scoreScale <= math.MinInt64:
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

type node struct {
	owner string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aOwner string, bScore scoreFP, bOwner string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aOwner < bOwner
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the owner so the tree shape is the same on every run.
func priority(owner string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(owner))
	return h.Sum64()
}

func insert(n *node, owner string, score scoreFP) *node {
	if n == nil {
		return &node{owner: owner, score: score, prio: priority(owner), size: 1}
	}
	if less(score, owner, n.score, n.owner) {
		n.left = insert(n.left, owner, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, owner, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, owner string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && owner == n.owner:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, owner, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, owner, score)
		}
	case less(score, owner, n.score, n.owner):
		n.left = deleteNode(n.left, owner, score)
	default:
		n.right = deleteNode(n.right, owner, score)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes have a strictly higher score.
func countAbove(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collect appends up to limit nodes in rank order.
func collect(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{Owner: n.owner, Total: toFloat(n.score)})
	}
	collect(n.right, limit, out)
}

// assignRanksWithTies gives equal totals the same rank and skips the
// positions they consume (1, 1, 3).
func assignRanksWithTies(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Total == entries[i-1].Total {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// snapshot is an immutable, fully ranked copy published after each write.
type snapshot struct {
	entries []Entry
	byOwner map[string]int
}

// TreapStore is a concurrency-safe Store backed by an order-statistic treap.
type TreapStore struct {
	mu     sync.Mutex
	root   *node
	scores map[string]scoreFP

	snap         atomic.Pointer[snapshot]
	topCacheSize int
}

// NewTreapStore returns an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		scores:       make(map[string]scoreFP),
		topCacheSize: 64,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snap.Store(&snapshot{byOwner: map[string]int{}})
	return s
}

// Replace drops every owner and loads the given totals.
func (s *TreapStore) Replace(ctx context.Context, totals map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.root = nil
	s.scores = make(map[string]scoreFP, len(totals))
	for owner, total := range totals {
		fp := toFixedPoint(total)
		s.scores[owner] = fp
		s.root = insert(s.root, owner, fp)
	}
	s.publishLocked()
	return nil
}

// Set inserts an owner or moves it to its new total.
func (s *TreapStore) Set(ctx context.Context, owner string, total float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fp := toFixedPoint(total)
	if old, ok := s.scores[owner]; ok {
		if old == fp {
			return nil
		}
		s.root = deleteNode(s.root, owner, old)
	}
	s.scores[owner] = fp
	s.root = insert(s.root, owner, fp)
	s.publishLocked()
	return nil
}

// Rank returns the owner's standing, reading the latest snapshot.
func (s *TreapStore) Rank(ctx context.Context, owner string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	snap := s.snap.Load()
	if i, ok := snap.byOwner[owner]; ok {
		return snap.entries[i], nil
	}

	// Owners past the cached head are ranked straight from the tree.
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.scores[owner]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, owner)
	}
	return Entry{Rank: countAbove(s.root, fp) + 1, Owner: owner, Total: toFloat(fp)}, nil
}

// TopN returns at most n entries. n must be positive.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	if snap := s.snap.Load(); n <= len(snap.entries) || len(snap.entries) == s.Count(ctx) {
		out := make([]Entry, min(n, len(snap.entries)))
		copy(out, snap.entries)
		return out, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, min(n, len(s.scores)))
	collect(s.root, n, &out)
	assignRanksWithTies(out)
	return out, nil
}

// Count returns the number of owners.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nsize(s.root)
}

func (s *TreapStore) publishLocked() {
	entries := make([]Entry, 0, min(s.topCacheSize, len(s.scores)))
	collect(s.root, s.topCacheSize, &entries)
	assignRanksWithTies(entries)

	byOwner := make(map[string]int, len(entries))
	for i, e := range entries {
		byOwner[e.Owner] = i
	}
	s.snap.Store(&snapshot{entries: entries, byOwner: byOwner})
}
