// Package dedupe tracks keys seen during a single pipeline run so repeats can be flagged.
package dedupe

import "sync"

// Deduper records keys and remembers where each was first seen.
type Deduper interface {
	// SeenAndRecord checks if key was seen and records it if not.
	// It returns the line of the first occurrence and whether key was already present.
	SeenAndRecord(key string, line int) (first int, seen bool)

	// First returns the line key was first recorded at.
	First(key string) (int, bool)
}

type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]int
}

// NewInMemoryDeduper creates an empty deduper. A deduper is scoped to one run.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	d.seen = make(map[string]int, cfg.capacity)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(key string, line int) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if first, ok := d.seen[key]; ok {
		return first, true
	}
	d.seen[key] = line
	return line, false
}

func (d *inMemoryDeduper) First(key string) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	first, ok := d.seen[key]
	return first, ok
}
