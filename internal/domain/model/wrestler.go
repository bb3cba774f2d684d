// Package model defines the wrestling domain records shared by the pipeline stages.
package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// wrestlerNamespace seeds deterministic wrestler identifiers.
var wrestlerNamespace = uuid.MustParse("6f1c7e43-2b1d-4f0e-9a57-3c1f0a9d2e61") //nolint:gochecknoglobals // fixed namespace

// Wrestler is a roster identity. It is immutable once the roster is loaded.
type Wrestler struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	School string `json:"school"`
	Weight string `json:"weight"`
	Seed   int    `json:"seed,omitempty"`
	Owner  string `json:"owner,omitempty"`
}

// Drafted reports whether a team owns the wrestler.
func (w Wrestler) Drafted() bool { return w.Owner != "" }

// Label renders "Name (School)".
func (w Wrestler) Label() string {
	if w.School == "" {
		return w.Name
	}
	return w.Name + " (" + w.School + ")"
}

// NewWrestlerID derives a stable identifier from weight, name and school.
func NewWrestlerID(weight, name, school string) string {
	key := strings.ToLower(strings.Join([]string{
		strings.TrimSpace(weight), strings.TrimSpace(name), strings.TrimSpace(school),
	}, "|"))
	return uuid.NewSHA1(wrestlerNamespace, []byte(key)).String()
}

// NewWrestler builds a Wrestler and assigns its ID.
func NewWrestler(name, school, weight string, seed int, owner string) Wrestler {
	name, school, weight = strings.TrimSpace(name), strings.TrimSpace(school), strings.TrimSpace(weight)
	return Wrestler{
		ID:     NewWrestlerID(weight, name, school),
		Name:   name,
		School: school,
		Weight: weight,
		Seed:   seed,
		Owner:  strings.TrimSpace(owner),
	}
}

// Roster is the drafted field, read-only after load.
type Roster []Wrestler

// ByID indexes the roster by identifier.
func (r Roster) ByID() map[string]Wrestler {
	out := make(map[string]Wrestler, len(r))
	for _, w := range r {
		out[w.ID] = w
	}
	return out
}

// Owners returns the distinct team owners in roster order.
func (r Roster) Owners() []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range r {
		if w.Owner != "" && !seen[w.Owner] {
			seen[w.Owner] = true
			out = append(out, w.Owner)
		}
	}
	return out
}

// Validate checks identifier uniqueness and the (name, school) rule.
// Names in collisions may repeat a (name, school) pair as long as the weight differs.
func (r Roster) Validate(collisions []string) error {
	allowed := make(map[string]bool, len(collisions))
	for _, c := range collisions {
		allowed[strings.ToLower(strings.TrimSpace(c))] = true
	}

	ids := make(map[string]bool, len(r))
	pairs := make(map[string]string, len(r))
	for _, w := range r {
		if strings.TrimSpace(w.Name) == "" {
			return fmt.Errorf("%w: wrestler with empty name", ErrInvalidRoster)
		}
		if ids[w.ID] {
			return fmt.Errorf("%w: duplicate wrestler %s at %s", ErrInvalidRoster, w.Label(), w.Weight)
		}
		ids[w.ID] = true

		name := strings.ToLower(w.Name)
		pair := name + "|" + strings.ToLower(w.School)
		if prev, ok := pairs[pair]; ok && !allowed[name] && !allowed[lastWord(name)] {
			return fmt.Errorf("%w: %s appears at %s and %s; list the name as a collision",
				ErrInvalidRoster, w.Label(), prev, w.Weight)
		}
		pairs[pair] = w.Weight
	}
	return nil
}

func lastWord(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}
