package parser

import (
	"sort"
	"strings"
)

// Catalogue records every mention seen in a document, giving later stages
// whole-document context before any identity is committed.
type Catalogue struct {
	schools map[string]map[string]int
	display map[string]string
}

func newCatalogue() *Catalogue {
	return &Catalogue{
		schools: make(map[string]map[string]int),
		display: make(map[string]string),
	}
}

func catalogueKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (c *Catalogue) add(name, school string) {
	k := catalogueKey(name)
	if k == "" {
		return
	}
	if c.schools[k] == nil {
		c.schools[k] = make(map[string]int)
		c.display[k] = strings.TrimSpace(name)
	}
	c.schools[k][strings.TrimSpace(school)]++
}

// Count returns how many times name was mentioned.
func (c *Catalogue) Count(name string) int {
	n := 0
	for _, v := range c.schools[catalogueKey(name)] {
		n += v
	}
	return n
}

// Schools returns the distinct non-empty schools seen with name, sorted.
func (c *Catalogue) Schools(name string) []string {
	var out []string
	for s := range c.schools[catalogueKey(name)] {
		if s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// SchoolHint returns the school of name when the document only ever pairs it with one.
func (c *Catalogue) SchoolHint(name string) (string, bool) {
	s := c.Schools(name)
	if len(s) != 1 {
		return "", false
	}
	return s[0], true
}

// Names returns every catalogued name as first seen, sorted.
func (c *Catalogue) Names() []string {
	out := make([]string, 0, len(c.display))
	for _, d := range c.display {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Len is the number of distinct names.
func (c *Catalogue) Len() int { return len(c.schools) }
