package matcher

import (
	"sort"
	"strings"
)

var punctuation = strings.NewReplacer("'", "", "’", "", "`", "", "\"", "", ",", "", ".", "", "(", "", ")", "", "-", "") //nolint:gochecknoglobals // immutable replacer

// normaliser folds names and schools onto comparable keys.
type normaliser struct {
	variants []variant
	aliases  map[string]string
}

type variant struct{ from, to string }

func newNormaliser(variants, aliases map[string]string) normaliser {
	n := normaliser{aliases: make(map[string]string, len(aliases))}
	for k, v := range aliases {
		n.aliases[fold(k)] = fold(v)
	}
	for k, v := range variants {
		if k = fold(k); k != "" {
			n.variants = append(n.variants, variant{from: k, to: fold(v)})
		}
	}
	// Longest first; equal lengths by key so the result never depends on map order.
	sort.Slice(n.variants, func(i, j int) bool {
		if len(n.variants[i].from) != len(n.variants[j].from) {
			return len(n.variants[i].from) > len(n.variants[j].from)
		}
		return n.variants[i].from < n.variants[j].from
	})
	return n
}

// fold lowercases, strips punctuation and collapses whitespace.
func fold(s string) string {
	s = punctuation.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

func (n normaliser) name(s string) string {
	s = fold(s)
	for _, v := range n.variants {
		s = strings.ReplaceAll(s, v.from, v.to)
	}
	return s
}

func (n normaliser) school(s string) string {
	s = fold(s)
	if a, ok := n.aliases[s]; ok {
		return a
	}
	return s
}

func lastName(normalised string) string {
	f := strings.Fields(normalised)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}
