package search

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/translit"
)

// altEntry holds the alternate names of one distinct city name.
type altEntry struct {
	name  string
	nameT string   // transliterated, then folded
	alts  []string // folded
	altsT []string // transliterated, then folded
}

// nameTable indexes the city names and alternate names of the records.
type nameTable struct {
	entries []altEntry
	byFold  map[string]string
	names   []string
}

func newNameTable(records []core.CityRecord) *nameTable {
	grouped := make(map[string]map[string]struct{})
	for i := range records {
		r := &records[i]
		alts, ok := grouped[r.Name]
		if !ok {
			alts = make(map[string]struct{})
			grouped[r.Name] = alts
		}
		for _, alt := range core.SplitNames(r.AlternateNames) {
			alts[alt] = struct{}{}
		}
	}

	t := &nameTable{
		entries: make([]altEntry, 0, len(grouped)),
		byFold:  make(map[string]string, len(grouped)),
		names:   make([]string, 0, len(grouped)),
	}
	for name := range grouped {
		t.names = append(t.names, name)
	}
	slices.Sort(t.names)

	for _, name := range t.names {
		if _, taken := t.byFold[translit.Fold(name)]; !taken {
			t.byFold[translit.Fold(name)] = name
		}
		entry := altEntry{name: name, nameT: translit.Fold(translit.ToLatin(name))}
		for alt := range grouped[name] {
			entry.alts = append(entry.alts, translit.Fold(alt))
			entry.altsT = append(entry.altsT, translit.Fold(translit.ToLatin(alt)))
		}
		t.entries = append(t.entries, entry)
	}
	return t
}

// lookup returns the known city name equal to s, ignoring case and accents.
func (t *nameTable) lookup(s string) (string, bool) {
	name, ok := t.byFold[translit.Fold(s)]
	return name, ok
}

// resolve maps an abbreviation, alternate or transliterated spelling to city
// names. Names with an alternate equal to the query win over names with an
// alternate that merely starts with it. Several candidates are narrowed to
// the one closest to the transliterated query. Without candidates the
// transliterated query is returned.
func (t *nameTable) resolve(query string) (candidates []string, chosen string) {
	q := translit.Fold(query)
	qt := translit.Fold(translit.ToLatin(query))

	var exact, prefix []string
	for i := range t.entries {
		e := &t.entries[i]
		if slices.Contains(e.alts, q) || slices.Contains(e.altsT, qt) {
			exact = append(exact, e.name)
			continue
		}
		if hasPrefix(e.alts, q) || hasPrefix(e.altsT, qt) {
			prefix = append(prefix, e.name)
		}
	}

	candidates = exact
	if len(candidates) == 0 {
		candidates = prefix
	}
	switch len(candidates) {
	case 0:
		return nil, translit.ToLatin(strings.ToLower(strings.TrimSpace(query)))
	case 1:
		return candidates, candidates[0]
	}
	return candidates, closest(qt, candidates)
}

// nearest returns up to n city names ordered by edit distance ratio to the
// transliterated query, best first. Equally close names keep name order.
func (t *nameTable) nearest(query string, n int) []string {
	if n < 1 {
		return nil
	}
	qt := translit.Fold(translit.ToLatin(query))

	type scored struct {
		name  string
		ratio float64
	}
	ranked := make([]scored, len(t.entries))
	for i := range t.entries {
		ranked[i] = scored{t.entries[i].name, ratio(qt, t.entries[i].nameT)}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int {
		return cmp.Compare(b.ratio, a.ratio)
	})

	out := make([]string, 0, min(n, len(ranked)))
	for _, r := range ranked[:min(n, len(ranked))] {
		out = append(out, r.name)
	}
	return out
}

func hasPrefix(names []string, prefix string) bool {
	if prefix == "" {
		return false
	}
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

// closest returns the candidate with the highest edit distance ratio to
// target. candidates must be sorted; the first of equally close names wins.
func closest(target string, candidates []string) string {
	best, bestRatio := "", -1.0
	for _, c := range candidates {
		r := ratio(target, translit.Fold(translit.ToLatin(c)))
		if r > bestRatio {
			best, bestRatio = c, r
		}
	}
	return best
}

// ratio is the Levenshtein similarity of a and b in [0, 1].
func ratio(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
