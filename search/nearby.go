package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/translit"
)

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0088

// Suggest returns up to limit city names that fuzzily contain prefix,
// best matches first. Cyrillic input is also tried transliterated.
func (f *Finder) Suggest(prefix string, limit int) []string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || limit < 1 {
		return []string{}
	}

	ranks := fuzzy.RankFindNormalizedFold(prefix, f.names.names)
	if translit.IsCyrillic(prefix) {
		ranks = append(ranks, fuzzy.RankFindNormalizedFold(translit.ToLatin(prefix), f.names.names)...)
	}
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.Target, b.Target))
	})

	out := make([]string, 0, min(limit, len(ranks)))
	seen := make(map[string]struct{}, len(ranks))
	for _, r := range ranks {
		if _, dup := seen[r.Target]; dup {
			continue
		}
		seen[r.Target] = struct{}{}
		out = append(out, r.Target)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Nearest returns the k records closest to (lat, lon) by great-circle
// distance, nearest first, with DistanceKm set.
func (f *Finder) Nearest(lat, lon float64, k int) ([]core.Match, error) {
	if !core.IsValidCoordinate(lat, lon) {
		return nil, ErrInvalidCoordinates
	}
	if k < 1 {
		return nil, ErrInvalidTopK
	}

	type hit struct {
		pos int
		km  float64
	}
	origin := s2.LatLngFromDegrees(lat, lon)
	hits := make([]hit, len(f.points))
	for i, p := range f.points {
		hits[i] = hit{pos: i, km: origin.Distance(p).Radians() * earthRadiusKm}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(a.km, b.km)
	})

	matches := make([]core.Match, min(k, len(hits)))
	for i := range matches {
		matches[i] = core.MatchFromRecord(&f.records[hits[i].pos], 0)
		matches[i].DistanceKm = hits[i].km
	}
	return matches, nil
}
