package search

import "sort"

// DefaultRRFConstant is RRF's k constant (spec.md §4.6.4).
const DefaultRRFConstant = 60

// bestRankBonus returns the reciprocal-rank-fusion tie-breaking bonus for
// a hit that appeared at rank (0-indexed) in some input list: +0.05 for
// rank 0, +0.02 for rank 1 or 2, zero otherwise.
func bestRankBonus(rank int) float64 {
	switch {
	case rank == 0:
		return 0.05
	case rank <= 2:
		return 0.02
	default:
		return 0
	}
}

// RankedList is one input to Fuse: hits in relevance order, with an
// optional weight (default 1.0 when Weight is zero).
type RankedList struct {
	Hits   []Hit
	Weight float64
}

// fusedEntry accumulates one document's RRF score across lists, keeping
// the first-seen Hit as its representative (for Path/Title/Snippet/etc).
type fusedEntry struct {
	hit   Hit
	score float64
	bonus float64
	order int // insertion order, for stable tie-breaking
}

// Fuse combines N ranked lists into one relevance-ordered list using
// Reciprocal Rank Fusion with constant k and a best-rank bonus
// (spec.md §4.6.4): rrf(d) = sum_i weight_i / (k + rank_i(d) + 1), plus
// +0.05/+0.02 if d ranked 0 / 1-2 in any single list. Documents are keyed
// by their addressable identity (collection, path), matching how
// searchFTS/searchVector address their own hits — two distinct documents
// that happen to share content (content dedup, spec.md §3) must fuse into
// two entries, not collapse into one.
func Fuse(lists []RankedList) []Hit {
	entries := make(map[string]*fusedEntry)
	order := 0

	for _, list := range lists {
		weight := list.Weight
		if weight == 0 {
			weight = 1.0
		}
		for rank, hit := range list.Hits {
			key := fuseKey(hit)
			e, ok := entries[key]
			if !ok {
				e = &fusedEntry{hit: hit, order: order}
				order++
				entries[key] = e
			}
			e.score += weight / float64(DefaultRRFConstant+rank+1)
			if b := bestRankBonus(rank); b > e.bonus {
				e.bonus = b
			}
		}
	}

	out := make([]Hit, 0, len(entries))
	for _, e := range entries {
		h := e.hit
		h.Score = e.score + e.bonus
		h.Source = "hybrid"
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return entries[fuseKey(out[i])].order < entries[fuseKey(out[j])].order
	})
	return out
}

// fuseKey identifies an addressable document across ranked lists:
// (collection, path), the same identity qmd:// virtual paths use.
func fuseKey(h Hit) string {
	return h.CollectionName + "/" + h.Path
}
