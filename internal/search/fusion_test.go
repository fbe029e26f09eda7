package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse_SingleListPreservesOrder(t *testing.T) {
	hits := []Hit{
		{Path: "a.md", Hash: "a", Score: 9},
		{Path: "b.md", Hash: "b", Score: 5},
		{Path: "c.md", Hash: "c", Score: 1},
	}
	out := Fuse([]RankedList{{Hits: hits, Weight: 1.0}})
	require.Len(t, out, 3)
	assert.Equal(t, "a.md", out[0].Path)
	assert.Equal(t, "b.md", out[1].Path)
	assert.Equal(t, "c.md", out[2].Path)
}

func TestFuse_DocumentInBothListsOutranksSingleList(t *testing.T) {
	fts := []Hit{{Path: "both.md", Hash: "both"}, {Path: "fts.md", Hash: "fts-only"}}
	vec := []Hit{{Path: "both.md", Hash: "both"}, {Path: "vec.md", Hash: "vec-only"}}

	out := Fuse([]RankedList{
		{Hits: fts, Weight: 2.0},
		{Hits: vec, Weight: 2.0},
	})
	require.NotEmpty(t, out)
	assert.Equal(t, "both.md", out[0].Path, "document appearing in both lists should rank first")
}

func TestFuse_SharedContentAcrossDistinctDocumentsDoesNotMerge(t *testing.T) {
	// "one.md" and "two.md" share a hash (content dedup, spec.md §3) but
	// are distinct addressable documents and must fuse into two entries.
	fts := []Hit{{CollectionName: "repo", Path: "one.md", Hash: "shared"}}
	vec := []Hit{{CollectionName: "repo", Path: "two.md", Hash: "shared"}}

	out := Fuse([]RankedList{
		{Hits: fts, Weight: 1.0},
		{Hits: vec, Weight: 1.0},
	})
	require.Len(t, out, 2)
	paths := []string{out[0].Path, out[1].Path}
	assert.ElementsMatch(t, []string{"one.md", "two.md"}, paths)
}

func TestFuse_BestRankBonusRewardsTopRank(t *testing.T) {
	// "other" occupies rank 0 so "second" lands at rank 1 (+0.02 bonus).
	// "solo" is the sole entry in its own list, so it's rank 0 there:
	// base 1/61 (vs "second"'s 1/62) plus the +0.05 bonus.
	listA := []Hit{{Path: "other.md"}, {Path: "second.md"}}
	listB := []Hit{{Path: "solo.md"}}

	out := Fuse([]RankedList{
		{Hits: listA, Weight: 1.0},
		{Hits: listB, Weight: 1.0},
	})
	require.Len(t, out, 3)

	var second, solo Hit
	for _, h := range out {
		switch h.Path {
		case "second.md":
			second = h
		case "solo.md":
			solo = h
		}
	}
	assert.InDelta(t, 1.0/62.0+0.02, second.Score, 1e-9)
	assert.InDelta(t, 1.0/61.0+0.05, solo.Score, 1e-9)
	assert.Greater(t, solo.Score, second.Score)
}

func TestFuse_WeightsScaleContribution(t *testing.T) {
	listA := []Hit{{Path: "x.md"}}
	out := Fuse([]RankedList{{Hits: listA, Weight: 2.0}})
	require.Len(t, out, 1)
	assert.InDelta(t, 2.0/61.0+0.05, out[0].Score, 1e-9)
}

func TestFuse_EmptyListsYieldEmptyResult(t *testing.T) {
	out := Fuse(nil)
	assert.Empty(t, out)
}

func TestFuse_MarksSourceHybrid(t *testing.T) {
	out := Fuse([]RankedList{{Hits: []Hit{{Path: "a.md", Hash: "a", Source: "fts"}}, Weight: 1.0}})
	require.Len(t, out, 1)
	assert.Equal(t, "hybrid", out[0].Source)
}
