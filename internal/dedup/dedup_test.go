// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/review-engine/pkg/types"
)

func paper(title, doi, url string) types.PaperRecord {
	return types.PaperRecord{
		Title:       title,
		Identifiers: types.Identifiers{DOI: doi, URL: url},
	}
}

func titles(records []types.PaperRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestDeduplicateKeepsFirstSeen(t *testing.T) {
	in := []types.PaperRecord{
		paper("A", "10.1/a", ""),
		paper("B", "", "https://example.org/b"),
		paper("A again", "10.1/A", "https://other.org/a"),
		paper("C", "", ""),
		paper("B again", "", "http://www.example.org/b/"),
	}
	got := Deduplicate(in)
	assert.Equal(t, []string{"A", "B", "C"}, titles(got.Records))
	assert.Equal(t, 2, got.Removed)
}

func TestDeduplicateIdempotent(t *testing.T) {
	in := []types.PaperRecord{
		paper("A", "10.1/a", ""),
		paper("a", "", ""),
		paper("A", "", ""),
		paper("", "", ""),
		paper("", "", ""),
		paper("A", "10.1/a", "x"),
	}
	once := Deduplicate(in)
	twice := Deduplicate(once.Records)
	if diff := cmp.Diff(once.Records, twice.Records); diff != "" {
		t.Errorf("second pass changed output (-first +second):\n%s", diff)
	}
	assert.Zero(t, twice.Removed)
}

func TestDOIPriorityOverURL(t *testing.T) {
	in := []types.PaperRecord{
		paper("X", "10.5555/x", "https://a.org/x"),
		paper("X", "10.5555/x", "https://b.org/x"),
	}
	got := Deduplicate(in)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "https://a.org/x", got.Records[0].Identifiers.URL)
}

func TestTitleNormalizationCollides(t *testing.T) {
	in := []types.PaperRecord{
		paper("Deep  Learning for Screening", "", ""),
		paper("  deep learning FOR screening ", "", ""),
	}
	got := Deduplicate(in)
	assert.Len(t, got.Records, 1)
	assert.Equal(t, 1, got.Removed)
}

func TestKeyKindsDoNotCross(t *testing.T) {
	// A DOI-keyed record and a title-only record for the same work are
	// distinct keys.
	in := []types.PaperRecord{
		paper("Same Work", "10.1/s", ""),
		paper("Same Work", "", ""),
	}
	assert.Len(t, Deduplicate(in).Records, 2)
}

func TestEmptyIdentityAlwaysKept(t *testing.T) {
	in := []types.PaperRecord{{}, {Abstract: "x"}, {}}
	got := Deduplicate(in)
	assert.Len(t, got.Records, 3)
	assert.Zero(t, got.Removed)
}

func TestMerge(t *testing.T) {
	arxiv := []types.PaperRecord{
		paper("Transformers", "", "https://arxiv.org/abs/1"),
		paper("Transformers", "", "https://arxiv.org/abs/1"),
		paper("Graph Nets", "", ""),
	}
	jstage := []types.PaperRecord{
		paper("graph nets", "", ""),
		paper("Japanese Paper", "10.1/j", ""),
	}
	got := Merge(arxiv, jstage)
	assert.Equal(t, []string{"Transformers", "Graph Nets", "Japanese Paper"}, titles(got.Records))
	assert.Equal(t, 2, got.Removed)
}

func TestKeys(t *testing.T) {
	keys := Keys([]types.PaperRecord{
		paper("T", "DOI:10.1/ABC", ""),
		paper("T", "", "HTTPS://Example.org/p#frag"),
		paper(" Some   Title ", "", ""),
		{},
	})
	assert.Equal(t, []string{
		"doi:10.1/abc",
		"url:https://example.org/p",
		"title:some title",
		"",
	}, keys)
}
