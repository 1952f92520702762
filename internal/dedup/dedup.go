// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup removes duplicate paper records within and across sources.
// A record's identity is the first non-empty of DOI, canonical URL and
// normalized title (see types.PaperRecord.IdentityKey); keys of different
// kinds never match each other.
package dedup

import (
	"github.com/pdiddy/review-engine/pkg/types"
)

// Result holds the surviving records and how many were dropped.
type Result struct {
	Records []types.PaperRecord
	Removed int
}

// Deduplicate keeps the first record seen for each identity key and drops
// later collisions, preserving input order. Records without identity are
// always kept. Running it on its own output is a no-op.
func Deduplicate(records []types.PaperRecord) Result {
	seen := make(map[string]struct{}, len(records))
	out := make([]types.PaperRecord, 0, len(records))
	removed := 0

	for _, r := range records {
		key := r.IdentityKey()
		if key == "" {
			out = append(out, r)
			continue
		}
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return Result{Records: out, Removed: removed}
}

// Merge combines per-source lists in the given order and deduplicates the
// result. Each list is deduplicated first so the removed count covers
// within-source and cross-source duplicates alike.
func Merge(lists ...[]types.PaperRecord) Result {
	var all []types.PaperRecord
	removed := 0
	for _, l := range lists {
		r := Deduplicate(l)
		removed += r.Removed
		all = append(all, r.Records...)
	}
	merged := Deduplicate(all)
	merged.Removed += removed
	return merged
}

// Keys returns the identity key of each record, in order. Records without
// identity contribute "".
func Keys(records []types.PaperRecord) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.IdentityKey()
	}
	return keys
}
