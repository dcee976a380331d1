// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"

	"github.com/pdiddy/tender-search/pkg/types"
)

// Merge concatenates record sets in the order given, drops duplicates and
// orders the survivors by publish date, newest first. It never modifies its
// inputs and always returns a non-nil slice.
func Merge(sets ...[]types.Record) []types.Record {
	merged, _ := merge(sets)
	return merged
}

// merge is Merge plus the number of records discarded as duplicates.
func merge(sets [][]types.Record) ([]types.Record, int) {
	var all []types.Record
	for _, set := range sets {
		all = append(all, set...)
	}

	deduped, removed := deduplicate(all)
	sortByPublishDate(deduped)
	return deduped, removed
}

// deduplicate keeps the first record per key. Purchase numbers are the key
// as soon as any record carries one; a batch without them falls back to URLs.
func deduplicate(records []types.Record) ([]types.Record, int) {
	byNumber := false
	for _, r := range records {
		if r.PurchaseNumber != "" {
			byNumber = true
			break
		}
	}

	seen := make(map[string]struct{}, len(records))
	deduped := make([]types.Record, 0, len(records))
	removed := 0

	for _, r := range records {
		key := dedupKey(r, byNumber)
		if _, ok := seen[key]; ok {
			removed++
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, r)
	}
	return deduped, removed
}

// dedupKey returns the identity of r. Records without a purchase number in a
// numbered batch are keyed by URL so they do not collapse into one another.
func dedupKey(r types.Record, byNumber bool) string {
	if byNumber && r.PurchaseNumber != "" {
		return "number:" + r.PurchaseNumber
	}
	return "url:" + r.URL
}

// sortByPublishDate orders records by their date string, descending. The
// comparison is lexical. When no record has a date the order is untouched.
func sortByPublishDate(records []types.Record) {
	hasDate := false
	for _, r := range records {
		if r.PublishDate != "" {
			hasDate = true
			break
		}
	}
	if !hasDate {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishDate > records[j].PublishDate
	})
}
