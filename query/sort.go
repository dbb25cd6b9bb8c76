package query

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortByName orders items by their display name with locale-aware comparison.
// A collator is not safe for concurrent use, so each call gets its own.
func sortByName[T any](items []T, name func(T) string) {
	col := collate.New(language.English)
	sort.SliceStable(items, func(i, j int) bool {
		return col.CompareString(name(items[i]), name(items[j])) < 0
	})
}

// dedupeByName keeps the first item of every name.
func dedupeByName[T any](items []T, name func(T) string) []T {
	seen := make(map[string]bool, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		n := name(item)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, item)
	}
	return out
}
