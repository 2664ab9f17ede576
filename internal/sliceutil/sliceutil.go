// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept. Graph joins across
// relationships multiply rows, so result sets are deduplicated on a natural
// key before rendering.
//
// Example:
//
//	pubs := []kb.Publication{{Title: "NLG survey"}, {Title: "SimpleNLG"}, {Title: "NLG survey"}}
//	unique := sliceutil.Deduplicate(pubs, func(p kb.Publication) string { return p.Title })
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]bool, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if !seen[key] {
			seen[key] = true
			result = append(result, item)
		}
	}

	return result
}

// Pair holds an unordered pair drawn from a slice.
type Pair[T any] struct {
	A, B T
}

// Pairs enumerates all unordered pairs of items, preserving the input order
// within each pair (A precedes B in the source slice). The collaboration
// follow-up evaluates cooperation across every remembered expert pair, not
// just the first two.
func Pairs[T any](items []T) []Pair[T] {
	if len(items) < 2 {
		return nil
	}

	result := make([]Pair[T], 0, len(items)*(len(items)-1)/2)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			result = append(result, Pair[T]{A: items[i], B: items[j]})
		}
	}
	return result
}
