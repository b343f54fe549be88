// Package listview implements the in-memory list transformation pipeline
// shared by the "load all, shape client-side" endpoints (accounts,
// transactions): conjunctive filtering, stable single-field sorting and
// 1-indexed pagination. Everything here is pure; callers own the state.
package listview

import "strings"

// Predicate decides whether an item stays in the filtered collection.
type Predicate[T any] func(T) bool

// Equals matches items whose field equals value exactly.
// An empty value matches everything.
func Equals[T any](value string, get func(T) string) Predicate[T] {
	if value == "" {
		return func(T) bool { return true }
	}
	return func(item T) bool {
		return get(item) == value
	}
}

// Search matches items where the term appears, case-insensitively, in at
// least one of the given text fields. An empty term matches everything.
func Search[T any](term string, gets ...func(T) string) Predicate[T] {
	if term == "" {
		return func(T) bool { return true }
	}

	needle := strings.ToLower(term)

	return func(item T) bool {
		for _, get := range gets {
			if strings.Contains(strings.ToLower(get(item)), needle) {
				return true
			}
		}
		return false
	}
}

// Filter returns the items satisfying every predicate, preserving order.
// Predicates compose conjunctively (AND).
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	filtered := make([]T, 0, len(items))

	for _, item := range items {
		keep := true
		for _, pred := range preds {
			if !pred(item) {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, item)
		}
	}

	return filtered
}
