package listview

import (
	"sort"
	"strings"
	"time"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Field describes one sortable column of T. Exactly one accessor is set,
// matching the field's semantic kind: numeric, case-folded string, or
// date compared as epoch milliseconds.
type Field[T any] struct {
	Number func(T) float64
	String func(T) string
	Time   func(T) time.Time
}

// Sort is the single active sort of a list view.
type Sort struct {
	Field     string
	Direction Direction
}

// DefaultDirection is the direction a freshly clicked field starts with:
// descending for the identity column, ascending for everything else.
func DefaultDirection(field string) Direction {
	if field == "id" {
		return Desc
	}
	return Asc
}

// NextSort computes the sort state after a header click: clicking the active
// field flips the direction, clicking a new field resets to its default.
func NextSort(current Sort, clicked string) Sort {
	if current.Field == clicked {
		next := Sort{Field: clicked, Direction: Asc}
		if current.Direction == Asc {
			next.Direction = Desc
		}
		return next
	}

	return Sort{Field: clicked, Direction: DefaultDirection(clicked)}
}

// SortItems returns a sorted copy of items. The sort is stable, so ties keep
// their insertion order.
func SortItems[T any](items []T, field Field[T], dir Direction) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	less := lessFunc(sorted, field)
	if less == nil {
		return sorted
	}

	if dir == Desc {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}

	sort.SliceStable(sorted, less)

	return sorted
}

func lessFunc[T any](items []T, field Field[T]) func(i, j int) bool {
	switch {
	case field.Number != nil:
		return func(i, j int) bool {
			return field.Number(items[i]) < field.Number(items[j])
		}
	case field.String != nil:
		return func(i, j int) bool {
			return strings.ToLower(field.String(items[i])) < strings.ToLower(field.String(items[j]))
		}
	case field.Time != nil:
		return func(i, j int) bool {
			return field.Time(items[i]).UnixMilli() < field.Time(items[j]).UnixMilli()
		}
	}
	return nil
}
