package listview

// TotalPages is ceil(count/pageSize), never less than 1 — an empty
// collection still renders one (empty) page.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 1
	}

	pages := (count + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// ClampPage pins a 1-indexed page number into [1, TotalPages].
func ClampPage(page, count, pageSize int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(count, pageSize); page > last {
		return last
	}
	return page
}

// Slice returns the visible window of a 1-indexed page. Out-of-range pages
// clamp to the nearest valid page rather than returning nothing.
func Slice[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}

	page = ClampPage(page, len(items), pageSize)

	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}

	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

// PageAfterDelete returns the page to show after removing one item:
// deleting the last item of a non-first page steps back one page, anything
// else keeps the current page.
func PageAfterDelete(page, remainingCount, pageSize int) int {
	return ClampPage(page, remainingCount, pageSize)
}
