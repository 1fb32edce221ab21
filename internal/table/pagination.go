package table

import "github.com/orvull/omnisia-admin-console/internal/models"

// PageItem is a page button, or a gap marker when Gap is set.
type PageItem struct {
	Page int
	Gap  bool
}

const pageSpread = 2

// PagesWindow lists the first and last page, the pages within two of
// current, and a gap wherever the sequence skips. Short ranges list every
// page.
func PagesWindow(current, total int) []PageItem {
	if total <= 1 {
		return []PageItem{{Page: 1}}
	}
	if total <= 2*pageSpread+1 {
		items := make([]PageItem, total)
		for i := range items {
			items[i] = PageItem{Page: i + 1}
		}
		return items
	}
	current = Clamp(current, total)

	items := []PageItem{{Page: 1}}
	gap := func() {
		if !items[len(items)-1].Gap {
			items = append(items, PageItem{Gap: true})
		}
	}
	if current-pageSpread > 2 {
		gap()
	}
	for p := max(2, current-pageSpread); p <= min(total-1, current+pageSpread); p++ {
		items = append(items, PageItem{Page: p})
	}
	if current+pageSpread < total-1 {
		gap()
	}
	return append(items, PageItem{Page: total})
}

// Clamp bounds page to [1, max(1, totalPages)].
func Clamp(page, totalPages int) int {
	return min(max(1, page), max(1, totalPages))
}

// Range returns the 1-based positions of the first and last row of the
// current page, with rangeStart <= rangeEnd <= total and 0, 0 when empty.
func Range(meta models.Meta) (start, end int) {
	if meta.Total <= 0 {
		return 0, 0
	}
	limit := meta.Limit
	if limit <= 0 {
		limit = meta.Total
	}
	page := max(1, meta.Page)
	end = min(page*limit, meta.Total)
	start = min((page-1)*limit+1, end)
	return start, end
}
