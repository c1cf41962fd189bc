package news

import "slices"

// Sort orders for FilterAndSort.
const (
	SortByDate  = "date"
	SortByViews = "views"
)

// AllCategories is the filter value that keeps every article.
const AllCategories = "all"

// FilterAndSort keeps articles of the given category ("" or "all" keeps
// everything) and orders them newest first, or by views when sortBy is
// "views". The input slice is not modified.
func FilterAndSort(articles []Article, category, sortBy string) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if category == "" || category == AllCategories || string(a.Category) == category {
			out = append(out, a)
		}
	}
	if sortBy == SortByViews {
		slices.SortStableFunc(out, func(a, b Article) int { return b.Views - a.Views })
	} else {
		slices.SortStableFunc(out, func(a, b Article) int { return b.PublishedAt.Compare(a.PublishedAt) })
	}
	return out
}

// CategoryOptions returns "all" followed by the distinct categories of
// articles in first-seen order.
func CategoryOptions(articles []Article) []string {
	seen := make(map[Category]bool, len(Categories))
	out := []string{AllCategories}
	for _, a := range articles {
		if !seen[a.Category] {
			seen[a.Category] = true
			out = append(out, string(a.Category))
		}
	}
	return out
}
