package catalog

import "sort"

// View is the presentation model of a listing page.
type View[T Item] struct {
	Items    []T      `json:"items"`
	Total    int      `json:"total"`
	Shown    int      `json:"shown"`
	Criteria Criteria `json:"criteria"`
	Query    string   `json:"query"`
	Empty    bool     `json:"empty"`
	Reset    *Reset   `json:"reset,omitempty"`
	Facets   Facets   `json:"facets"`
}

// Reset describes the one-click "reset all filters" action shown with an
// empty result.
type Reset struct {
	Query    string   `json:"query"`
	Criteria Criteria `json:"criteria"`
	Shows    int      `json:"shows"`
}

// Facets are the filter values available in the unfiltered collection.
type Facets struct {
	Categories []string  `json:"categories"`
	Statuses   []string  `json:"statuses"`
	Sorts      []SortKey `json:"sorts"`
}

// NewView applies c to all and wraps the result for rendering.
func NewView[T Item](all []T, c Criteria) View[T] {
	if c.Sort == "" {
		c.Sort = SortNewest
	}
	items := Apply(all, c)

	view := View[T]{
		Items:    items,
		Total:    len(all),
		Shown:    len(items),
		Criteria: c,
		Query:    c.Query(),
		Empty:    len(items) == 0,
		Facets:   FacetsOf(all),
	}
	if view.Empty {
		defaults := DefaultCriteria()
		view.Reset = &Reset{
			Query:    defaults.Query(),
			Criteria: defaults,
			Shows:    len(all),
		}
	}
	return view
}

// FacetsOf collects the distinct non-empty categories and statuses of items, sorted.
func FacetsOf[T Item](items []T) Facets {
	categories := make(map[string]struct{})
	statuses := make(map[string]struct{})
	for _, item := range items {
		if c := item.CatalogCategory(); c != "" {
			categories[c] = struct{}{}
		}
		if s := item.CatalogStatus(); s != "" {
			statuses[s] = struct{}{}
		}
	}
	return Facets{
		Categories: sortedKeys(categories),
		Statuses:   sortedKeys(statuses),
		Sorts:      SortKeys(),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
