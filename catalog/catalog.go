// Package catalog filters and orders entity collections for listing pages.
// Everything here is a pure function of its inputs.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Item is anything that can be listed in a catalog.
type Item interface {
	CatalogTitle() string
	// CatalogText lists the fields matched by free-text search.
	CatalogText() []string
	CatalogCategory() string
	CatalogStatus() string
	// CatalogDate is the date used by newest/oldest. ok is false when unset.
	CatalogDate() (t time.Time, ok bool)
	CatalogCompletion() int
	CatalogPriority() int
}

type SortKey string

const (
	SortNewest         SortKey = "newest"
	SortOldest         SortKey = "oldest"
	SortTitleAsc       SortKey = "title-asc"
	SortTitleDesc      SortKey = "title-desc"
	SortCompletionAsc  SortKey = "completion-asc"
	SortCompletionDesc SortKey = "completion-desc"
	SortPriority       SortKey = "priority"
)

var sortKeys = []SortKey{
	SortNewest,
	SortOldest,
	SortTitleAsc,
	SortTitleDesc,
	SortCompletionAsc,
	SortCompletionDesc,
	SortPriority,
}

// SortKeys returns every supported sort key in display order.
func SortKeys() []SortKey {
	keys := make([]SortKey, len(sortKeys))
	copy(keys, sortKeys)
	return keys
}

func (k SortKey) Valid() bool {
	for _, known := range sortKeys {
		if k == known {
			return true
		}
	}
	return false
}

// Criteria drives Apply. A nil Category or Status disables that filter.
type Criteria struct {
	Search   string  `json:"search"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
	Sort     SortKey `json:"sort"`
}

func DefaultCriteria() Criteria {
	return Criteria{Sort: SortNewest}
}

// IsDefault reports whether c filters nothing and uses the default order.
func (c Criteria) IsDefault() bool {
	return strings.TrimSpace(c.Search) == "" && c.Category == nil && c.Status == nil &&
		(c.Sort == "" || c.Sort == SortNewest)
}

func (c Criteria) Validate() error {
	if c.Sort != "" && !c.Sort.Valid() {
		return fmt.Errorf("unknown sort key %q", c.Sort)
	}
	return nil
}

// Matches reports whether item satisfies every active predicate of c.
func (c Criteria) Matches(item Item) bool {
	if c.Category != nil && item.CatalogCategory() != *c.Category {
		return false
	}
	if c.Status != nil && item.CatalogStatus() != *c.Status {
		return false
	}

	needle := strings.ToLower(strings.TrimSpace(c.Search))
	if needle == "" {
		return true
	}
	for _, field := range item.CatalogText() {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Apply returns the items matching c in c's order. The input slice is never
// modified and the result never aliases it.
func Apply[T Item](items []T, c Criteria) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if c.Matches(item) {
			out = append(out, item)
		}
	}
	sortItems(out, c.Sort)
	return out
}

// sortItems orders items in place. All orderings are stable.
func sortItems[T Item](items []T, key SortKey) {
	switch key {
	case SortOldest:
		sort.SliceStable(items, func(i, j int) bool {
			return dateOf(items[i]).Before(dateOf(items[j]))
		})
	case SortTitleAsc, SortTitleDesc:
		// collate.Collator is not safe for concurrent use.
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			cmp := col.CompareString(items[i].CatalogTitle(), items[j].CatalogTitle())
			if key == SortTitleDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	case SortCompletionAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CatalogCompletion() < items[j].CatalogCompletion()
		})
	case SortCompletionDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CatalogCompletion() > items[j].CatalogCompletion()
		})
	case SortPriority:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CatalogPriority() > items[j].CatalogPriority()
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return dateOf(items[i]).After(dateOf(items[j]))
		})
	}
}

// dateOf treats a missing date as the epoch so undated items sort lowest.
func dateOf(item Item) time.Time {
	if t, ok := item.CatalogDate(); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}
