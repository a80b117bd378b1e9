package catalog

import (
	"net/url"
	"strings"
)

// Query string parameter names used by listing pages.
const (
	ParamSearch   = "q"
	ParamCategory = "category"
	ParamStatus   = "status"
	ParamSort     = "sort"
)

// All is the filter value that disables a category or status filter.
const All = "All"

// ParseCriteria reads criteria from a listing URL's query string. Missing
// values fall back to the defaults. An unknown sort key is an error.
func ParseCriteria(values url.Values) (Criteria, error) {
	c := DefaultCriteria()
	c.Search = strings.TrimSpace(values.Get(ParamSearch))
	c.Category = filterValue(values.Get(ParamCategory))
	c.Status = filterValue(values.Get(ParamStatus))

	if sort := strings.TrimSpace(values.Get(ParamSort)); sort != "" {
		c.Sort = SortKey(strings.ToLower(sort))
	}
	if err := c.Validate(); err != nil {
		return DefaultCriteria(), err
	}
	return c, nil
}

func filterValue(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, All) {
		return nil
	}
	return &raw
}

// Values encodes c for a URL. Default values are omitted, so the default
// criteria encode to an empty query.
func (c Criteria) Values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(c.Search); s != "" {
		v.Set(ParamSearch, s)
	}
	if c.Category != nil {
		v.Set(ParamCategory, *c.Category)
	}
	if c.Status != nil {
		v.Set(ParamStatus, *c.Status)
	}
	if c.Sort != "" && c.Sort != SortNewest {
		v.Set(ParamSort, string(c.Sort))
	}
	return v
}

// Query is the encoded query string of c, without the leading '?'.
func (c Criteria) Query() string {
	return c.Values().Encode()
}
