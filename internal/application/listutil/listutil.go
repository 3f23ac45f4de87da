// Package listutil serves list endpoints over whole documents: the document
// is read once, then searched, sorted and paged in memory.
package listutil

import (
	"cmp"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage is used when per_page is missing or not offered.
const DefaultPerPage = 50

// PerPageOptions are the page sizes a client may ask for.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// Params is a parsed list request: q, the spec's filter keys, sort, dir,
// page and per_page.
type Params struct {
	Search  string
	Filters map[string]string
	Sort    string
	Desc    bool
	Page    int
	PerPage int
}

// PageInfo describes the returned page.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Spec declares what one list endpoint accepts. Columns maps a sort name to
// the value compared; Filters names the exact-match query keys passed through.
type Spec[T any] struct {
	Columns map[string]func(T) string
	Filters []string
}

// Parse reads the list parameters from q. Unknown sort columns and filter
// keys are dropped, and paging falls back to the defaults.
func (s Spec[T]) Parse(q url.Values) Params {
	p := Params{
		Search:  strings.TrimSpace(q.Get("q")),
		Filters: make(map[string]string),
		Desc:    q.Get("dir") == "desc",
		PerPage: DefaultPerPage,
	}
	if _, ok := s.Columns[q.Get("sort")]; ok {
		p.Sort = q.Get("sort")
	}
	for _, key := range s.Filters {
		if v := q.Get(key); v != "" {
			p.Filters[key] = v
		}
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	if n, _ := strconv.Atoi(q.Get("per_page")); slices.Contains(PerPageOptions, n) {
		p.PerPage = n
	}
	return p
}

// Apply keeps the items keep accepts (all when keep is nil), orders them by
// the requested column and returns the requested page. items is not modified.
func (s Spec[T]) Apply(items []T, p Params, keep func(T) bool) ([]T, PageInfo) {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep == nil || keep(it) {
			out = append(out, it)
		}
	}
	if key, ok := s.Columns[p.Sort]; ok {
		slices.SortStableFunc(out, func(a, b T) int {
			c := compareKeys(key(a), key(b))
			if p.Desc {
				return -c
			}
			return c
		})
	}
	info := NewPageInfo(p.Page, p.PerPage, len(out))
	start := (info.Page - 1) * info.PerPage
	end := min(start+info.PerPage, len(out))
	return out[min(start, end):end], info
}

// compareKeys orders integers numerically and everything else
// case-insensitively.
func compareKeys(a, b string) int {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return cmp.Compare(x, y)
	}
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// NewPageInfo clamps page into [1, TotalPages]. An empty list still has one
// page.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max((total+perPage-1)/perPage, 1)
	return PageInfo{
		Page:       min(max(page, 1), pages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}
