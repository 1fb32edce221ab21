// Package query drives paginated listings: cache keys, a stale-while-
// revalidate cache, the per-screen controller and the debounced search
// channel feeding it.
package query

import (
	"fmt"
	"net/url"

	"github.com/orvull/omnisia-admin-console/internal/table"
	"github.com/orvull/omnisia-admin-console/internal/transport"
)

// Key identifies one logical query. Any differing member is a different
// query with its own cache entry and in-flight request.
type Key struct {
	Resource       string
	Locale         string
	Page           int
	Limit          int
	Search         string
	SortKey        string
	SortDir        table.SortDir
	IncludeColumns bool
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d|%d|%s|%s|%s|%t",
		k.Resource, k.Locale, k.Page, k.Limit, k.Search, k.SortKey, k.SortDir, k.IncludeColumns)
}

// Params are the query-string parameters sent for k.
func (k Key) Params() url.Values {
	p := map[string]any{
		"page":   k.Page,
		"limit":  k.Limit,
		"search": k.Search,
		"sort":   k.SortKey,
		"order":  string(k.SortDir),
	}
	if k.IncludeColumns {
		p["include"] = "columns"
	}
	return transport.CleanParams(p)
}

// WithPage returns a copy of k for another page.
func (k Key) WithPage(page int) Key {
	k.Page = page
	return k
}

// Sort is the ordering k requests.
func (k Key) Sort() table.Sort {
	if k.SortKey == "" {
		return table.Sort{}
	}
	return table.Sort{Key: k.SortKey, Dir: k.SortDir}
}
