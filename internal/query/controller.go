package query

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/table"
)

// LocaleSource returns the current locale.
type LocaleSource interface {
	Current() string
}

type Options struct {
	Resource       string
	Limit          int
	IncludeColumns bool
	Normalize      Normalizer
	// Columns is the static column set; empty means columns are
	// synthesized from the first row.
	Columns table.ColumnSet
}

// Snapshot is what a screen renders.
type Snapshot[T any] struct {
	Key     Key
	Rows    []T
	Meta    models.Meta
	Columns table.ColumnSet
	Loading bool
	Err     error
}

// Controller owns the paging, sorting and search state of one listing.
// While a new query is in flight the previous rows stay in place; a
// response is applied only if its key is still the latest requested.
type Controller[T table.Entity] struct {
	fetch  Fetcher[T]
	cache  *Cache[T]
	locale LocaleSource
	log    *slog.Logger
	opts   Options

	mu      sync.Mutex
	page    int
	limit   int
	search  string
	sort    table.Sort
	latest  Key
	rows    []T
	meta    models.Meta
	columns table.ColumnSet
	loading bool
	err     error

	prefetch sync.WaitGroup
}

func NewController[T table.Entity](fetch Fetcher[T], cache *Cache[T], locale LocaleSource, log *slog.Logger, opts Options) *Controller[T] {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Normalize == nil {
		opts.Normalize = Verbatim
	}
	if cache == nil {
		cache = NewCache[T](0, 0)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller[T]{
		fetch:   fetch,
		cache:   cache,
		locale:  locale,
		log:     log,
		opts:    opts,
		page:    1,
		limit:   opts.Limit,
		columns: opts.Columns,
	}
}

// key must be called with c.mu held.
func (c *Controller[T]) key() Key {
	k := Key{
		Resource:       c.opts.Resource,
		Page:           c.page,
		Limit:          c.limit,
		Search:         c.opts.Normalize(c.search),
		SortKey:        c.sort.Key,
		SortDir:        c.sort.Dir,
		IncludeColumns: c.opts.IncludeColumns,
	}
	if k.SortDir == "" {
		k.SortDir = table.Asc
	}
	if c.locale != nil {
		k.Locale = c.locale.Current()
	}
	return k
}

func (c *Controller[T]) Key() Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key()
}

// Load fetches the current query and applies the response.
func (c *Controller[T]) Load(ctx context.Context) (Snapshot[T], error) {
	c.mu.Lock()
	key := c.key()
	c.latest = key
	c.loading = true
	c.mu.Unlock()

	page, err := c.cache.Fetch(ctx, key, c.fetch)

	c.mu.Lock()
	if key != c.latest {
		// superseded by a newer Load
		snap := c.snapshot()
		c.mu.Unlock()
		return snap, nil
	}
	c.loading = false
	if err != nil {
		c.err = err
		snap := c.snapshot()
		c.mu.Unlock()
		return snap, err
	}
	c.apply(page)

	if c.page > max(1, page.Meta.TotalPages) {
		c.log.Debug("page beyond last page, resetting", "resource", key.Resource, "page", c.page, "totalPages", page.Meta.TotalPages)
		c.page = 1
		c.mu.Unlock()
		return c.Load(ctx)
	}
	snap := c.snapshot()
	c.mu.Unlock()

	c.prefetchAdjacent(ctx, key, page.Meta)
	return snap, nil
}

// apply must be called with c.mu held.
func (c *Controller[T]) apply(page models.Page[T]) {
	c.err = nil
	c.rows = page.Data
	c.meta = page.Meta
	switch {
	case len(page.Columns) > 0:
		c.columns = table.BackendColumns(page.Columns)
	case c.columns.Empty() && len(page.Data) > 0:
		c.columns = table.Synthesize(page.Data[0])
	}
}

func (c *Controller[T]) prefetchAdjacent(ctx context.Context, key Key, meta models.Meta) {
	var adjacent []Key
	if key.Page < meta.TotalPages {
		adjacent = append(adjacent, key.WithPage(key.Page+1))
	}
	if key.Page > 1 {
		adjacent = append(adjacent, key.WithPage(key.Page-1))
	}
	if len(adjacent) == 0 {
		return
	}
	bg := context.WithoutCancel(ctx)
	c.prefetch.Add(1)
	go func() {
		defer c.prefetch.Done()
		var g errgroup.Group
		for _, k := range adjacent {
			g.Go(func() error {
				_, err := c.cache.Fetch(bg, k, c.fetch)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			c.log.Debug("prefetch failed", "resource", key.Resource, "error", err)
		}
	}()
}

// WaitPrefetch blocks until background prefetches have finished.
func (c *Controller[T]) WaitPrefetch() { c.prefetch.Wait() }

// snapshot must be called with c.mu held.
func (c *Controller[T]) snapshot() Snapshot[T] {
	return Snapshot[T]{
		Key:     c.latest,
		Rows:    c.rows,
		Meta:    c.meta,
		Columns: c.columns,
		Loading: c.loading,
		Err:     c.err,
	}
}

func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Controller[T]) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = max(1, page)
}

func (c *Controller[T]) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.meta.TotalPages == 0 || c.page < c.meta.TotalPages {
		c.page++
	}
}

func (c *Controller[T]) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page = max(1, c.page-1)
}

// SetLimit changes the page size and returns to the first page.
func (c *Controller[T]) SetLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > 0 && limit != c.limit {
		c.limit = limit
		c.page = 1
	}
}

// SetSort sets the server-side ordering; the zero Sort clears it.
func (c *Controller[T]) SetSort(s table.Sort) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Active() && s.Dir == "" {
		s.Dir = table.Asc
	}
	c.sort = s
}

// SetSorting takes a multi-column sorting list; only the first entry is
// sent to the backend.
func (c *Controller[T]) SetSorting(list []table.Sort) {
	if len(list) == 0 {
		c.SetSort(table.Sort{})
		return
	}
	c.SetSort(list[0])
}

// SetSearch takes the debounced term. A new term returns to the first
// page.
func (c *Controller[T]) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if term != c.search {
		c.search = term
		c.page = 1
	}
}

func (c *Controller[T]) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// ResetColumns drops backend or synthesized columns, returning to the
// static set, so the next response establishes them again.
func (c *Controller[T]) ResetColumns() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.columns = c.opts.Columns
}

// Invalidate marks every cached page of the resource stale.
func (c *Controller[T]) Invalidate() {
	c.cache.Invalidate(c.opts.Resource)
}
