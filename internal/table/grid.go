package table

import (
	"errors"

	"golang.org/x/text/language"

	"github.com/orvull/omnisia-admin-console/internal/models"
)

var ErrRowNotFound = errors.New("table: row not found")

// Grid is the view state of one listing. It is not safe for concurrent
// use.
type Grid[T Entity] struct {
	columns    ColumnSet
	rows       []T
	meta       models.Meta
	serverSort bool
	sort       Sort
	selected   map[string]struct{}
	hidden     map[string]struct{}
	locale     language.Tag
	actions    *Actions[T]
}

// NewGrid returns an empty grid. With serverSort the rows keep the order
// the backend sent and ToggleSort only computes the next request.
func NewGrid[T Entity](serverSort bool, locale language.Tag, actions *Actions[T]) *Grid[T] {
	if actions == nil {
		actions = NewActions[T](nil)
	}
	return &Grid[T]{
		serverSort: serverSort,
		locale:     locale,
		actions:    actions,
		selected:   make(map[string]struct{}),
		hidden:     make(map[string]struct{}),
	}
}

func (g *Grid[T]) SetColumns(cs ColumnSet) { g.columns = cs }

func (g *Grid[T]) Columns() ColumnSet { return g.columns }

// SetData replaces the row set. Changing page clears the selection;
// otherwise selected ids no longer present are dropped.
func (g *Grid[T]) SetData(rows []T, meta models.Meta) {
	pageChanged := meta.Page != g.meta.Page
	g.rows = rows
	g.meta = meta
	if pageChanged {
		g.ClearSelection()
		return
	}
	present := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		present[r.RowID()] = struct{}{}
	}
	for id := range g.selected {
		if _, ok := present[id]; !ok {
			delete(g.selected, id)
		}
	}
}

func (g *Grid[T]) SetLocale(tag language.Tag) { g.locale = tag }

func (g *Grid[T]) Meta() models.Meta { return g.meta }

// Rows returns the rows in display order.
func (g *Grid[T]) Rows() []T {
	if g.serverSort || !g.sort.Active() {
		return g.rows
	}
	col, _ := g.columns.Lookup(g.sort.Key)
	return SortRows(g.rows, g.sort, col.Type, g.locale)
}

func (g *Grid[T]) Sort() Sort { return g.sort }

// SetSort records the active ordering, e.g. the one a server response was
// produced with.
func (g *Grid[T]) SetSort(s Sort) { g.sort = s }

// ToggleSort applies a header click on key and returns the resulting sort.
// Unknown and non-sortable columns are ignored.
func (g *Grid[T]) ToggleSort(key string) (Sort, bool) {
	col, ok := g.columns.Lookup(key)
	if !ok || !col.Sortable {
		return g.sort, false
	}
	g.sort = g.sort.Next(col)
	return g.sort, true
}

func (g *Grid[T]) ToggleRow(id string) {
	if _, ok := g.selected[id]; ok {
		delete(g.selected, id)
		return
	}
	for _, r := range g.rows {
		if r.RowID() == id {
			g.selected[id] = struct{}{}
			return
		}
	}
}

// SelectAll selects every current row, or clears the selection.
func (g *Grid[T]) SelectAll(checked bool) {
	g.ClearSelection()
	if !checked {
		return
	}
	for _, r := range g.rows {
		g.selected[r.RowID()] = struct{}{}
	}
}

// ToggleAll clears the selection when every row is selected and selects
// every row otherwise.
func (g *Grid[T]) ToggleAll() { g.SelectAll(!g.AllSelected()) }

func (g *Grid[T]) AllSelected() bool {
	if len(g.rows) == 0 {
		return false
	}
	for _, r := range g.rows {
		if _, ok := g.selected[r.RowID()]; !ok {
			return false
		}
	}
	return true
}

func (g *Grid[T]) IsSelected(id string) bool {
	_, ok := g.selected[id]
	return ok
}

func (g *Grid[T]) Selected() []T {
	var out []T
	for _, r := range g.Rows() {
		if _, ok := g.selected[r.RowID()]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (g *Grid[T]) ClearSelection() { clear(g.selected) }

func (g *Grid[T]) ToggleColumn(key string) {
	if _, ok := g.hidden[key]; ok {
		delete(g.hidden, key)
		return
	}
	g.hidden[key] = struct{}{}
}

func (g *Grid[T]) ShowAll() { clear(g.hidden) }

func (g *Grid[T]) HideAll() {
	for _, c := range g.columns.Columns {
		g.hidden[c.Key] = struct{}{}
	}
}

// Visibility reports every column key and whether it is shown.
func (g *Grid[T]) Visibility() map[string]bool {
	out := make(map[string]bool, len(g.columns.Columns))
	for _, c := range g.columns.Columns {
		_, hidden := g.hidden[c.Key]
		out[c.Key] = !hidden
	}
	return out
}

func (g *Grid[T]) VisibleColumns() []Column {
	var out []Column
	for _, c := range g.columns.Columns {
		if _, hidden := g.hidden[c.Key]; !hidden {
			out = append(out, c)
		}
	}
	return out
}

func (g *Grid[T]) PagesWindow() []PageItem {
	return PagesWindow(g.meta.Page, max(1, g.meta.TotalPages))
}

func (g *Grid[T]) Range() (start, end int) { return Range(g.meta) }

// GoTo clamps page to the known page count and reports whether it differs
// from the current page.
func (g *Grid[T]) GoTo(page int) (int, bool) {
	target := Clamp(page, g.meta.TotalPages)
	return target, target != g.meta.Page
}

func (g *Grid[T]) Actions() *Actions[T] { return g.actions }

// Invoke runs action on the row with the given id.
func (g *Grid[T]) Invoke(action Action, id string) error {
	for _, r := range g.rows {
		if r.RowID() == id {
			return g.actions.Invoke(action, r)
		}
	}
	return ErrRowNotFound
}
