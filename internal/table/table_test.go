package table

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/orvull/omnisia-admin-console/internal/logging"
	"github.com/orvull/omnisia-admin-console/internal/models"
)

func TestRecordKeepsKeyOrder(t *testing.T) {
	var r Record
	raw := `{"id":7,"name":"ADMIN","isSystemRole":true,"createdAt":"2024-03-05T10:00:00Z","tags":[1,2]}`
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatal(err)
	}
	if got := r.Keys(); !reflect.DeepEqual(got, []string{"id", "name", "isSystemRole", "createdAt", "tags"}) {
		t.Fatalf("Keys() = %v", got)
	}
	if r.RowID() != "7" {
		t.Fatalf("RowID() = %q", r.RowID())
	}
	if v, _ := r.Field("tags"); !reflect.DeepEqual(v, []any{1.0, 2.0}) {
		t.Fatalf("tags = %#v", v)
	}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != raw {
		t.Fatalf("Marshal() = %s", out)
	}
	if err := json.Unmarshal([]byte(`[1]`), &r); err == nil {
		t.Fatal("array decoded as record")
	}
}

func TestColumnSets(t *testing.T) {
	rec := NewRecord("id", "1", "firstName", "Ana")
	syn := Synthesize(rec)
	if syn.Source != Synthesized || syn.Columns[1].Label != "FirstName" {
		t.Fatalf("Synthesize() = %+v", syn)
	}

	no, yes := false, true
	be := BackendColumns([]models.ColumnSpec{
		{Key: "name", Label: "Nombre"},
		{Key: "secret", Visible: &no},
		{Key: "createdAt", LabelKey: "roles.columns.createdAt", Sortable: &no, Type: models.ColumnDate},
		{Key: "isSystemRole", Visible: &yes},
	})
	if be.Source != Backend {
		t.Fatalf("source = %v", be.Source)
	}
	if got := be.Keys(); !reflect.DeepEqual(got, []string{"name", "createdAt", "isSystemRole"}) {
		t.Fatalf("keys = %v", got)
	}
	created, _ := be.Lookup("createdAt")
	if created.Sortable || created.Label != "roles.columns.createdAt" {
		t.Fatalf("createdAt = %+v", created)
	}
	if sys, _ := be.Lookup("isSystemRole"); sys.Label != "IsSystemRole" || !sys.Sortable {
		t.Fatalf("isSystemRole = %+v", sys)
	}
}

func TestCompare(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b any
		typ  models.ColumnType
		want int
	}{
		{"numbers", 2.0, 10.0, "", -1},
		{"ints", 5, 3, "", 1},
		{"strings by locale", "árbol", "barco", "", -1},
		{"instants", now, now.Add(time.Second), "", -1},
		{"date strings", "2024-02-01T00:00:00Z", "2024-01-01T00:00:00Z", models.ColumnDate, 1},
		{"number vs string", 1.0, "1", "", 0},
		{"bools", true, false, "", 0},
		{"nil", nil, "x", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []Record{NewRecord("id", "a", "v", tt.a), NewRecord("id", "b", "v", tt.b)}
			sorted := SortRows(rows, Sort{Key: "v", Dir: Asc}, tt.typ, language.Spanish)
			first := sorted[0].RowID()
			switch {
			case tt.want <= 0 && first != "a":
				t.Fatalf("order changed for want=%d", tt.want)
			case tt.want > 0 && first != "b":
				t.Fatal("expected b first")
			}
		})
	}
}

func TestSortIsStableAndDescends(t *testing.T) {
	rows := []Record{
		NewRecord("id", "1", "n", 2.0),
		NewRecord("id", "2", "n", 1.0),
		NewRecord("id", "3", "n", 2.0),
		NewRecord("id", "4", "n", "x"),
	}
	got := SortRows(rows, Sort{Key: "n", Dir: Desc}, "", language.English)
	var ids []string
	for _, r := range got {
		ids = append(ids, r.RowID())
	}
	// "x" compares equal to everything, so it keeps its slot relative to
	// its neighbours under a stable sort.
	if ids[0] != "1" || ids[1] != "3" {
		t.Fatalf("order = %v", ids)
	}
	if rows[0].RowID() != "1" || rows[1].RowID() != "2" {
		t.Fatal("input slice was reordered")
	}
}

func TestSortNext(t *testing.T) {
	name := Column{Key: "name", Sortable: true}
	desc := Column{Key: "description"}

	s := Sort{}.Next(name)
	if s != (Sort{Key: "name", Dir: Asc}) {
		t.Fatalf("first click = %+v", s)
	}
	if s = s.Next(name); s.Dir != Desc {
		t.Fatalf("second click = %+v", s)
	}
	if s = s.Next(name); s.Dir != Asc {
		t.Fatalf("third click = %+v", s)
	}
	if got := s.Next(desc); got != s {
		t.Fatalf("non-sortable column changed sort to %+v", got)
	}
}

func pages(items []PageItem) string {
	var parts []string
	for _, p := range items {
		if p.Gap {
			parts = append(parts, "…")
			continue
		}
		parts = append(parts, strconv.Itoa(p.Page))
	}
	return strings.Join(parts, " ")
}

func TestPagesWindow(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{1, 0, "1"},
		{1, 1, "1"},
		{1, 5, "1 2 3 4 5"},
		{5, 5, "1 2 3 4 5"},
		{2, 3, "1 2 3"},
		{1, 6, "1 2 3 … 6"},
		{1, 10, "1 2 3 … 10"},
		{5, 10, "1 … 3 4 5 6 7 … 10"},
		{10, 10, "1 … 8 9 10"},
		{4, 10, "1 2 3 4 5 6 … 10"},
		{99, 10, "1 … 8 9 10"},
	}
	for _, tt := range tests {
		if got := pages(PagesWindow(tt.current, tt.total)); got != tt.want {
			t.Errorf("PagesWindow(%d, %d) = %q, want %q", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		meta       models.Meta
		start, end int
	}{
		{models.Meta{Total: 0, Page: 1, Limit: 10}, 0, 0},
		{models.Meta{Total: 25, Page: 1, Limit: 10}, 1, 10},
		{models.Meta{Total: 25, Page: 3, Limit: 10}, 21, 25},
		{models.Meta{Total: 25, Page: 9, Limit: 10}, 25, 25},
		{models.Meta{Total: 5, Page: 0, Limit: 0}, 1, 5},
	}
	for _, tt := range tests {
		start, end := Range(tt.meta)
		if start != tt.start || end != tt.end {
			t.Errorf("Range(%+v) = %d, %d; want %d, %d", tt.meta, start, end, tt.start, tt.end)
		}
		if start > end || end > tt.meta.Total && tt.meta.Total >= 0 {
			t.Errorf("Range(%+v) broke start <= end <= total", tt.meta)
		}
	}
}

func roleRows() []models.Role {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []models.Role{
		{ID: "r1", Name: "VIEWER", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "r2", Name: "ADMIN", IsSystemRole: true, CreatedAt: base},
		{ID: "r3", Name: "EDITOR", CreatedAt: base.Add(24 * time.Hour)},
	}
}

func newRoleGrid(serverSort bool) *Grid[models.Role] {
	g := NewGrid[models.Role](serverSort, language.English, nil)
	g.SetColumns(StaticColumns(
		Column{Key: "name", Label: "Name", Sortable: true},
		Column{Key: "description", Label: "Description"},
		Column{Key: "createdAt", Label: "Created", Sortable: true, Type: models.ColumnDate},
	))
	g.SetData(roleRows(), models.Meta{Total: 3, Page: 1, Limit: 10, TotalPages: 1})
	return g
}

func ids[T Entity](rows []T) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.RowID()
	}
	return out
}

func TestGridClientSort(t *testing.T) {
	g := newRoleGrid(false)
	if _, ok := g.ToggleSort("description"); ok {
		t.Fatal("non-sortable column toggled")
	}
	g.ToggleSort("name")
	if got := ids(g.Rows()); !reflect.DeepEqual(got, []string{"r2", "r3", "r1"}) {
		t.Fatalf("name asc = %v", got)
	}
	g.ToggleSort("createdAt")
	g.ToggleSort("createdAt")
	if got := ids(g.Rows()); !reflect.DeepEqual(got, []string{"r1", "r3", "r2"}) {
		t.Fatalf("createdAt desc = %v", got)
	}
}

func TestGridServerSortKeepsOrder(t *testing.T) {
	g := newRoleGrid(true)
	s, ok := g.ToggleSort("name")
	if !ok || s != (Sort{Key: "name", Dir: Asc}) {
		t.Fatalf("ToggleSort() = %+v, %v", s, ok)
	}
	if got := ids(g.Rows()); !reflect.DeepEqual(got, []string{"r1", "r2", "r3"}) {
		t.Fatalf("server-sorted rows reordered: %v", got)
	}
}

func TestGridSelection(t *testing.T) {
	g := newRoleGrid(false)
	if g.AllSelected() {
		t.Fatal("empty selection reported all selected")
	}
	g.ToggleRow("r1")
	g.ToggleRow("r2")
	g.ToggleRow("missing")
	if g.AllSelected() {
		t.Fatal("partial selection reported all selected")
	}
	g.ToggleRow("r3")
	if !g.AllSelected() {
		t.Fatal("full selection not detected")
	}
	g.ToggleAll()
	if len(g.Selected()) != 0 {
		t.Fatal("ToggleAll did not clear")
	}
	g.ToggleAll()
	if len(g.Selected()) != 3 {
		t.Fatal("ToggleAll did not select every row")
	}

	g.SetData(roleRows()[:2], models.Meta{Total: 3, Page: 1, Limit: 10, TotalPages: 1})
	if !g.AllSelected() || len(g.Selected()) != 2 {
		t.Fatalf("selection after refetch = %v", ids(g.Selected()))
	}
	g.SetData(roleRows()[2:], models.Meta{Total: 3, Page: 2, Limit: 2, TotalPages: 2})
	if len(g.Selected()) != 0 {
		t.Fatal("selection survived a page change")
	}

	empty := NewGrid[models.Role](false, language.English, nil)
	if empty.AllSelected() {
		t.Fatal("empty grid reported all selected")
	}
}

func TestGridVisibility(t *testing.T) {
	g := newRoleGrid(false)
	g.ToggleColumn("description")
	if got := len(g.VisibleColumns()); got != 2 {
		t.Fatalf("visible = %d", got)
	}
	if g.Visibility()["description"] {
		t.Fatal("description still visible")
	}
	g.HideAll()
	if len(g.VisibleColumns()) != 0 {
		t.Fatal("HideAll left columns")
	}
	g.ShowAll()
	if len(g.VisibleColumns()) != 3 {
		t.Fatal("ShowAll did not restore")
	}
	if len(g.Rows()) != 3 {
		t.Fatal("hiding columns changed rows")
	}
}

func TestGridGoTo(t *testing.T) {
	g := newRoleGrid(false)
	g.SetData(roleRows(), models.Meta{Total: 30, Page: 2, Limit: 10, TotalPages: 3})
	if p, changed := g.GoTo(9); p != 3 || !changed {
		t.Fatalf("GoTo(9) = %d, %v", p, changed)
	}
	if p, changed := g.GoTo(2); p != 2 || changed {
		t.Fatalf("GoTo(2) = %d, %v", p, changed)
	}
	if p, _ := g.GoTo(-1); p != 1 {
		t.Fatalf("GoTo(-1) = %d", p)
	}
}

func TestActions(t *testing.T) {
	var edited, deleted string
	acts := NewActions[models.Role](logging.Discard()).
		On(Edit, func(r models.Role) error { edited = r.ID; return nil }).
		On(Delete, func(r models.Role) error { deleted = r.ID; return nil })
	g := NewGrid(false, language.English, acts)
	g.SetData(roleRows(), models.Meta{Total: 3, Page: 1, Limit: 10, TotalPages: 1})

	if err := g.Invoke(Edit, "r2"); err != nil || edited != "r2" {
		t.Fatalf("edit: %v, %q", err, edited)
	}
	if err := g.Invoke(Delete, "r3"); err != nil || deleted != "r3" {
		t.Fatalf("delete: %v, %q", err, deleted)
	}
	if err := g.Invoke("archive", "r1"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("archive: %v", err)
	}
	if err := g.Invoke(Edit, "nope"); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("missing row: %v", err)
	}
	if items := acts.Items(roleRows()[0]); len(items) != 3 || items[2].Key != Delete {
		t.Fatalf("default items = %+v", items)
	}
}

func TestFormatCell(t *testing.T) {
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		key  string
		v    any
		lang string
		want string
	}{
		{"isSystemRole", true, "es", "Sí"},
		{"isSystemRole", true, "en", "Yes"},
		{"isSystemRole", false, "en", "No"},
		{"id", "9f1c2d3e-aaaa-bbbb", "en", "9f1c2d3e..."},
		{"id", "short", "en", "short"},
		{"name", "SUPER_ADMIN", "en", "Super Admin"},
		{"createdAt", "2024-03-05T10:00:00Z", "en", "2024/03/05"},
		{"createdAt", "2024/03/05", "en", "2024/03/05"},
		{"createdAt", created, "en", "2024/03/05"},
		{"createdAt", float64(created.UnixMilli()), "en", "2024/03/05"},
		{"count", 42.0, "en", "42"},
		{"description", "Full access", "en", "Full access"},
		{"description", nil, "en", ""},
	}
	for _, tt := range tests {
		if got := FormatCell(tt.key, tt.v, tt.lang); got != tt.want {
			t.Errorf("FormatCell(%q, %v) = %q, want %q", tt.key, tt.v, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	g := newRoleGrid(false)
	g.ToggleSort("name")
	g.ToggleRow("r2")

	var buf bytes.Buffer
	if err := Render(&buf, g, "en"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Name ^", "Admin", "2024/03/01", "1-3 / 3", "[1]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[1], "*") {
		t.Fatalf("selected row not marked first:\n%s", out)
	}
}
