package table

import (
	"cmp"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/orvull/omnisia-admin-console/internal/models"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Sort is a single-column ordering; the zero value means unsorted.
type Sort struct {
	Key string
	Dir SortDir
}

func (s Sort) Active() bool { return s.Key != "" }

// Next is the sort after clicking col: a new column starts ascending, the
// active one flips direction. Non-sortable columns leave s unchanged.
func (s Sort) Next(col Column) Sort {
	if !col.Sortable {
		return s
	}
	if s.Key == col.Key {
		if s.Dir == Asc {
			return Sort{Key: col.Key, Dir: Desc}
		}
		return Sort{Key: col.Key, Dir: Asc}
	}
	return Sort{Key: col.Key, Dir: Asc}
}

// Compare orders two cell values: numbers numerically, instants by time,
// strings with the collator. Any other pair is equal.
func Compare(a, b any, typ models.ColumnType, coll *collate.Collator) int {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp.Compare(x, y)
		}
		return 0
	}
	if x, ok := instant(a, typ); ok {
		if y, ok := instant(b, typ); ok {
			return x.Compare(y)
		}
		return 0
	}
	x, ok1 := a.(string)
	y, ok2 := b.(string)
	if ok1 && ok2 {
		return coll.CompareString(x, y)
	}
	return 0
}

// SortRows returns a stably sorted copy of rows.
func SortRows[T Entity](rows []T, s Sort, typ models.ColumnType, tag language.Tag) []T {
	out := slices.Clone(rows)
	if !s.Active() {
		return out
	}
	coll := collate.New(tag)
	slices.SortStableFunc(out, func(a, b T) int {
		va, _ := a.Field(s.Key)
		vb, _ := b.Field(s.Key)
		c := Compare(va, vb, typ, coll)
		if s.Dir == Desc {
			return -c
		}
		return c
	})
	return out
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}

func instant(v any, typ models.ColumnType) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x != nil {
			return *x, true
		}
	case string:
		if typ == models.ColumnDate {
			if t, err := time.Parse(time.RFC3339, x); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
