package table

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orvull/omnisia-admin-console/internal/models"
)

type Column struct {
	Key      string
	Label    string
	Sortable bool
	Type     models.ColumnType
	Format   string
}

// Source tells where a column set came from.
type Source int

const (
	None Source = iota
	Static
	Synthesized
	Backend
)

func (s Source) String() string {
	switch s {
	case Static:
		return "static"
	case Synthesized:
		return "synthesized"
	case Backend:
		return "backend"
	}
	return "none"
}

// ColumnSet is resolved as a whole from one source; sets are never merged.
type ColumnSet struct {
	Source  Source
	Columns []Column
}

func StaticColumns(cols ...Column) ColumnSet {
	if len(cols) == 0 {
		return ColumnSet{}
	}
	return ColumnSet{Source: Static, Columns: cols}
}

// BackendColumns maps column specs sent by the API. Specs marked
// invisible are dropped and sortable defaults to true.
func BackendColumns(specs []models.ColumnSpec) ColumnSet {
	cols := make([]Column, 0, len(specs))
	for _, s := range specs {
		if s.Visible != nil && !*s.Visible {
			continue
		}
		label := s.Label
		if label == "" {
			label = s.LabelKey
		}
		if label == "" {
			label = Capitalize(s.Key)
		}
		cols = append(cols, Column{
			Key:      s.Key,
			Label:    label,
			Sortable: s.Sortable == nil || *s.Sortable,
			Type:     s.Type,
			Format:   s.Format,
		})
	}
	return ColumnSet{Source: Backend, Columns: cols}
}

// Synthesize derives columns from the keys of a sample row.
func Synthesize(sample Entity) ColumnSet {
	keys := sample.Keys()
	cols := make([]Column, 0, len(keys))
	for _, k := range keys {
		cols = append(cols, Column{Key: k, Label: Capitalize(k), Sortable: true})
	}
	return ColumnSet{Source: Synthesized, Columns: cols}
}

func (s ColumnSet) Empty() bool { return len(s.Columns) == 0 }

func (s ColumnSet) Lookup(key string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

func (s ColumnSet) Keys() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Key
	}
	return out
}

// Capitalize upper-cases the first letter of key.
func Capitalize(key string) string {
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}

// TitleCase turns SUPER_ADMIN into "Super Admin".
func TitleCase(s string) string {
	parts := strings.Split(s, "_")
	words := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		words = append(words, Capitalize(strings.ToLower(p)))
	}
	return strings.Join(words, " ")
}
