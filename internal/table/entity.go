// Package table is the grid contract shared by every listing: column
// sets, client sort, selection, visibility, row actions and pagination.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Entity is a row with a stable id and named fields.
type Entity interface {
	RowID() string
	// Keys lists the field names in their natural order.
	Keys() []string
	Field(key string) (any, bool)
}

// Record is a JSON object row that keeps its key order. Numbers decode as
// float64.
type Record struct {
	keys   []string
	values map[string]any
}

var _ Entity = Record{}

func NewRecord(kv ...any) Record {
	r := Record{values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return r
}

func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r Record) Keys() []string { return r.keys }

func (r Record) Field(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r Record) RowID() string {
	switch v := r.values["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("table: record must be a JSON object")
	}
	*r = Record{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return err
		}
		r.Set(key, numbers(v))
	}
	_, err = dec.Token()
	return err
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// numbers converts json.Number values, including nested ones, to float64.
func numbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return f
	case []any:
		for i := range x {
			x[i] = numbers(x[i])
		}
	case map[string]any:
		for k := range x {
			x[k] = numbers(x[k])
		}
	}
	return v
}
