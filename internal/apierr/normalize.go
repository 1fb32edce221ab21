package apierr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Fields maps a form field name to its messages.
type Fields map[string][]string

func (f Fields) add(field string, msgs ...string) {
	f[field] = append(f[field], msgs...)
}

// FirstField returns the alphabetically first non-general field with a
// usable message, or "".
func (f Fields) FirstField() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		if k != General {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(f[k]) > 0 && usable(f[k][0]) {
			return k
		}
	}
	return ""
}

// First picks the message shown as a toast: the general message, else the
// first field message, else FallbackValidation.
func (f Fields) First() string {
	if msgs := f[General]; len(msgs) > 0 && usable(msgs[0]) {
		return msgs[0]
	}
	if k := f.FirstField(); k != "" {
		return f[k][0]
	}
	return FallbackValidation
}

func usable(msg string) bool {
	return strings.TrimSpace(msg) != "" && msg != "false" && msg != "undefined"
}

// Normalize accepts a decoded JSON error body and returns its messages per
// field. Supported shapes: {errors:[{path,message}]}, a plain string, an
// array of {field|key, message|code|errors|detail} and a field→value map.
func Normalize(body any) Fields {
	out := Fields{}

	if issues, ok := issueList(body); ok {
		for _, issue := range issues {
			field := General
			switch p := issue["path"].(type) {
			case string:
				field = p
			case []any:
				if len(p) > 0 {
					if s, ok := p[0].(string); ok {
						field = s
					}
				}
			}
			out.add(field, scalar(issue["message"]))
		}
		return out
	}

	switch v := body.(type) {
	case string:
		out.add(General, v)
		return out
	case []any:
		for _, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			field := General
			if s, ok := obj["field"].(string); ok && s != "" {
				field = s
			} else if s, ok := obj["key"].(string); ok && s != "" {
				field = s
			}
			var value any = obj
			for _, k := range []string{"message", "code", "errors", "detail"} {
				if x, ok := obj[k]; ok && x != nil {
					value = x
					break
				}
			}
			out.add(field, flatten(value)...)
		}
		return out
	case map[string]any:
		for field, val := range v {
			var msgs []string
			for _, m := range flatten(val) {
				if usable(m) {
					msgs = append(msgs, m)
				}
			}
			if len(msgs) > 0 {
				out[field] = msgs
			}
		}
		return out
	}

	out.add(General, "Unknown error")
	return out
}

// issueList reports whether body is {errors: [...]} with every entry
// carrying both path and message.
func issueList(body any) ([]map[string]any, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := obj["errors"].([]any)
	if !ok {
		return nil, false
	}
	issues := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, false
		}
		_, hasPath := m["path"]
		_, hasMsg := m["message"]
		if !hasPath || !hasMsg {
			return nil, false
		}
		issues = append(issues, m)
	}
	return issues, true
}

func flatten(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		var out []string
		for _, e := range x {
			out = append(out, flatten(e)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, flatten(x[k])...)
		}
		return out
	}
	return []string{scalar(v)}
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
