// Package apierr holds the client-side error taxonomy and the normalization
// of backend error payloads into a uniform {field: [messages]} shape.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// General is the field name used for messages not bound to a form control.
	General = "general"

	FallbackValidation = "Validation failed"
	FallbackGeneric    = "Something went wrong, please try again later"
)

// HTTPError is a non-2xx response surfaced to the caller.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fields normalizes the response body.
func (e *HTTPError) Fields() Fields {
	if len(e.Body) == 0 {
		return Fields{}
	}
	var decoded any
	if err := json.Unmarshal(e.Body, &decoded); err != nil {
		return Normalize(strings.TrimSpace(string(e.Body)))
	}
	return Normalize(decoded)
}

// ValidationError carries field-level messages, either produced locally
// before a request is sent or normalized from a 4xx response.
type ValidationError struct {
	Fields Fields
}

func (e *ValidationError) Error() string {
	return e.Fields.First()
}

// Validation converts err into a *ValidationError when it carries a
// 400 or 422 response or already is one.
func Validation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	var he *HTTPError
	if errors.As(err, &he) && (he.StatusCode == http.StatusBadRequest || he.StatusCode == http.StatusUnprocessableEntity) {
		return &ValidationError{Fields: he.Fields()}, true
	}
	return nil, false
}

// Message extracts a user-facing message from any request error: the
// first field-level message, else a general message, else a generic
// fallback.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fields Fields
	var ve *ValidationError
	var he *HTTPError
	switch {
	case errors.As(err, &ve):
		fields = ve.Fields
	case errors.As(err, &he):
		fields = he.Fields()
	default:
		return FallbackGeneric
	}
	if f := fields.FirstField(); f != "" {
		return fields[f][0]
	}
	if msgs := fields[General]; len(msgs) > 0 && usable(msgs[0]) {
		return msgs[0]
	}
	return FallbackGeneric
}
