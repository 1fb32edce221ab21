package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/orvull/omnisia-admin-console/internal/apierr"
)

const maxErrorBody = 1 << 20

// Client issues JSON requests against the admin API base URL.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

func NewClient(baseURL string, rt http.RoundTripper, timeout time.Duration, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("transport: base url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base: u,
		http: &http.Client{Transport: rt, Timeout: timeout},
		log:  log,
	}, nil
}

// URL resolves path against the base URL.
func (c *Client) URL(path string, params url.Values) string {
	u := c.base.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends in as JSON and decodes a 2xx body into out. Other statuses come
// back as *apierr.HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("transport: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}
	target := c.URL(path, params)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("transport: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apierr.HTTPError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: raw}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("transport: decode %s %s: %w", method, path, err)
	}
	return nil
}

// CleanParams turns a parameter map into query values, dropping nil,
// nil pointers and empty strings.
func CleanParams(params map[string]any) url.Values {
	out := url.Values{}
	for k, v := range params {
		if s, ok := format(v); ok {
			out.Set(k, s)
		}
	}
	return out
}

func format(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return format(rv.Elem().Interface())
	}
	switch x := v.(type) {
	case string:
		return x, x != ""
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	case fmt.Stringer:
		s := x.String()
		return s, s != ""
	}
	s := fmt.Sprint(v)
	return s, s != ""
}
