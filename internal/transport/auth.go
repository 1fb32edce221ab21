// Package transport is the console's HTTP stack: round trippers for
// credentials, locale and request ids, and a small JSON REST client.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when a request is still rejected with 401
// after the credentials were refreshed once.
var ErrUnauthorized = errors.New("transport: unauthorized")

// Endpoints that never carry credentials and never trigger a refresh.
var exemptSuffixes = []string{"auth/login", "auth/refresh", "auth/signup"}

func Exempt(req *http.Request) bool {
	p := strings.TrimSuffix(req.URL.Path, "/")
	for _, s := range exemptSuffixes {
		if p == s || strings.HasSuffix(p, "/"+s) {
			return true
		}
	}
	return false
}

// Tokens reads the current access token.
type Tokens interface {
	Access() string
	IsExpired(token string) bool
}

// Refresher exchanges a stale access token for a fresh one.
type Refresher interface {
	Refresh(ctx context.Context, stale string) (string, error)
}

// Auth attaches the access token as the raw Authorization header, refreshes
// it when it is expired or rejected, and replays the request once.
type Auth struct {
	Base      http.RoundTripper
	Tokens    Tokens
	Refresher Refresher
	Log       *slog.Logger
}

func (a *Auth) base() http.RoundTripper {
	if a.Base != nil {
		return a.Base
	}
	return http.DefaultTransport
}

func (a *Auth) log() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}

func (a *Auth) RoundTrip(req *http.Request) (*http.Response, error) {
	if Exempt(req) {
		return a.base().RoundTrip(req)
	}
	getBody, err := rewindable(req)
	if err != nil {
		return nil, err
	}
	ctx := req.Context()

	token := a.Tokens.Access()
	if token != "" && a.Tokens.IsExpired(token) {
		a.log().Debug("access token expired before request", "method", req.Method, "path", req.URL.Path)
		fresh, err := a.Refresher.Refresh(ctx, token)
		if err != nil {
			return nil, err
		}
		return a.replay(req, getBody, fresh)
	}

	resp, err := a.send(req, getBody, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	a.log().Debug("request rejected with 401, refreshing", "method", req.Method, "path", req.URL.Path)
	fresh, err := a.Refresher.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.replay(req, getBody, fresh)
}

// replay sends req one last time; a 401 here is terminal.
func (a *Auth) replay(req *http.Request, getBody func() (io.ReadCloser, error), token string) (*http.Response, error) {
	resp, err := a.send(req, getBody, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		return nil, fmt.Errorf("%w: %s %s", ErrUnauthorized, req.Method, req.URL.Path)
	}
	return resp, nil
}

func (a *Auth) send(req *http.Request, getBody func() (io.ReadCloser, error), token string) (*http.Response, error) {
	r := req.Clone(req.Context())
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("transport: rewind body: %w", err)
		}
		r.Body = body
	}
	if token != "" {
		r.Header.Set("Authorization", token)
	}
	return a.base().RoundTrip(r)
}

// rewindable returns a function producing a fresh copy of the request body,
// buffering it when the request has no GetBody.
func rewindable(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	buf, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("transport: buffer body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
