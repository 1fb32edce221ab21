package session

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// TokenSource exposes the session as an oauth2.TokenSource. Tokens are
// cached until they near expiry or the stored access token changes, and
// refreshed through the coordinator when missing or expired. Keep one per
// session and share it.
type TokenSource struct {
	inner *sessionTokens

	mu    sync.Mutex
	reuse oauth2.TokenSource
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

type sessionTokens struct {
	ctx context.Context
	c   *Coordinator
}

func (c *Coordinator) TokenSource(ctx context.Context) *TokenSource {
	inner := &sessionTokens{ctx: ctx, c: c}
	return &TokenSource{inner: inner, reuse: oauth2.ReuseTokenSource(nil, inner)}
}

func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	tok, err := ts.reuse.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == ts.inner.c.store.Access() {
		return tok, nil
	}
	// logout, login or a refresh elsewhere replaced the cached token
	ts.reuse = oauth2.ReuseTokenSource(nil, ts.inner)
	return ts.reuse.Token()
}

func (ts *sessionTokens) Token() (*oauth2.Token, error) {
	access := ts.c.store.Access()
	if access == "" || ts.c.store.IsExpired(access) {
		var err error
		if access, err = ts.c.Refresh(ts.ctx, access); err != nil {
			return nil, err
		}
	}
	exp, err := Expiry(access)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, Expiry: exp}, nil
}
