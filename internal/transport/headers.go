package transport

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// LocaleSource returns the current locale.
type LocaleSource interface {
	Current() string
}

// Language sets Accept-Language on every request except translation
// assets under /i18n/.
type Language struct {
	Base   http.RoundTripper
	Locale LocaleSource
}

func (l *Language) RoundTrip(req *http.Request) (*http.Response, error) {
	base := l.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if strings.Contains(req.URL.Path, "/i18n/") || req.Header.Get("Accept-Language") != "" {
		return base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Accept-Language", l.Locale.Current())
	return base.RoundTrip(r)
}

const RequestIDHeader = "X-Request-ID"

// RequestID stamps a fresh id on requests that do not carry one.
type RequestID struct {
	Base http.RoundTripper
}

func (t *RequestID) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(RequestIDHeader) != "" {
		return base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, uuid.NewString())
	return base.RoundTrip(r)
}

// Chain builds the console stack: request id, then locale, then
// credentials, over base.
func Chain(base http.RoundTripper, tokens Tokens, refresher Refresher, locale LocaleSource, log *slog.Logger) http.RoundTripper {
	return &RequestID{
		Base: &Language{
			Locale: locale,
			Base:   &Auth{Base: base, Tokens: tokens, Refresher: refresher, Log: log},
		},
	}
}
