// Package console wires the client components into one application.
package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/orvull/omnisia-admin-console/internal/config"
	"github.com/orvull/omnisia-admin-console/internal/i18n"
	"github.com/orvull/omnisia-admin-console/internal/kv"
	"github.com/orvull/omnisia-admin-console/internal/login"
	"github.com/orvull/omnisia-admin-console/internal/notify"
	"github.com/orvull/omnisia-admin-console/internal/roles"
	"github.com/orvull/omnisia-admin-console/internal/session"
	"github.com/orvull/omnisia-admin-console/internal/setup"
	"github.com/orvull/omnisia-admin-console/internal/transport"
)

type App struct {
	Config config.Config
	Log    *slog.Logger

	Locale      *i18n.Locale
	Toasts      *notify.Center
	Session     *session.Store
	Coordinator *session.Coordinator
	// Tokens is the shared oauth2 view of the session.
	Tokens *session.TokenSource

	// Public carries locale and request id only; API adds credentials.
	Public *transport.Client
	API    *transport.Client

	Login *login.Service
	Roles *roles.Service
	Setup *setup.Service

	mu     sync.Mutex
	route  string
	closer io.Closer
}

// Open builds the application. base is the innermost transport; nil
// means http.DefaultTransport.
func Open(cfg config.Config, out io.Writer, log *slog.Logger, base http.RoundTripper) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	if base == nil {
		base = http.DefaultTransport
	}
	durable, closer, err := OpenStorage(cfg)
	if err != nil {
		return nil, err
	}
	store := kv.ExecutionContext{Interactive: cfg.Interactive}.Storage(durable)

	a := &App{Config: cfg, Log: log, closer: closer}
	a.Locale = i18n.New(store, cfg.Lang)
	a.Toasts = notify.NewCenter(out, log)
	a.Session = session.NewStore(store, session.NavigatorFunc(a.navigate))

	public := &transport.RequestID{Base: &transport.Language{Base: base, Locale: a.Locale}}
	if a.Public, err = transport.NewClient(cfg.APIBaseURL, public, cfg.APITimeout, log); err != nil {
		a.Close()
		return nil, err
	}
	a.Login = login.New(a.Public, a.Session, log)
	a.Coordinator = session.NewCoordinator(a.Session, a.Login.Refresh, a.Toasts, log)
	a.Tokens = a.Coordinator.TokenSource(context.Background())

	rt := transport.Chain(base, a.Session, a.Coordinator, a.Locale, log)
	if a.API, err = transport.NewClient(cfg.APIBaseURL, rt, cfg.APITimeout, log); err != nil {
		a.Close()
		return nil, err
	}
	a.Roles = roles.New(a.API, log)
	a.Roles.WatchLocale(a.Locale)
	a.Setup = setup.New(a.Public, log)
	return a, nil
}

// OpenStorage opens the durable store named by SESSION_BACKEND. The
// closer may be nil.
func OpenStorage(cfg config.Config) (kv.Store, io.Closer, error) {
	switch cfg.SessionBackend {
	case "memory":
		return kv.NewMemory(), nil, nil
	case "redis":
		r, err := kv.OpenRedis(cfg.RedisAddr, cfg.RedisPass, int(cfg.RedisDB), "omnisia:console:")
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	case "file", "":
		path := cfg.SessionFile
		if path == "" {
			path = kv.DefaultPath()
		}
		f, err := kv.OpenFile(path)
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	}
	return nil, nil, fmt.Errorf("console: unknown session backend %q", cfg.SessionBackend)
}

func (a *App) navigate(route string) {
	a.mu.Lock()
	a.route = route
	a.mu.Unlock()
	a.Log.Debug("navigate", "route", route)
}

// Route is the last route the console was sent to.
func (a *App) Route() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
