// Package setup drives the first-run wizard: whether the backend still
// needs initializing, and the initialize call itself.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orvull/omnisia-admin-console/internal/forms"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/transport"
)

const StatusTimeout = 5 * time.Second

const (
	RouteSetup = "/setup"
	RouteAdmin = "/admin"
	RouteLogin = "/auth/login"
)

// Session reports the stored access token and whether it is expired.
type Session interface {
	Access() string
	IsExpired(token string) bool
}

type Service struct {
	api *transport.Client
	log *slog.Logger
}

func New(api *transport.Client, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{api: api, log: log}
}

// NeedsSetup asks the backend whether initialization is still pending.
func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, StatusTimeout)
	defer cancel()

	var st models.SetupStatus
	if err := s.api.Get(ctx, "setup/status", nil, &st); err != nil {
		return false, fmt.Errorf("setup status: %w", err)
	}
	return st.Data.NeedsSetup, nil
}

// Initialize validates the wizard payload and submits it.
func (s *Service) Initialize(ctx context.Context, p models.SetupInitializePayload) (models.SetupInitializeResponse, error) {
	if err := forms.Validate(&p); err != nil {
		return models.SetupInitializeResponse{}, err
	}
	var res models.SetupInitializeResponse
	if err := s.api.Post(ctx, "setup/initialize", p, &res); err != nil {
		return models.SetupInitializeResponse{}, fmt.Errorf("setup initialize: %w", err)
	}
	s.log.Info("setup initialized", "company", p.CompanyName, "admin", p.AdminUserName)
	return res, nil
}

// Landing picks the route the console opens on: the wizard while setup
// is pending, the admin area for a live session, the login otherwise. A
// failed status check lands on the login.
func (s *Service) Landing(ctx context.Context, sess Session) string {
	needs, err := s.NeedsSetup(ctx)
	if err != nil {
		s.log.Warn("setup status unavailable", "error", err)
		return RouteLogin
	}
	if needs {
		return RouteSetup
	}
	if tok := sess.Access(); tok != "" && !sess.IsExpired(tok) {
		return RouteAdmin
	}
	return RouteLogin
}

// CanEnter reports whether the wizard may be opened.
func (s *Service) CanEnter(ctx context.Context) bool {
	needs, err := s.NeedsSetup(ctx)
	return err == nil && needs
}
