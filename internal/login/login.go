// Package login signs the console in and out against auth/login and
// exchanges refresh tokens against auth/refresh.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/orvull/omnisia-admin-console/internal/forms"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/session"
	"github.com/orvull/omnisia-admin-console/internal/transport"
)

// ErrMissingCredentials is returned when auth/login answers without a
// complete token pair.
var ErrMissingCredentials = errors.New("login: response carried no credentials")

type Service struct {
	api   *transport.Client
	store *session.Store
	log   *slog.Logger
}

// New expects api to talk to the public endpoints; auth/login and
// auth/refresh never go through the authenticated pipeline.
func New(api *transport.Client, store *session.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{api: api, store: store, log: log}
}

// Login posts the credentials and stores the issued pair.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.User, error) {
	if err := forms.Validate(req); err != nil {
		return models.User{}, err
	}
	var res models.LoginResponse
	if err := s.api.Post(ctx, "auth/login", req, &res); err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		return models.User{}, ErrMissingCredentials
	}
	if err := s.store.SetPair(res.Credentials); err != nil {
		return models.User{}, fmt.Errorf("login: %w", err)
	}
	s.log.Info("signed in", "user", res.User.UserName)
	return res.User, nil
}

// Logout drops the stored pair and returns to the login route.
func (s *Service) Logout() error {
	return s.store.Logout()
}

// Refresh exchanges refreshToken for a new pair. It has the shape of
// session.RefreshFunc.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (models.Credentials, error) {
	var out models.Credentials
	err := s.api.Post(ctx, "auth/refresh", models.RefreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("refresh: %w", err)
	}
	return out, nil
}
