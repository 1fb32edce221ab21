package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orvull/omnisia-admin-console/internal/auth"
	"github.com/orvull/omnisia-admin-console/internal/config"
	"github.com/orvull/omnisia-admin-console/internal/logging"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/server"
	"github.com/orvull/omnisia-admin-console/internal/storage"
)

func main() {
	cfg := config.Load()
	addr := flag.String("addr", cfg.MockAPIAddr, "listen address")
	seed := flag.String("seed", "", "complete setup with an admin `user:password` and sample roles")
	flag.Parse()

	logger := logging.New(os.Stdout, cfg.Production())
	slog.SetDefault(logger)
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := storage.NewMemory()
	signer := auth.JWTSigner{
		Key:        []byte(cfg.JWTSigningKey),
		TTL:        time.Duration(cfg.JWTTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	srv := server.New(store, signer, logger)

	if *seed != "" {
		if err := seedStore(srv, store, *seed); err != nil {
			slog.Error("failed to seed", "error", err)
			os.Exit(1)
		}
	}

	httpSrv := &http.Server{Addr: *addr, Handler: srv.Router(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("mock admin API listening", "addr", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

var sampleRoles = []models.Role{
	{Name: "ADMIN_ROLE", Description: "Full administration"},
	{Name: "SUPPORT_AGENT", Description: "Handles tickets"},
	{Name: "BILLING_MANAGER", Description: "Invoices and payments"},
	{Name: "AUDITOR", Description: "Read-only access"},
	{Name: "CONTENT_EDITOR", Description: "Publishes content"},
}

func seedStore(srv *server.Server, store *storage.Memory, spec string) error {
	user, pass, ok := strings.Cut(spec, ":")
	if !ok || user == "" || pass == "" {
		return errors.New("seed must be user:password")
	}
	err := srv.Initialize(models.SetupInitializePayload{
		CompanyName:            "Omnisia",
		PrimaryRoleName:        "SUPER_ADMIN",
		PrimaryRoleDescription: "Initial administrator",
		AdminFirstName:         "Admin",
		AdminLastName:          "User",
		AdminUserName:          user,
		AdminPassword:          pass,
	})
	if err != nil {
		return err
	}
	for i := range sampleRoles {
		r := sampleRoles[i]
		if err := store.CreateRole(&r); err != nil {
			return err
		}
	}
	return nil
}
