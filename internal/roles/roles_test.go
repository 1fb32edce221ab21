package roles

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/orvull/omnisia-admin-console/internal/apierr"
	"github.com/orvull/omnisia-admin-console/internal/i18n"
	"github.com/orvull/omnisia-admin-console/internal/kv"
	"github.com/orvull/omnisia-admin-console/internal/logging"
	"github.com/orvull/omnisia-admin-console/internal/login"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/notify"
	"github.com/orvull/omnisia-admin-console/internal/server/servertest"
	"github.com/orvull/omnisia-admin-console/internal/session"
	"github.com/orvull/omnisia-admin-console/internal/table"
	"github.com/orvull/omnisia-admin-console/internal/transport"
)

type fixture struct {
	backend *servertest.Backend
	locale  *i18n.Locale
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := servertest.Start(t, servertest.Options{Initialized: true})
	log := logging.Discard()
	store := kv.NewMemory()
	locale := i18n.New(store, "es")
	sess := session.NewStore(store, nil)

	public, err := transport.NewClient(b.URL, &transport.Language{Base: http.DefaultTransport, Locale: locale}, time.Second, log)
	if err != nil {
		t.Fatal(err)
	}
	lg := login.New(public, sess, log)
	if _, err := lg.Login(context.Background(), models.LoginRequest{UserName: servertest.AdminUser, Password: servertest.AdminPassword}); err != nil {
		t.Fatal(err)
	}
	coord := session.NewCoordinator(sess, lg.Refresh, notify.NewCenter(nil, log), log)
	api, err := transport.NewClient(b.URL, transport.Chain(http.DefaultTransport, sess, coord, locale, log), time.Second, log)
	if err != nil {
		t.Fatal(err)
	}
	svc := New(api, log)
	svc.WatchLocale(locale)
	return &fixture{backend: b, locale: locale, svc: svc}
}

func TestFormatName(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"  admin role":    "ADMIN_ROLE",
		"support   agent": "SUPPORT_AGENT",
		"editor ":         "EDITOR_",
		"Super\tAdmin":    "SUPER_ADMIN",
	}
	for in, want := range tests {
		if got := FormatName(in); got != want {
			t.Errorf("FormatName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestListUsesBackendColumns(t *testing.T) {
	f := newFixture(t)
	f.backend.Roles(t, "ADMIN_ROLE", "SUPPORT_AGENT")
	ctrl := f.svc.Controller(f.locale, ListOptions{})

	snap, err := ctrl.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Meta.Total != 3 || snap.Meta.Limit != DefaultLimit {
		t.Fatalf("meta = %+v", snap.Meta)
	}
	if snap.Columns.Source != table.Backend {
		t.Fatalf("columns from %v", snap.Columns.Source)
	}
	if _, ok := snap.Columns.Lookup("id"); ok {
		t.Fatal("hidden id column kept")
	}
	if c, _ := snap.Columns.Lookup("name"); c.Label != "Nombre" {
		t.Fatalf("name label = %q", c.Label)
	}
	if c, _ := snap.Columns.Lookup("description"); c.Sortable {
		t.Fatal("description should not be sortable")
	}
}

func TestStaticColumns(t *testing.T) {
	f := newFixture(t)
	ctrl := f.svc.Controller(f.locale, ListOptions{Limit: 5, Static: true})
	snap, err := ctrl.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Columns.Source != table.Static || snap.Key.IncludeColumns {
		t.Fatalf("columns = %v, include = %t", snap.Columns.Source, snap.Key.IncludeColumns)
	}
}

func TestSearchIsSentUpperSnake(t *testing.T) {
	f := newFixture(t)
	f.backend.Roles(t, "ADMIN_ROLE", "SUPPORT_AGENT", "ADMIN_ROLE_READONLY")
	ctrl := f.svc.Controller(f.locale, ListOptions{})
	ctrl.SetSearch("admin role")

	snap, err := ctrl.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Key.Search != "ADMIN_ROLE" || snap.Meta.Total != 2 {
		t.Fatalf("search %q matched %d", snap.Key.Search, snap.Meta.Total)
	}
}

func TestCreateInvalidatesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ctrl := f.svc.Controller(f.locale, ListOptions{})
	if _, err := ctrl.Load(ctx); err != nil {
		t.Fatal(err)
	}

	role, err := f.svc.Create(ctx, models.CreateRolePayload{Name: " support agent", Description: " tickets "})
	if err != nil {
		t.Fatal(err)
	}
	if role.Name != "SUPPORT_AGENT" || role.Description != "tickets" {
		t.Fatalf("role = %+v", role)
	}

	hits := f.backend.Hits("roles")
	snap, err := ctrl.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if f.backend.Hits("roles") != hits+1 || snap.Meta.Total != 2 {
		t.Fatalf("listing not refetched after create (total %d)", snap.Meta.Total)
	}

	_, err = f.svc.Create(ctx, models.CreateRolePayload{Name: "support agent"})
	ve, ok := apierr.Validation(err)
	if !ok || len(ve.Fields["name"]) == 0 {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestCreateValidatesLocally(t *testing.T) {
	f := newFixture(t)
	before := f.backend.Hits("roles")
	_, err := f.svc.Create(context.Background(), models.CreateRolePayload{Name: "admin-role"})
	var ve *apierr.ValidationError
	if !errors.As(err, &ve) || len(ve.Fields["name"]) == 0 {
		t.Fatalf("err = %v", err)
	}
	if f.backend.Hits("roles") != before {
		t.Fatal("invalid role reached the backend")
	}
}

func TestLocaleChangeRefetchesLabels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ctrl := f.svc.Controller(f.locale, ListOptions{})
	if _, err := ctrl.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.locale.Set("en"); err != nil {
		t.Fatal(err)
	}
	snap, err := ctrl.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Key.Locale != "en" {
		t.Fatalf("key locale = %q", snap.Key.Locale)
	}
	if c, _ := snap.Columns.Lookup("name"); c.Label != "Name" {
		t.Fatalf("label after switch = %q", c.Label)
	}
}
