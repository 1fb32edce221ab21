// Package servertest starts the development backend on a local
// httptest server for client tests.
package servertest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orvull/omnisia-admin-console/internal/auth"
	"github.com/orvull/omnisia-admin-console/internal/logging"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/server"
	"github.com/orvull/omnisia-admin-console/internal/storage"
)

const (
	AdminUser     = "anagomez"
	AdminPassword = "Sup3r$ecret"
)

// Payload is a setup payload that passes validation.
func Payload() models.SetupInitializePayload {
	return models.SetupInitializePayload{
		CompanyName:            "Omnisia",
		CompanyEmail:           "hello@omnisia.io",
		CompanyPhone:           "6012345",
		CompanyAddress:         "Calle 10 #20-30",
		PrimaryRoleName:        "SUPER_ADMIN",
		PrimaryRoleDescription: "Everything",
		AdminFirstName:         "Ana María",
		AdminLastName:          "Gómez Ruiz",
		AdminIDNumber:          "1020304050",
		AdminUserName:          AdminUser,
		AdminEmail:             "ana@omnisia.io",
		AdminPassword:          AdminPassword,
		AdminPhone:             "3001234567",
	}
}

type Options struct {
	Initialized bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	// Delay is added to every auth/refresh call.
	Delay time.Duration
}

type Backend struct {
	URL    string // base URL including /api
	Server *server.Server
	Store  *storage.Memory
	Signer auth.JWTSigner

	mu   sync.Mutex
	hits map[string]int
}

func Start(t testing.TB, opts Options) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if opts.AccessTTL == 0 {
		opts.AccessTTL = time.Minute
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = time.Hour
	}
	b := &Backend{
		Store:  storage.NewMemory(),
		Signer: auth.JWTSigner{Key: []byte("servertest"), TTL: opts.AccessTTL, RefreshTTL: opts.RefreshTTL},
		hits:   make(map[string]int),
	}
	b.Server = server.New(b.Store, b.Signer, logging.Discard())
	if opts.Initialized {
		if err := b.Server.Initialize(Payload()); err != nil {
			t.Fatal(err)
		}
	}
	router := b.Server.Router()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		b.mu.Lock()
		b.hits[path]++
		b.mu.Unlock()
		if path == "auth/refresh" && opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	b.URL = ts.URL + "/api"
	return b
}

// Hits is how many requests reached path ("roles", "auth/refresh").
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// Roles adds roles directly to the store.
func (b *Backend) Roles(t testing.TB, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := b.Store.CreateRole(&models.Role{Name: n}); err != nil {
			t.Fatal(err)
		}
	}
}

// Expired returns an access token for the admin that is already expired.
func (b *Backend) Expired(t testing.TB) string {
	t.Helper()
	u, err := b.Store.GetUserByName(AdminUser)
	if err != nil {
		t.Fatal(err)
	}
	s := b.Signer
	s.Now = func() time.Time { return time.Now().Add(-2 * s.TTL) }
	tok, err := s.Issue(u.ID, u.UserName, u.Role.Name, u.UserVer)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}
