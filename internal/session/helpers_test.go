package session

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/orvull/omnisia-admin-console/internal/kv"
	"github.com/orvull/omnisia-admin-console/internal/logging"
	"github.com/orvull/omnisia-admin-console/internal/notify"
)

func signed(t testing.TB, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"exp": exp.Unix(),
		"jti": uuid.NewString(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

type recordedToasts struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordedToasts) Show(text string, _ notify.Kind, _ time.Duration) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return int64(len(r.texts))
}

func (r *recordedToasts) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

type recordedRoutes struct {
	mu     sync.Mutex
	routes []string
}

func (r *recordedRoutes) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recordedRoutes) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

type fixture struct {
	store   *Store
	toasts  *recordedToasts
	routes  *recordedRoutes
	coord   *Coordinator
	refresh RefreshFunc
}

func newFixture(refresh RefreshFunc) *fixture {
	f := &fixture{toasts: &recordedToasts{}, routes: &recordedRoutes{}}
	f.store = NewStore(kv.NewMemory(), f.routes)
	f.coord = NewCoordinator(f.store, refresh, f.toasts, logging.Discard())
	return f
}
