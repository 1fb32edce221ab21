package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/orvull/omnisia-admin-console/internal/models"
)

func TestUsers(t *testing.T) {
	m := NewMemory()
	u := &models.User{UserName: "ana"}
	if err := m.CreateUser(u); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateUser(&models.User{UserName: "ana"}); !errors.Is(err, ErrUserExists) {
		t.Fatalf("duplicate = %v", err)
	}
	got, err := m.GetUserByID(u.ID)
	if err != nil || got.UserName != "ana" {
		t.Fatalf("by id = %+v, %v", got, err)
	}
	got.UserName = "changed"
	if again, _ := m.GetUserByName("ana"); again.UserName != "ana" {
		t.Fatal("getter returned shared pointer")
	}
	if _, err := m.GetUserByName("bob"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing = %v", err)
	}
}

func TestRefreshTokens(t *testing.T) {
	m := NewMemory()
	a := &models.RefreshToken{UserID: "u1", Token: "a"}
	b := &models.RefreshToken{UserID: "u1", Token: "b"}
	m.CreateRefresh(a)
	m.CreateRefresh(b)

	if err := m.RevokeRefresh(a.ID); err != nil {
		t.Fatal(err)
	}
	if rt, _ := m.GetRefresh("a"); !rt.Revoked {
		t.Fatal("a not revoked")
	}
	if err := m.RevokeRefresh(a.ID); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("second revoke = %v, want ErrRefreshRevoked", err)
	}
	if err := m.RevokeRefresh("missing"); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("unknown revoke = %v, want ErrRefreshNotFound", err)
	}
	if rt, _ := m.GetRefresh("b"); rt.Revoked {
		t.Fatal("b revoked with a")
	}
	m.RevokeAllUserRefresh("u1")
	if rt, _ := m.GetRefresh("b"); !rt.Revoked {
		t.Fatal("b not revoked")
	}
	if _, err := m.GetRefresh("c"); !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("missing = %v", err)
	}
}

func TestListRoles(t *testing.T) {
	m := NewMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Hour) }

	for _, r := range []models.Role{
		{Name: "SUPPORT", Description: "tickets"},
		{Name: "ADMIN_ROLE", Description: "everything", IsSystemRole: true},
		{Name: "BILLING", Description: "admin of invoices"},
		{Name: "AUDITOR"},
	} {
		if err := m.CreateRole(&r); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.CreateRole(&models.Role{Name: "AUDITOR"}); !errors.Is(err, ErrRoleExists) {
		t.Fatalf("duplicate = %v", err)
	}

	names := func(rs []models.Role) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Name
		}
		return out
	}
	eq := func(got []models.Role, want ...string) {
		t.Helper()
		g := names(got)
		if len(g) != len(want) {
			t.Fatalf("got %v, want %v", g, want)
		}
		for i := range g {
			if g[i] != want[i] {
				t.Fatalf("got %v, want %v", g, want)
			}
		}
	}

	rows, total := m.ListRoles(RoleQuery{})
	eq(rows, "SUPPORT", "ADMIN_ROLE", "BILLING", "AUDITOR")
	if total != 4 {
		t.Fatalf("total = %d", total)
	}

	rows, total = m.ListRoles(RoleQuery{Search: "admin"})
	eq(rows, "ADMIN_ROLE", "BILLING")
	if total != 2 {
		t.Fatalf("search total = %d", total)
	}

	rows, _ = m.ListRoles(RoleQuery{Sort: "name", Offset: 1, Limit: 2})
	eq(rows, "AUDITOR", "BILLING")

	rows, _ = m.ListRoles(RoleQuery{Sort: "createdAt", Desc: true, Limit: 1})
	eq(rows, "AUDITOR")

	rows, total = m.ListRoles(RoleQuery{Offset: 10, Limit: 5})
	if len(rows) != 0 || total != 4 {
		t.Fatalf("past the end = %v, %d", names(rows), total)
	}
}

func TestCompleteSetup(t *testing.T) {
	m := NewMemory()
	if !m.NeedsSetup() {
		t.Fatal("fresh store does not need setup")
	}
	role := &models.Role{Name: "SUPER_ADMIN", IsSystemRole: true}
	admin := &models.User{UserName: "ana"}
	if err := m.CompleteSetup(role, admin); err != nil {
		t.Fatal(err)
	}
	if m.NeedsSetup() {
		t.Fatal("still needs setup")
	}
	u, err := m.GetUserByName("ana")
	if err != nil || u.Role.Name != "SUPER_ADMIN" || u.Role.ID != role.ID {
		t.Fatalf("admin = %+v, %v", u, err)
	}
	if err := m.CompleteSetup(&models.Role{Name: "X"}, &models.User{UserName: "bob"}); !errors.Is(err, ErrAlreadySetup) {
		t.Fatalf("second setup = %v", err)
	}
}
