// Package storage keeps the development backend state in memory.
package storage

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orvull/omnisia-admin-console/internal/models"
)

var (
	// ErrUserExists is returned when attempting to create a user with an existing user name.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a user cannot be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrRefreshNotFound is returned when a refresh token cannot be located.
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrRefreshRevoked  = errors.New("refresh token already revoked")
	ErrRoleExists      = errors.New("role already exists")
	ErrAlreadySetup    = errors.New("setup already completed")
)

// RoleQuery selects one page of roles. Offset and Limit are applied
// after filtering and sorting.
type RoleQuery struct {
	Search string
	Sort   string
	Desc   bool
	Offset int
	Limit  int
}

// Memory is a thread-safe in-memory store for tests and local runs.
type Memory struct {
	mu sync.RWMutex

	usersByName map[string]*models.User
	usersByID   map[string]*models.User

	refreshByToken map[string]*models.RefreshToken // key: signed token

	roles     []*models.Role
	setupDone bool
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		usersByName:    make(map[string]*models.User),
		usersByID:      make(map[string]*models.User),
		refreshByToken: make(map[string]*models.RefreshToken),
		now:            time.Now,
	}
}

// ---------- Users ----------

func (m *Memory) CreateUser(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createUser(u)
}

func (m *Memory) createUser(u *models.User) error {
	if _, exists := m.usersByName[u.UserName]; exists {
		return ErrUserExists
	}
	u.ID = uuid.NewString()
	now := m.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	// callers get copies via getters
	cp := *u
	m.usersByName[u.UserName] = &cp
	m.usersByID[u.ID] = &cp
	return nil
}

func (m *Memory) GetUserByName(name string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByName[name]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) GetUserByID(id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// ---------- Refresh Tokens ----------

func (m *Memory) CreateRefresh(rt *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	cp := *rt
	m.refreshByToken[rt.Token] = &cp
	return nil
}

func (m *Memory) GetRefresh(token string) (*models.RefreshToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rt, ok := m.refreshByToken[token]
	if !ok {
		return nil, ErrRefreshNotFound
	}
	cp := *rt
	return &cp, nil
}

// RevokeRefresh marks the token revoked. Only the first caller for a
// given token succeeds, which makes it the point where rotation is won.
func (m *Memory) RevokeRefresh(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.refreshByToken {
		if v.ID != id {
			continue
		}
		if v.Revoked {
			return ErrRefreshRevoked
		}
		v.Revoked = true
		return nil
	}
	return ErrRefreshNotFound
}

func (m *Memory) RevokeAllUserRefresh(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.refreshByToken {
		if v.UserID == userID {
			v.Revoked = true
		}
	}
	return nil
}

// ---------- Roles ----------

func (m *Memory) CreateRole(r *models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createRole(r)
}

// createRole must be called with m.mu held.
func (m *Memory) createRole(r *models.Role) error {
	for _, existing := range m.roles {
		if existing.Name == r.Name {
			return ErrRoleExists
		}
	}
	r.ID = uuid.NewString()
	now := m.now()
	r.CreatedAt = now
	r.UpdatedAt = now
	cp := *r
	m.roles = append(m.roles, &cp)
	return nil
}

// ListRoles returns the requested page and the number of roles matching
// the search. Search is a case-insensitive substring of name or
// description.
func (m *Memory) ListRoles(q RoleQuery) ([]models.Role, int) {
	m.mu.RLock()
	matched := make([]models.Role, 0, len(m.roles))
	needle := strings.ToLower(q.Search)
	for _, r := range m.roles {
		if needle == "" ||
			strings.Contains(strings.ToLower(r.Name), needle) ||
			strings.Contains(strings.ToLower(r.Description), needle) {
			matched = append(matched, *r)
		}
	}
	m.mu.RUnlock()

	if less := roleOrder(q.Sort); less != nil {
		slices.SortStableFunc(matched, func(a, b models.Role) int {
			if q.Desc {
				return less(b, a)
			}
			return less(a, b)
		})
	}
	total := len(matched)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matched[start:end], total
}

func roleOrder(key string) func(a, b models.Role) int {
	switch key {
	case "name":
		return func(a, b models.Role) int { return cmp.Compare(a.Name, b.Name) }
	case "description":
		return func(a, b models.Role) int { return cmp.Compare(a.Description, b.Description) }
	case "createdAt":
		return func(a, b models.Role) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updatedAt":
		return func(a, b models.Role) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "isSystemRole":
		return func(a, b models.Role) int {
			switch {
			case a.IsSystemRole == b.IsSystemRole:
				return 0
			case a.IsSystemRole:
				return 1
			}
			return -1
		}
	}
	return nil
}

// ---------- Setup ----------

func (m *Memory) NeedsSetup() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.setupDone
}

// CompleteSetup stores the primary role and the first admin in one step.
func (m *Memory) CompleteSetup(role *models.Role, admin *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setupDone {
		return ErrAlreadySetup
	}
	if _, exists := m.usersByName[admin.UserName]; exists {
		return ErrUserExists
	}
	if err := m.createRole(role); err != nil {
		return err
	}
	admin.Role = models.UserRole{ID: role.ID, Name: role.Name}
	if err := m.createUser(admin); err != nil {
		return err
	}
	m.setupDone = true
	return nil
}
