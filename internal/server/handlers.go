package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orvull/omnisia-admin-console/internal/apierr"
	"github.com/orvull/omnisia-admin-console/internal/auth"
	"github.com/orvull/omnisia-admin-console/internal/i18n"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/storage"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ---------- Auth ----------

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if !bind(c, &req) {
		return
	}
	u, err := s.store.GetUserByName(req.UserName)
	if err != nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	creds, err := s.issueTokens(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LoginResponse{User: *u, Credentials: creds})
}

func (s *Server) refresh(c *gin.Context) {
	var req models.RefreshRequest
	if !bind(c, &req) {
		return
	}
	if _, err := s.jwt.Parse(req.RefreshToken, auth.KindRefresh); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}
	rt, err := s.store.GetRefresh(req.RefreshToken)
	if err != nil || rt.Revoked {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}
	u, err := s.store.GetUserByID(rt.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
		return
	}

	// rotate; a concurrent refresh with the same token loses here
	if err := s.store.RevokeRefresh(rt.ID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	creds, err := s.issueTokens(u)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

func (s *Server) logout(c *gin.Context) {
	_ = s.store.RevokeAllUserRefresh(currentUser(c).ID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": currentUser(c)})
}

func (s *Server) issueTokens(u *models.User) (models.Credentials, error) {
	at, err := s.jwt.Issue(u.ID, u.UserName, u.Role.Name, u.UserVer)
	if err != nil {
		return models.Credentials{}, err
	}
	rtok, exp, err := s.jwt.IssueRefresh(u.ID)
	if err != nil {
		return models.Credentials{}, err
	}
	rt := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     rtok,
		IssuedAt:  exp.Add(-s.jwt.RefreshTTL),
		ExpiresAt: exp,
	}
	if err := s.store.CreateRefresh(rt); err != nil {
		return models.Credentials{}, err
	}
	return models.Credentials{AccessToken: at, RefreshToken: rtok}, nil
}

// ---------- Roles ----------

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) listRoles(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := min(queryInt(c, "limit", defaultLimit), maxLimit)

	rows, total := s.store.ListRoles(storage.RoleQuery{
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   c.Query("sort"),
		Desc:   strings.EqualFold(c.Query("order"), "desc"),
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	res := models.Page[models.Role]{
		Success: true,
		Data:    rows,
		Meta: models.Meta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}
	if c.Query("include") == "columns" {
		res.Columns = roleColumns(i18n.Match(c.GetHeader("Accept-Language")))
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) createRole(c *gin.Context) {
	var p models.CreateRolePayload
	if !bind(c, &p) {
		return
	}
	role := &models.Role{Name: p.Name, Description: p.Description, IsSystemRole: p.IsSystemRole}
	if err := s.store.CreateRole(role); err != nil {
		if errors.Is(err, storage.ErrRoleExists) {
			validationFailed(c, http.StatusUnprocessableEntity, apierr.Fields{"name": {"A role with this name already exists"}})
			return
		}
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

// ---------- Setup ----------

func (s *Server) setupStatus(c *gin.Context) {
	var st models.SetupStatus
	st.Success = true
	st.Data.NeedsSetup = s.store.NeedsSetup()
	c.JSON(http.StatusOK, st)
}

func (s *Server) setupInitialize(c *gin.Context) {
	var p models.SetupInitializePayload
	if !bind(c, &p) {
		return
	}
	if err := s.Initialize(p); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadySetup):
			c.JSON(http.StatusConflict, models.SetupInitializeResponse{Message: "Setup already completed"})
		case errors.Is(err, storage.ErrUserExists):
			validationFailed(c, http.StatusUnprocessableEntity, apierr.Fields{"adminUserName": {"User name already taken"}})
		default:
			s.fail(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, models.SetupInitializeResponse{Success: true, Message: "Setup completed"})
}

// Initialize creates the primary role and the first admin. It is also
// how a fresh backend gets seeded outside HTTP.
func (s *Server) Initialize(p models.SetupInitializePayload) error {
	hash, err := auth.HashPassword(p.AdminPassword)
	if err != nil {
		return err
	}
	role := &models.Role{Name: p.PrimaryRoleName, Description: p.PrimaryRoleDescription, IsSystemRole: true}
	admin := &models.User{
		FirstName:    p.AdminFirstName,
		LastName:     p.AdminLastName,
		IDNumber:     p.AdminIDNumber,
		UserName:     p.AdminUserName,
		Email:        p.AdminEmail,
		Phone:        p.AdminPhone,
		Status:       "ACTIVE",
		PasswordHash: hash,
		UserVer:      1,
	}
	if err := s.store.CompleteSetup(role, admin); err != nil {
		return err
	}
	s.log.Info("setup completed", "company", p.CompanyName, "admin", admin.UserName)
	return nil
}

func (s *Server) fail(c *gin.Context, err error) {
	s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": apierr.FallbackGeneric})
}
