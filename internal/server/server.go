// Package server is the development REST backend the console talks to:
// auth, roles and setup under /api.
package server

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/orvull/omnisia-admin-console/internal/apierr"
	"github.com/orvull/omnisia-admin-console/internal/auth"
	"github.com/orvull/omnisia-admin-console/internal/forms"
	"github.com/orvull/omnisia-admin-console/internal/models"
	"github.com/orvull/omnisia-admin-console/internal/storage"
)

// Store describes the persistence the handlers need.
type Store interface {
	// Users
	GetUserByName(name string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)

	// Refresh tokens
	CreateRefresh(rt *models.RefreshToken) error
	GetRefresh(token string) (*models.RefreshToken, error)
	RevokeRefresh(id string) error
	RevokeAllUserRefresh(userID string) error

	// Roles
	CreateRole(r *models.Role) error
	ListRoles(q storage.RoleQuery) ([]models.Role, int)

	// Setup
	NeedsSetup() bool
	CompleteSetup(role *models.Role, admin *models.User) error
}

type Server struct {
	store Store
	jwt   auth.JWTSigner
	log   *slog.Logger
}

var installValidator sync.Once

func New(store Store, signer auth.JWTSigner, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	installValidator.Do(func() {
		binding.Validator = forms.New("binding")
	})
	return &Server{store: store, jwt: signer, log: log}
}

// SlogMiddleware logs every request with its request id.
func SlogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rlog := logger.With(
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
			"request_id", requestid.Get(c),
		)

		start := time.Now()
		rlog.Debug("request started")
		c.Next()
		rlog.Info("request completed", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// Router mounts every endpoint under /api.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(requestid.New(requestid.WithCustomHeaderStrKey("X-Request-ID")))
	r.Use(SlogMiddleware(s.log))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) })

	api.POST("/auth/login", s.login)
	api.POST("/auth/refresh", s.refresh)

	api.GET("/setup/status", s.setupStatus)
	api.POST("/setup/initialize", s.setupInitialize)

	private := api.Group("", s.requireAccess())
	private.GET("/auth/me", s.me)
	private.POST("/auth/logout", s.logout)
	private.GET("/roles", s.listRoles)
	private.POST("/roles", s.createRole)
	return r
}

// requireAccess accepts the access token raw or with a Bearer prefix.
func (s *Server) requireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header is missing"})
			return
		}
		claims, err := s.jwt.Parse(strings.TrimPrefix(header, "Bearer "), auth.KindAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is expired or invalid"})
			return
		}
		u, err := s.store.GetUserByID(claims.UserID)
		if err != nil || u.UserVer != claims.UserVer {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Stale token"})
			return
		}
		c.Set("user", u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet("user").(*models.User)
}

type issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// validationFailed answers with the issue list shape
// {errors: [{path, message}]}.
func validationFailed(c *gin.Context, status int, fields apierr.Fields) {
	issues := make([]issue, 0, len(fields))
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		msgs := fields[field]
		path := []string{field}
		if field == apierr.General {
			path = []string{}
		}
		for _, m := range msgs {
			issues = append(issues, issue{Path: path, Message: m})
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "errors": issues})
}

// bind decodes the JSON body; on failure it has already answered 400.
func bind(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var ve *apierr.ValidationError
	if errors.As(err, &ve) {
		validationFailed(c, http.StatusBadRequest, ve.Fields)
		return false
	}
	validationFailed(c, http.StatusBadRequest, apierr.Fields{apierr.General: {"Malformed request body"}})
	return false
}
