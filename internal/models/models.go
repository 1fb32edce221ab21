package models

import (
	"time"
)

// Credentials is the access/refresh pair issued by auth/login and auth/refresh.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LoginRequest struct {
	UserName string `json:"userName" validate:"required" binding:"required"`
	Password string `json:"password" validate:"required" binding:"required"`
}

type LoginResponse struct {
	User User `json:"user"`
	Credentials
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type UserRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	IDNumber     string    `json:"idNumber"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Status       string    `json:"status"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"`
	UserVer      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string // opaque to clients, a signed JWT carrying exp
	ExpiresAt time.Time
	Revoked   bool
	IssuedAt  time.Time
}

type Role struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsSystemRole bool      `json:"isSystemRole"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var roleKeys = []string{"id", "name", "description", "isSystemRole", "createdAt", "updatedAt"}

func (r Role) RowID() string { return r.ID }

// Keys lists the role fields in wire order.
func (r Role) Keys() []string { return roleKeys }

func (r Role) Field(key string) (any, bool) {
	switch key {
	case "id":
		return r.ID, true
	case "name":
		return r.Name, true
	case "description":
		return r.Description, true
	case "isSystemRole":
		return r.IsSystemRole, true
	case "createdAt":
		return r.CreatedAt, true
	case "updatedAt":
		return r.UpdatedAt, true
	}
	return nil, false
}

type CreateRolePayload struct {
	Name         string `json:"name" validate:"required,max=100,rolename" binding:"required,max=100,rolename"`
	Description  string `json:"description,omitempty" validate:"max=500" binding:"max=500"`
	IsSystemRole bool   `json:"isSystemRole"`
}

type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnDate   ColumnType = "date"
	ColumnBool   ColumnType = "bool"
	ColumnNumber ColumnType = "number"
)

// ColumnSpec is a column descriptor sent by the backend when include=columns.
type ColumnSpec struct {
	Key      string     `json:"key"`
	Label    string     `json:"label,omitempty"`
	LabelKey string     `json:"labelKey,omitempty"`
	Sortable *bool      `json:"sortable,omitempty"`
	Visible  *bool      `json:"visible,omitempty"`
	Type     ColumnType `json:"type,omitempty"`
	Format   string     `json:"format,omitempty"`
}

type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// Page is the envelope of every paginated listing.
type Page[T any] struct {
	Success bool         `json:"success,omitempty"`
	Data    []T          `json:"data"`
	Meta    Meta         `json:"meta"`
	Columns []ColumnSpec `json:"columns,omitempty"`
}

type SetupStatus struct {
	Success bool `json:"success"`
	Data    struct {
		NeedsSetup bool `json:"needsSetup"`
	} `json:"data"`
}

type SetupInitializePayload struct {
	CompanyName            string `json:"companyName" validate:"required" binding:"required"`
	CompanyEmail           string `json:"companyEmail" validate:"required,email" binding:"required,email"`
	CompanyPhone           string `json:"companyPhone" validate:"required,digits=6" binding:"required,digits=6"`
	CompanyAddress         string `json:"companyAddress" validate:"required,address=10" binding:"required,address=10"`
	PrimaryRoleName        string `json:"primaryRoleName" validate:"required" binding:"required"`
	PrimaryRoleDescription string `json:"primaryRoleDescription" validate:"required" binding:"required"`
	AdminFirstName         string `json:"adminFirstName" validate:"required,minwords=2" binding:"required,minwords=2"`
	AdminLastName          string `json:"adminLastName" validate:"required,minwords=2" binding:"required,minwords=2"`
	AdminIDNumber          string `json:"adminIdNumber" validate:"required,digits=10" binding:"required,digits=10"`
	AdminUserName          string `json:"adminUserName" validate:"required,min=5" binding:"required,min=5"`
	AdminEmail             string `json:"adminEmail" validate:"required,email" binding:"required,email"`
	AdminPassword          string `json:"adminPassword" validate:"required,robust=8" binding:"required,robust=8"`
	AdminPhone             string `json:"adminPhone" validate:"required,digits=10" binding:"required,digits=10"`
}

type SetupInitializeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
