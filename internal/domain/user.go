package domain

import (
	"time"

	"activation/internal/ids"

	"gorm.io/gorm"
)

// Role is a dashboard user's permission level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleSuper Role = "super"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuper:
		return true
	}
	return false
}

// User represents a dashboard user
type User struct {
	ID             string     `gorm:"primaryKey;size:26" json:"id"`
	Name           string     `gorm:"size:255" json:"name"`
	Email          string     `gorm:"uniqueIndex:idx_users_email;not null" json:"email"`
	HashedPassword string     `gorm:"not null" json:"-"`
	Role           Role       `gorm:"size:16;not null;default:user" json:"role"`
	IsActive       bool       `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastLogin      *time.Time `json:"last_login"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user may manage other users.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuper
}

// IsSuper reports whether the user is a super admin.
func (u *User) IsSuper() bool {
	return u.Role == RoleSuper
}

// BeforeCreate hook
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate hook
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now().UTC()
	return nil
}
