package services

import (
	"activation/internal/domain"
)

// Caller is the authenticated dashboard user on whose behalf an operation
// runs. Transports resolve it from the bearer token and pass it explicitly.
type Caller struct {
	UserID string
	Email  string
	Role   domain.Role
}

// NewCaller builds a Caller from a stored user.
func NewCaller(user *domain.User) *Caller {
	return &Caller{UserID: user.ID, Email: user.Email, Role: user.Role}
}

// IsAdmin reports whether the caller is an admin or super admin.
func (c *Caller) IsAdmin() bool {
	return c != nil && (c.Role == domain.RoleAdmin || c.Role == domain.RoleSuper)
}

// IsSuper reports whether the caller is a super admin.
func (c *Caller) IsSuper() bool {
	return c != nil && c.Role == domain.RoleSuper
}

func requireCaller(c *Caller) error {
	if c == nil || c.UserID == "" {
		return NewUnauthorizedError("authentication required")
	}
	return nil
}

func requireAdmin(c *Caller, action string) error {
	if err := requireCaller(c); err != nil {
		return err
	}
	if !c.IsAdmin() {
		return NewForbiddenError("Only admins can " + action)
	}
	return nil
}

func requireSuper(c *Caller) error {
	if err := requireCaller(c); err != nil {
		return err
	}
	if !c.IsSuper() {
		return NewForbiddenError("Only super admins can perform this action")
	}
	return nil
}
