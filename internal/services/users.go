package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"activation/internal/database"
	"activation/internal/domain"
	"activation/internal/util"
)

const minPasswordLength = 8

// UserResult is a dashboard user as returned to API callers.
type UserResult struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	LastLogin *time.Time `json:"lastLogin"`
}

func newUserResult(user *domain.User) *UserResult {
	return &UserResult{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		LastLogin: user.LastLogin,
	}
}

// CreateUserInput describes a new dashboard user.
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserInput holds the fields to change; nil fields are left alone.
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password"`
}

// UserService manages dashboard accounts.
type UserService struct {
	db           *gorm.DB
	emailService *EmailService
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, emailService *EmailService) *UserService {
	return &UserService{db: db, emailService: emailService}
}

func parseRole(raw string) (domain.Role, error) {
	role := domain.Role(strings.ToLower(strings.TrimSpace(raw)))
	if role == "" {
		return domain.RoleUser, nil
	}
	if !role.Valid() {
		return "", NewBadRequestError("Role must be user, admin or super")
	}
	return role, nil
}

// ListUsers returns all dashboard users, newest first.
func (s *UserService) ListUsers(ctx context.Context, caller *Caller) ([]*UserResult, error) {
	if err := requireAdmin(caller, "view users"); err != nil {
		return nil, err
	}

	var users []domain.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, storeError("USERS", "List", err)
	}

	results := make([]*UserResult, len(users))
	for i := range users {
		results[i] = newUserResult(&users[i])
	}

	log.Printf("[USERS] List successful: returned %d users", len(results))
	return results, nil
}

// CreateUser adds a dashboard user. Only super admins may create super admins.
func (s *UserService) CreateUser(ctx context.Context, caller *Caller, p *CreateUserInput) (*UserResult, error) {
	if err := requireAdmin(caller, "create other users"); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(p.Name)
	email := strings.ToLower(strings.TrimSpace(p.Email))
	password := strings.TrimSpace(p.Password)

	if name == "" {
		return nil, NewBadRequestError("Name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, NewBadRequestError("Invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, NewBadRequestError("Password must be at least 8 characters")
	}
	role, err := parseRole(p.Role)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleSuper && !caller.IsSuper() {
		return nil, NewForbiddenError("Only super admins can create super admins")
	}

	log.Printf("[USERS] CreateUser request: email=%s, role=%s, by=%s", email, role, caller.UserID)

	var existing domain.User
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, NewConflictError("A user with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("USERS", "CreateUser", err)
	}

	hashedPassword, err := util.HashPassword(password)
	if err != nil {
		log.Printf("[USERS] CreateUser failed: password hashing error: %v", err)
		return nil, NewInternalError(msgInternal, err)
	}

	user := domain.User{
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
		IsActive:       true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if _, unique := database.UniqueViolation(err); unique {
			return nil, NewConflictError("A user with this email already exists")
		}
		return nil, storeError("USERS", "CreateUser", err)
	}

	log.Printf("[USERS] CreateUser successful: id=%s, email=%s", user.ID, user.Email)

	if s.emailService != nil && s.emailService.IsEnabled() {
		go func(to, name, role string) {
			if err := s.emailService.SendWelcome(to, name, role); err != nil {
				log.Printf("[USERS] Warning: failed to send welcome email: %v", err)
			}
		}(user.Email, user.Name, string(user.Role))
	}

	return newUserResult(&user), nil
}

// loadTarget fetches the user an admin wants to change and applies the rules
// shared by update and delete.
func (s *UserService) loadTarget(ctx context.Context, caller *Caller, op, id, verb string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("User not found")
		}
		return nil, storeError("USERS", op, err)
	}

	if user.ID == caller.UserID {
		return nil, NewBadRequestError("You cannot " + verb + " your own account")
	}
	if user.IsSuper() && !caller.IsSuper() {
		return nil, NewForbiddenError("Only super admins can " + verb + " super admins")
	}
	return &user, nil
}

// UpdateUser changes another user's profile, role, status or password.
func (s *UserService) UpdateUser(ctx context.Context, caller *Caller, id string, p *UpdateUserInput) (*UserResult, error) {
	if err := requireAdmin(caller, "update users"); err != nil {
		return nil, err
	}

	user, err := s.loadTarget(ctx, caller, "UpdateUser", id, "update")
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, NewBadRequestError("Name is required")
		}
		user.Name = name
	}
	if p.Role != nil {
		role, err := parseRole(*p.Role)
		if err != nil {
			return nil, err
		}
		if role == domain.RoleSuper && !caller.IsSuper() {
			return nil, NewForbiddenError("Only super admins can create super admins")
		}
		user.Role = role
	}
	if p.IsActive != nil {
		user.IsActive = *p.IsActive
	}
	if p.Password != nil {
		password := strings.TrimSpace(*p.Password)
		if len(password) < minPasswordLength {
			return nil, NewBadRequestError("Password must be at least 8 characters")
		}
		hashedPassword, err := util.HashPassword(password)
		if err != nil {
			log.Printf("[USERS] UpdateUser failed: password hashing error: %v", err)
			return nil, NewInternalError(msgInternal, err)
		}
		user.HashedPassword = hashedPassword
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, storeError("USERS", "UpdateUser", err)
	}

	log.Printf("[USERS] UpdateUser successful: id=%s, by=%s", user.ID, caller.UserID)
	return newUserResult(user), nil
}

// DeleteUser removes another user.
func (s *UserService) DeleteUser(ctx context.Context, caller *Caller, id string) error {
	if err := requireAdmin(caller, "delete users"); err != nil {
		return err
	}

	user, err := s.loadTarget(ctx, caller, "DeleteUser", id, "delete")
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return storeError("USERS", "DeleteUser", err)
	}

	log.Printf("[USERS] DeleteUser successful: id=%s, by=%s", user.ID, caller.UserID)
	return nil
}
