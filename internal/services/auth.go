package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"time"

	"goa.design/goa/v3/security"
	"gorm.io/gorm"

	"activation/internal/domain"
	"activation/internal/metrics"
	"activation/internal/util"
)

// Scopes understood by JWTAuth.
const (
	ScopeAdmin = "admin"
	ScopeSuper = "super"
)

// LoginInput holds dashboard credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the issued bearer token.
type LoginResult struct {
	AccessToken string      `json:"accessToken"`
	TokenType   string      `json:"tokenType"`
	ExpiresIn   int         `json:"expiresIn"`
	User        *UserResult `json:"user"`
}

// AuthService implements the auth service
type AuthService struct {
	db          *gorm.DB
	apiKey      string
	tokenExpiry time.Duration
}

// NewAuthService creates a new auth service. apiKey guards the recording
// station endpoints; an empty key disables them.
func NewAuthService(db *gorm.DB, apiKey string, tokenExpiry time.Duration) *AuthService {
	return &AuthService{db: db, apiKey: apiKey, tokenExpiry: tokenExpiry}
}

// JWTAuth resolves a bearer token to the caller it was issued to and checks
// the scheme's required scopes.
func (s *AuthService) JWTAuth(ctx context.Context, token string, scheme *security.JWTScheme) (*Caller, error) {
	claims, err := util.ValidateToken(token)
	if err != nil {
		return nil, NewUnauthorizedError("invalid or expired token")
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorizedError("user not found")
		}
		return nil, storeError("AUTH", "JWT auth", err)
	}

	if !user.IsActive {
		return nil, NewUnauthorizedError("user account is inactive")
	}

	if scheme != nil && len(scheme.RequiredScopes) > 0 {
		hasScope := false
		for _, requiredScope := range scheme.RequiredScopes {
			if requiredScope == ScopeAdmin && user.IsAdmin() {
				hasScope = true
				break
			}
			if requiredScope == ScopeSuper && user.IsSuper() {
				hasScope = true
				break
			}
		}
		if !hasScope {
			return nil, NewForbiddenError("insufficient permissions")
		}
	}

	return NewCaller(&user), nil
}

// APIKeyAuth checks the shared key presented by recording stations.
func (s *AuthService) APIKeyAuth(key string) error {
	if s.apiKey == "" {
		return NewUnauthorizedError("Unauthorized")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		log.Printf("[AUTH] API key rejected")
		return NewUnauthorizedError("Unauthorized")
	}
	return nil
}

// Login implements the login method
func (s *AuthService) Login(ctx context.Context, p *LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	password := strings.TrimSpace(p.Password)

	log.Printf("[AUTH] Login attempt for user: %s", email)

	if email == "" || password == "" {
		metrics.RecordAuthAttempt(false)
		return nil, NewBadRequestError("Email and password are required")
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		metrics.RecordAuthAttempt(false)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[AUTH] Login failed: user '%s' not found", email)
			return nil, NewUnauthorizedError("incorrect email or password")
		}
		return nil, storeError("AUTH", "Login", err)
	}

	if !util.CheckPasswordHash(password, user.HashedPassword) {
		log.Printf("[AUTH] Login failed: invalid password for user '%s'", email)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("incorrect email or password")
	}

	if !user.IsActive {
		log.Printf("[AUTH] Login failed: user '%s' is inactive", email)
		metrics.RecordAuthAttempt(false)
		return nil, NewUnauthorizedError("user account is inactive")
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("[AUTH] Warning: failed to record last login for user '%s': %v", email, err)
	}
	user.LastLogin = &now

	token, err := util.GenerateToken(&user)
	if err != nil {
		log.Printf("[AUTH] Login failed: token generation error for user '%s': %v", email, err)
		return nil, NewInternalError(msgInternal, err)
	}

	log.Printf("[AUTH] Login successful for user '%s' (id=%s, role=%s)", email, user.ID, user.Role)
	metrics.RecordAuthAttempt(true)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenExpiry / time.Second),
		User:        newUserResult(&user),
	}, nil
}

// Me returns the calling user.
func (s *AuthService) Me(ctx context.Context, caller *Caller) (*UserResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", caller.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("User not found")
		}
		return nil, storeError("AUTH", "Me", err)
	}
	return newUserResult(&user), nil
}
