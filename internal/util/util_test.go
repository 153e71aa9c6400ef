package util

import (
	"testing"
	"time"

	"activation/internal/config"
	"activation/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	valid := []string{
		"(555) 123-4567",
		"+15551234567",
		"555-123-4567",
		"555.123.4567",
		"1 555 123 4567",
		" +1 (555) 123-4567 ",
	}
	for _, input := range valid {
		got, err := NormalizePhone(input)
		require.NoError(t, err, input)
		assert.Equal(t, "+15551234567", got, input)
	}

	invalid := []string{
		"",
		"12345",
		"+445551234567",
		"+1555123456",
		"055-123-4567",
		"(155) 123-4567",
		"555+1234567",
	}
	for _, input := range invalid {
		_, err := NormalizePhone(input)
		assert.ErrorIs(t, err, ErrInvalidPhone, input)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
}

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret-key-that-is-long-enough-for-hs256")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestTokenRoundTrip(t *testing.T) {
	loadTestConfig(t)
	user := &domain.User{ID: "01JABCDEF0123456789ABCDEFG", Email: "mod@example.com", Role: domain.RoleAdmin}

	token, err := GenerateToken(user)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	cfg := loadTestConfig(t)

	_, err := ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(cfg.Auth.SecretKey))
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err = other.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	_, err = ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.NoError(t, limiter.Allow("10.0.0.1"))
	require.NoError(t, limiter.Allow("10.0.0.1"))
	assert.Error(t, limiter.Allow("10.0.0.1"))
	assert.NoError(t, limiter.Allow("10.0.0.2"))

	now = now.Add(61 * time.Second)
	assert.NoError(t, limiter.Allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	limiter.Cleanup()
	assert.Equal(t, 0, limiter.Len())
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Allow("k"))
	}
}
