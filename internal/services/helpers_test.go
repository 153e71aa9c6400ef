package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"activation/internal/config"
	"activation/internal/database"
	"activation/internal/domain"
	apperrors "activation/pkg/errors"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openSQLiteAt(t, &config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "test.db")})
}

func openSQLiteAt(t *testing.T, cfg *config.DatabaseConfig) *gorm.DB {
	t.Helper()
	conn, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func adminCaller() *Caller {
	return &Caller{UserID: "01HZZZZZZZZZZZZZZZZZZZZZZA", Email: "admin@example.com", Role: domain.RoleAdmin}
}

func superCaller() *Caller {
	return &Caller{UserID: "01HZZZZZZZZZZZZZZZZZZZZZZS", Email: "super@example.com", Role: domain.RoleSuper}
}

func userCaller() *Caller {
	return &Caller{UserID: "01HZZZZZZZZZZZZZZZZZZZZZZU", Email: "user@example.com", Role: domain.RoleUser}
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

func (m *mockNotifier) IsEnabled() bool {
	return m.Called().Bool(0)
}

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) SignURL(ctx context.Context, key string, ttl time.Duration, forDownload bool) (string, error) {
	args := m.Called(ctx, key, ttl, forDownload)
	return args.String(0), args.Error(1)
}

func seedLead(t *testing.T, db *gorm.DB, phone string, email *string) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{FirstName: "Ada", LastName: "Lovelace", Phone: phone, Email: email, Terms: true}
	require.NoError(t, db.Create(lead).Error)
	return lead
}

func seedFile(t *testing.T, db *gorm.DB, leadID string, key *string) *domain.LeadFile {
	t.Helper()
	file := &domain.LeadFile{LeadID: leadID, Play: 1, FileName: "clip.mp4", MimeType: "video/mp4", RemoteKey: key}
	require.NoError(t, db.Create(file).Error)
	return file
}

func messageOf(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
