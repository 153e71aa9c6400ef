package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"activation/internal/config"
	"activation/internal/domain"
	apperrors "activation/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceFindAndSaveRecording(t *testing.T) {
	db := openTestDB(t)
	svc := NewDeviceService(db)
	ctx := context.Background()

	_, err := svc.FindByPhone(ctx, "")
	assert.True(t, apperrors.IsBadRequest(err))
	_, err = svc.FindByPhone(ctx, "555")
	assert.True(t, apperrors.IsBadRequest(err))

	found, err := svc.FindByPhone(ctx, "(555) 123-4567")
	require.NoError(t, err)
	assert.False(t, found.Found)
	assert.Equal(t, "+15551234567", found.PhoneNumber)

	saved, err := svc.SaveRecording(ctx, &SaveRecordingInput{PhoneNumber: "5551234567", LocalFilePath: "/captures/1.mp4"})
	require.NoError(t, err)
	assert.True(t, saved.Success)
	assert.Equal(t, "Recording saved successfully", saved.Message)

	again, err := svc.SaveRecording(ctx, &SaveRecordingInput{PhoneNumber: "+15551234567", LocalFilePath: "/captures/2.mp4"})
	require.NoError(t, err)
	assert.Equal(t, saved.LeadID, again.LeadID)
	assert.NotEqual(t, saved.FileID, again.FileID)

	var files []domain.LeadFile
	require.NoError(t, db.Where("lead_id = ?", saved.LeadID).Find(&files).Error)
	assert.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, domain.ModerationPending, f.ModerationStatus)
		assert.Nil(t, f.RemoteKey)
	}

	found, err = svc.FindByPhone(ctx, "5551234567")
	require.NoError(t, err)
	assert.True(t, found.Found)

	_, err = svc.SaveRecording(ctx, &SaveRecordingInput{PhoneNumber: "5551234567"})
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestDeviceSearch(t *testing.T) {
	db := openTestDB(t)
	svc := NewDeviceService(db)
	ctx := context.Background()

	seedLead(t, db, "+15551234567", nil)
	other := &domain.Lead{FirstName: "Bob", LastName: "Builder", Phone: "+15559876543"}
	require.NoError(t, db.Create(other).Error)

	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, other.ID, all[0].ID)

	byName, err := svc.Search(ctx, "LOVE")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Ada", byName[0].FirstName)

	byPhone, err := svc.Search(ctx, "98765")
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, other.ID, byPhone[0].ID)
}

func TestDeviceSearchTreatsWildcardsLiterally(t *testing.T) {
	db := openTestDB(t)
	svc := NewDeviceService(db)
	ctx := context.Background()

	seedLead(t, db, "+15551234567", nil)
	underscored := &domain.Lead{FirstName: "snake_case", LastName: "Tester", Phone: "+15559876543"}
	require.NoError(t, db.Create(underscored).Error)

	percent, err := svc.Search(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, percent)

	underscore, err := svc.Search(ctx, "_")
	require.NoError(t, err)
	require.Len(t, underscore, 1)
	assert.Equal(t, underscored.ID, underscore[0].ID)

	backslash, err := svc.Search(ctx, `\`)
	require.NoError(t, err)
	assert.Empty(t, backslash)
}

func TestDeviceCreateLeadFile(t *testing.T) {
	db := openTestDB(t)
	svc := NewDeviceService(db)
	ctx := context.Background()
	lead := seedLead(t, db, "+15551234567", nil)

	_, err := svc.CreateLeadFile(ctx, &CreateLeadFileInput{LeadID: lead.ID})
	require.Error(t, err)
	assert.Equal(t, "Play is required", messageOf(err))

	_, err = svc.CreateLeadFile(ctx, &CreateLeadFileInput{LeadID: "01J0000000000000000000000X", Play: intPtr(1)})
	assert.True(t, apperrors.IsNotFound(err))

	file, err := svc.CreateLeadFile(ctx, &CreateLeadFileInput{LeadID: lead.ID, Play: intPtr(1), RemoteFilePath: strPtr("videos/x.mp4")})
	require.NoError(t, err)
	assert.Equal(t, "unknown", file.FileName)
	assert.Equal(t, "application/octet-stream", file.MimeType)
	assert.Equal(t, "completed", file.UploadStatus)
	assert.Equal(t, "pending", file.ModerationStatus)

	_, err = svc.CreateLeadFile(ctx, &CreateLeadFileInput{LeadID: lead.ID, Play: intPtr(1), RemoteFilePath: strPtr("videos/x.mp4")})
	assert.True(t, apperrors.IsConflict(err))
}

func TestDownloadDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.db")
	cfg := &config.DatabaseConfig{URL: "sqlite:///" + path}
	db := openSQLiteAt(t, cfg)
	seedLead(t, db, "+15551234567", nil)

	svc := NewUtilityService(cfg)
	ctx := context.Background()

	_, err := svc.DownloadDatabase(ctx, adminCaller())
	assert.True(t, apperrors.IsForbidden(err))

	dump, err := svc.DownloadDatabase(ctx, superCaller())
	require.NoError(t, err)
	assert.Regexp(t, `^database-backup-.*\.sqlite$`, dump.Filename)
	assert.NotEmpty(t, dump.Data)

	pg := NewUtilityService(&config.DatabaseConfig{URL: "postgres://u:p@localhost/db"})
	_, err = pg.DownloadDatabase(ctx, superCaller())
	assert.True(t, apperrors.IsPreconditionFailed(err), fmt.Sprint(err))
}
