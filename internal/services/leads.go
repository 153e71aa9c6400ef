package services

import (
	"context"
	"log"
	"time"

	"activation/internal/domain"
)

// LeadFileResult is a lead file as shown on the dashboard.
type LeadFileResult struct {
	ID               string       `json:"id"`
	LeadID           string       `json:"leadId"`
	Play             int          `json:"play"`
	FileName         string       `json:"fileName"`
	FileSize         int64        `json:"fileSize"`
	MimeType         string       `json:"mimeType"`
	RemoteFilePath   *string      `json:"remoteFilePath"`
	LocalFilePath    *string      `json:"localFilePath"`
	UploadStatus     string       `json:"uploadStatus"`
	ModerationStatus string       `json:"moderationStatus"`
	ModeratedBy      *string      `json:"moderatedBy"`
	ModeratedAt      *time.Time   `json:"moderatedAt"`
	ModerationNotes  *string      `json:"moderationNotes"`
	SMSSentAt        *time.Time   `json:"smsSentAt"`
	SMSError         *string      `json:"smsError"`
	CreatedAt        time.Time    `json:"createdAt"`
	Lead             *LeadSummary `json:"lead,omitempty"`
}

// LeadSummary is the identity of the lead that owns a file.
type LeadSummary struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     *string `json:"email"`
	Phone     string  `json:"phone"`
}

func newLeadFileResult(f *domain.LeadFile) *LeadFileResult {
	result := &LeadFileResult{
		ID:               f.ID,
		LeadID:           f.LeadID,
		Play:             f.Play,
		FileName:         f.FileName,
		FileSize:         f.FileSize,
		MimeType:         f.MimeType,
		RemoteFilePath:   f.RemoteKey,
		LocalFilePath:    f.LocalPath,
		UploadStatus:     string(f.UploadStatus),
		ModerationStatus: string(f.ModerationStatus),
		ModeratedBy:      f.ModeratedBy,
		ModeratedAt:      f.ModeratedAt,
		ModerationNotes:  f.ModerationNotes,
		SMSSentAt:        f.SMSSentAt,
		SMSError:         f.SMSError,
		CreatedAt:        f.CreatedAt,
	}
	if f.Lead != nil {
		result.Lead = &LeadSummary{
			ID:        f.Lead.ID,
			FirstName: f.Lead.FirstName,
			LastName:  f.Lead.LastName,
			Email:     f.Lead.Email,
			Phone:     f.Lead.Phone,
		}
	}
	return result
}

// ListLeads returns every lead, newest first, with participation flags.
func (s *LeadService) ListLeads(ctx context.Context, caller *Caller) ([]*LeadResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var leads []domain.Lead
	if err := s.db.WithContext(ctx).Preload("Files").Order("created_at DESC").Order("id DESC").Find(&leads).Error; err != nil {
		return nil, storeError("LEAD", "List", err)
	}

	results := make([]*LeadResult, len(leads))
	for i := range leads {
		result := newLeadResult(&leads[i])
		count := len(leads[i].Files)
		participated := count > 0
		result.FileCount = &count
		result.HasParticipated = &participated
		results[i] = result
	}

	log.Printf("[LEAD] List successful: returned %d leads", len(results))
	return results, nil
}

// ListFiles returns every lead file with its owner, newest first.
func (s *LeadService) ListFiles(ctx context.Context, caller *Caller) ([]*LeadFileResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	var files []domain.LeadFile
	if err := s.db.WithContext(ctx).Preload("Lead").Order("created_at DESC").Order("id DESC").Find(&files).Error; err != nil {
		return nil, storeError("LEAD", "List files", err)
	}

	results := make([]*LeadFileResult, len(files))
	for i := range files {
		results[i] = newLeadFileResult(&files[i])
	}
	return results, nil
}

// DeleteFile removes a lead file record. The stored object is left in place.
func (s *LeadService) DeleteFile(ctx context.Context, caller *Caller, fileID string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ?", fileID).Delete(&domain.LeadFile{})
	if result.Error != nil {
		return storeError("LEAD", "Delete file", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("File not found")
	}

	log.Printf("[LEAD] Delete file successful: id=%s, by=%s", fileID, caller.UserID)
	return nil
}
