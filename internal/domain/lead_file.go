package domain

import (
	"time"

	"activation/internal/ids"

	"gorm.io/gorm"
)

// ModerationStatus is the review state of a lead file.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Valid reports whether s is a known moderation status.
func (s ModerationStatus) Valid() bool {
	switch s {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}

// Decided reports whether s is a terminal review decision.
func (s ModerationStatus) Decided() bool {
	return s == ModerationApproved || s == ModerationRejected
}

// UploadStatus tracks the transfer of the video bytes to object storage.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
)

// LeadFile is the metadata record for an uploaded video. The bytes live in
// object storage under RemoteKey.
type LeadFile struct {
	ID               string           `gorm:"primaryKey;size:26" json:"id"`
	LeadID           string           `gorm:"size:26;not null;index" json:"lead_id"`
	Play             int              `gorm:"not null;default:0" json:"play"`
	FileName         string           `gorm:"size:255;not null;default:unknown" json:"file_name"`
	FileSize         int64            `gorm:"not null;default:0" json:"file_size"`
	MimeType         string           `gorm:"size:100;not null;default:application/octet-stream" json:"mime_type"`
	RemoteKey        *string          `gorm:"column:remote_path;uniqueIndex:idx_lead_files_remote_path;size:1024" json:"remote_path"`
	LocalPath        *string          `gorm:"column:local_path;size:1024" json:"local_path"`
	UploadStatus     UploadStatus     `gorm:"size:16;not null;default:pending" json:"upload_status"`
	ModerationStatus ModerationStatus `gorm:"size:16;not null;default:pending;index" json:"moderation_status"`
	ModeratedBy      *string          `gorm:"size:26" json:"moderated_by"`
	ModeratedAt      *time.Time       `json:"moderated_at"`
	ModerationNotes  *string          `gorm:"type:text" json:"moderation_notes"`
	SMSSentAt        *time.Time       `gorm:"column:sms_sent_at" json:"sms_sent_at"`
	SMSError         *string          `gorm:"column:sms_error;type:text" json:"sms_error"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Lead             *Lead            `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
}

// TableName specifies the table name for LeadFile
func (LeadFile) TableName() string {
	return "lead_files"
}

// BeforeCreate hook
func (f *LeadFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = ids.New()
	}
	if f.ModerationStatus == "" {
		f.ModerationStatus = ModerationPending
	}
	if f.UploadStatus == "" {
		f.UploadStatus = UploadPending
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	return nil
}

// BeforeUpdate hook
func (f *LeadFile) BeforeUpdate(tx *gorm.DB) error {
	f.UpdatedAt = time.Now().UTC()
	return nil
}
