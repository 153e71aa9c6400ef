package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"activation/internal/database"
	"activation/internal/domain"
	"activation/internal/metrics"
	"activation/internal/util"
)

const searchLimit = 100

// PhoneLookupResult answers a recording station's phone lookup.
type PhoneLookupResult struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name,omitempty"`
	Found       bool   `json:"found"`
}

// SaveRecordingInput is posted by a recording station after capture.
type SaveRecordingInput struct {
	PhoneNumber   string `json:"phoneNumber"`
	LocalFilePath string `json:"localFilePath"`
}

// SaveRecordingResult identifies the lead and file a recording was saved to.
type SaveRecordingResult struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
	FileID  string `json:"fileId"`
	Message string `json:"message"`
}

// CreateLeadFileInput registers an uploaded video.
type CreateLeadFileInput struct {
	LeadID         string  `json:"leadId"`
	Play           *int    `json:"play"`
	RemoteFilePath *string `json:"remoteFilePath"`
	FileName       string  `json:"fileName"`
	FileSize       int64   `json:"fileSize"`
	MimeType       string  `json:"mimeType"`
}

// DeviceService serves the API-key endpoints used by recording stations.
type DeviceService struct {
	db *gorm.DB
}

// NewDeviceService creates a new device service
func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{db: db}
}

func normalizeDevicePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", NewBadRequestError("Missing required query parameter: phoneNumber")
	}
	normalized, err := util.NormalizePhone(phone)
	if err != nil {
		return "", NewBadRequestError(err.Error())
	}
	return normalized, nil
}

// FindByPhone reports whether a lead exists for the number.
func (s *DeviceService) FindByPhone(ctx context.Context, phone string) (*PhoneLookupResult, error) {
	normalized, err := normalizeDevicePhone(phone)
	if err != nil {
		return nil, err
	}

	var lead domain.Lead
	err = s.db.WithContext(ctx).Where("phone = ?", normalized).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PhoneLookupResult{PhoneNumber: normalized, Found: false}, nil
	}
	if err != nil {
		return nil, storeError("DEVICE", "Find by phone", err)
	}

	return &PhoneLookupResult{PhoneNumber: normalized, Name: lead.FullName(), Found: true}, nil
}

// SaveRecording attaches a locally captured recording to the lead for the
// phone number, creating a phone-only lead when none exists.
func (s *DeviceService) SaveRecording(ctx context.Context, in *SaveRecordingInput) (*SaveRecordingResult, error) {
	if strings.TrimSpace(in.PhoneNumber) == "" || strings.TrimSpace(in.LocalFilePath) == "" {
		return nil, NewBadRequestError("Missing required fields: phoneNumber and localFilePath")
	}
	normalized, err := normalizeDevicePhone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	lead, err := s.findOrCreateLead(ctx, normalized)
	if err != nil {
		return nil, err
	}

	localPath := strings.TrimSpace(in.LocalFilePath)
	file := &domain.LeadFile{
		LeadID:    lead.ID,
		Play:      lead.Play,
		LocalPath: &localPath,
	}
	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		return nil, storeError("DEVICE", "Save recording", err)
	}

	log.Printf("[DEVICE] Save recording successful: phone=%s, leadId=%s, fileId=%s", normalized, lead.ID, file.ID)
	metrics.RecordLeadFileCreated("device")
	return &SaveRecordingResult{
		Success: true,
		LeadID:  lead.ID,
		FileID:  file.ID,
		Message: "Recording saved successfully",
	}, nil
}

func (s *DeviceService) findOrCreateLead(ctx context.Context, phone string) (*domain.Lead, error) {
	var lead domain.Lead
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&lead).Error
	if err == nil {
		return &lead, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError("DEVICE", "Find lead", err)
	}

	log.Printf("[DEVICE] Lead not found for phone %s, creating new lead", phone)
	lead = domain.Lead{Phone: phone}
	if err := s.db.WithContext(ctx).Create(&lead).Error; err != nil {
		// Another station registered the same number first.
		if _, unique := database.UniqueViolation(err); unique {
			var existing domain.Lead
			if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&existing).Error; err == nil {
				return &existing, nil
			}
		}
		return nil, storeError("DEVICE", "Create lead", err)
	}
	return &lead, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches first name, last name or phone case-insensitively. An empty
// query returns the newest leads.
func (s *DeviceService) Search(ctx context.Context, query string) ([]*LeadResult, error) {
	tx := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(searchLimit)

	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
		tx = tx.Where(`LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\'`, pattern, pattern, pattern)
	}

	var leads []domain.Lead
	if err := tx.Find(&leads).Error; err != nil {
		return nil, storeError("DEVICE", "Search", err)
	}

	results := make([]*LeadResult, len(leads))
	for i := range leads {
		results[i] = newLeadResult(&leads[i])
	}
	return results, nil
}

// CreateLeadFile records a video that has already been uploaded.
func (s *DeviceService) CreateLeadFile(ctx context.Context, in *CreateLeadFileInput) (*LeadFileResult, error) {
	if in.Play == nil {
		return nil, NewBadRequestError("Play is required")
	}
	if strings.TrimSpace(in.LeadID) == "" {
		return nil, NewBadRequestError("Lead ID is required")
	}

	var lead domain.Lead
	if err := s.db.WithContext(ctx).Where("id = ?", in.LeadID).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Lead not found")
		}
		return nil, storeError("DEVICE", "Create lead file", err)
	}

	file := &domain.LeadFile{
		LeadID:       lead.ID,
		Play:         *in.Play,
		FileName:     strings.TrimSpace(in.FileName),
		FileSize:     in.FileSize,
		MimeType:     strings.TrimSpace(in.MimeType),
		UploadStatus: domain.UploadCompleted,
	}
	if in.RemoteFilePath != nil && strings.TrimSpace(*in.RemoteFilePath) != "" {
		key := strings.TrimSpace(*in.RemoteFilePath)
		file.RemoteKey = &key
	}
	if file.FileName == "" {
		file.FileName = "unknown"
	}
	if file.FileSize < 0 {
		file.FileSize = 0
	}
	if file.MimeType == "" {
		file.MimeType = "application/octet-stream"
	}

	if err := s.db.WithContext(ctx).Create(file).Error; err != nil {
		if _, unique := database.UniqueViolation(err); unique {
			return nil, NewConflictError("A file with this remote path already exists")
		}
		return nil, storeError("DEVICE", "Create lead file", err)
	}

	log.Printf("[DEVICE] Create lead file successful: id=%s, leadId=%s", file.ID, file.LeadID)
	metrics.RecordLeadFileCreated("upload")
	return newLeadFileResult(file), nil
}
