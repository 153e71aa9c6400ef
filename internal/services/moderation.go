package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"activation/internal/config"
	"activation/internal/domain"
	"activation/internal/metrics"
	"activation/internal/storage"
	apperrors "activation/pkg/errors"
)

const defaultCampaignName = "AT&T - Commentator 2025"

var errShareURLNotConfigured = errors.New("SMS_BASE_URL is not configured")

// Notifier delivers a text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, to, body string) (string, error)
	IsEnabled() bool
}

// URLSigner issues time-limited URLs for stored objects.
type URLSigner interface {
	SignURL(ctx context.Context, key string, ttl time.Duration, forDownload bool) (string, error)
}

// ModerateInput is a reviewer's decision on a lead file.
type ModerateInput struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// ModerationResult reports the stored decision and the notification outcome.
type ModerationResult struct {
	File    *LeadFileResult `json:"file"`
	SMSSent bool            `json:"smsSent"`
	SMSErr  *string         `json:"smsError,omitempty"`
}

// SignedURL is a capability URL together with its lifetime.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresIn int       `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PublicInfo is what the share page may learn about a file.
type PublicInfo struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	MimeType    string     `json:"mimeType,omitempty"`
	PlayURL     *string    `json:"playUrl"`
	DownloadURL *string    `json:"downloadUrl"`
	ExpiresIn   *int       `json:"expiresIn"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// ModerationService drives lead files through review and notifies the
// participant of the outcome.
type ModerationService struct {
	db       *gorm.DB
	notifier Notifier
	signer   URLSigner
	cfg      *config.SMSConfig
	urlTTL   time.Duration
}

// NewModerationService creates a new moderation service
func NewModerationService(db *gorm.DB, notifier Notifier, signer URLSigner, cfg *config.SMSConfig, urlTTL time.Duration) *ModerationService {
	if urlTTL <= 0 {
		urlTTL = time.Hour
	}
	return &ModerationService{
		db:       db,
		notifier: notifier,
		signer:   signer,
		cfg:      cfg,
		urlTTL:   urlTTL,
	}
}

func (s *ModerationService) loadFile(ctx context.Context, op, fileID string) (*domain.LeadFile, error) {
	var file domain.LeadFile
	if err := s.db.WithContext(ctx).Preload("Lead").Where("id = ?", fileID).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("File not found")
		}
		return nil, storeError("MODERATION", op, err)
	}
	return &file, nil
}

// Moderate records a review decision. When the status changes and automatic
// notifications are on, the participant is texted afterwards; a failed text
// is recorded on the file and never undoes the decision.
func (s *ModerationService) Moderate(ctx context.Context, caller *Caller, fileID string, in *ModerateInput) (*ModerationResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	status := domain.ModerationStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !status.Decided() {
		return nil, NewBadRequestError("Status must be approved or rejected")
	}

	file, err := s.loadFile(ctx, "Moderate", fileID)
	if err != nil {
		return nil, err
	}

	changed := file.ModerationStatus != status
	now := time.Now().UTC()
	moderator := caller.UserID
	var notes *string
	if in.Notes != nil && strings.TrimSpace(*in.Notes) != "" {
		trimmed := strings.TrimSpace(*in.Notes)
		notes = &trimmed
	}

	updates := map[string]interface{}{
		"moderation_status": status,
		"moderated_by":      moderator,
		"moderated_at":      now,
		"moderation_notes":  notes,
	}
	if changed {
		// A new decision starts a new notification cycle.
		updates["sms_sent_at"] = nil
		updates["sms_error"] = nil
	}
	if err := s.db.WithContext(ctx).Model(file).Updates(updates).Error; err != nil {
		return nil, storeError("MODERATION", "Moderate", err)
	}

	file.ModerationStatus = status
	file.ModeratedBy = &moderator
	file.ModeratedAt = &now
	file.ModerationNotes = notes
	if changed {
		file.SMSSentAt = nil
		file.SMSError = nil
	}

	log.Printf("[MODERATION] Moderate successful: id=%s, status=%s, by=%s", file.ID, status, moderator)
	metrics.RecordModerationDecision(string(status))

	result := &ModerationResult{}
	if changed && s.cfg.AutoSend && s.notifier.IsEnabled() {
		if err := s.notify(ctx, file); err != nil {
			msg := err.Error()
			result.SMSErr = &msg
		} else {
			result.SMSSent = true
		}
	}
	result.File = newLeadFileResult(file)
	return result, nil
}

// ForceSend re-sends the notification that matches the file's current
// decision.
func (s *ModerationService) ForceSend(ctx context.Context, caller *Caller, fileID string) (*ModerationResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	file, err := s.loadFile(ctx, "Force send", fileID)
	if err != nil {
		return nil, err
	}
	if !file.ModerationStatus.Decided() {
		return nil, NewBadRequestError("File has not been moderated yet")
	}
	if !s.notifier.IsEnabled() {
		return nil, NewPreconditionFailedError("SMS notifications are disabled")
	}
	if file.ModerationStatus == domain.ModerationApproved && s.cfg.BaseURL == "" {
		return nil, NewPreconditionFailedError(errShareURLNotConfigured.Error())
	}

	result := &ModerationResult{}
	if err := s.notify(ctx, file); err != nil {
		if errors.Is(err, ErrSMSNotConfigured) {
			return nil, NewPreconditionFailedError(err.Error())
		}
		msg := err.Error()
		result.SMSErr = &msg
	} else {
		result.SMSSent = true
	}
	result.File = newLeadFileResult(file)
	return result, nil
}

// notify sends the message for the file's decision and stores the outcome
// on the file.
func (s *ModerationService) notify(ctx context.Context, file *domain.LeadFile) error {
	kind := string(file.ModerationStatus)
	sendErr := s.sendDecision(ctx, file)
	metrics.RecordSMS(kind, sendErr == nil)

	var updates map[string]interface{}
	if sendErr != nil {
		log.Printf("[MODERATION] Notification failed: id=%s, status=%s: %v", file.ID, kind, sendErr)
		msg := sendErr.Error()
		file.SMSError = &msg
		updates = map[string]interface{}{"sms_error": msg}
	} else {
		now := time.Now().UTC()
		file.SMSSentAt = &now
		file.SMSError = nil
		updates = map[string]interface{}{"sms_sent_at": now, "sms_error": nil}
		log.Printf("[MODERATION] Notification sent: id=%s, status=%s", file.ID, kind)
	}

	if err := s.db.WithContext(ctx).Model(file).Updates(updates).Error; err != nil {
		log.Printf("[MODERATION] Warning: failed to record notification outcome for id=%s: %v", file.ID, err)
	}
	return sendErr
}

func (s *ModerationService) sendDecision(ctx context.Context, file *domain.LeadFile) error {
	if file.Lead == nil || file.Lead.Phone == "" {
		return errors.New("lead has no phone number")
	}

	var body string
	switch file.ModerationStatus {
	case domain.ModerationApproved:
		if s.cfg.BaseURL == "" {
			return errShareURLNotConfigured
		}
		body = s.shareMessage(file.ID)
	case domain.ModerationRejected:
		body = s.rejectedMessage()
	default:
		return fmt.Errorf("no message for status %q", file.ModerationStatus)
	}

	_, err := s.notifier.Send(ctx, file.Lead.Phone, body)
	return err
}

func (s *ModerationService) campaign() string {
	if s.cfg.CampaignName != "" {
		return s.cfg.CampaignName
	}
	return defaultCampaignName
}

func (s *ModerationService) shareMessage(fileID string) string {
	shareURL := strings.TrimRight(s.cfg.BaseURL, "/") + "/s/" + fileID
	return s.campaign() + "\n\nThank you for participating.\nCheck out your final video!\n\n" + shareURL
}

func (s *ModerationService) rejectedMessage() string {
	return s.campaign() + "\n\nThank you for participating.\nUnfortunately, we were unable to process your video.\n\nWe appreciate your understanding."
}

// ListQueue returns files for review, newest first, optionally narrowed to
// one status.
func (s *ModerationService) ListQueue(ctx context.Context, caller *Caller, status string) ([]*LeadFileResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Preload("Lead").Order("created_at DESC").Order("id DESC")
	if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
		if !domain.ModerationStatus(status).Valid() {
			return nil, NewBadRequestError("Status must be pending, approved or rejected")
		}
		tx = tx.Where("moderation_status = ?", status)
	}

	var files []domain.LeadFile
	if err := tx.Find(&files).Error; err != nil {
		return nil, storeError("MODERATION", "List queue", err)
	}

	results := make([]*LeadFileResult, len(files))
	for i := range files {
		results[i] = newLeadFileResult(&files[i])
	}
	return results, nil
}

// GetPublicInfo backs the unauthenticated share page. Only approved files get
// signed URLs.
func (s *ModerationService) GetPublicInfo(ctx context.Context, fileID string) (*PublicInfo, error) {
	file, err := s.loadFile(ctx, "Public info", fileID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, NewNotFoundError("Video file not found")
		}
		return nil, err
	}

	info := &PublicInfo{ID: file.ID, Status: string(file.ModerationStatus)}
	if file.ModerationStatus != domain.ModerationApproved {
		return info, nil
	}

	play, err := s.sign(ctx, file, false)
	if err != nil {
		return nil, err
	}
	download, err := s.sign(ctx, file, true)
	if err != nil {
		return nil, err
	}

	info.MimeType = file.MimeType
	info.PlayURL = &play.URL
	info.DownloadURL = &download.URL
	info.ExpiresIn = &play.ExpiresIn
	info.ExpiresAt = &play.ExpiresAt
	return info, nil
}

// VideoURL signs a playback URL for staff preview regardless of decision.
func (s *ModerationService) VideoURL(ctx context.Context, caller *Caller, fileID string) (*SignedURL, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	file, err := s.loadFile(ctx, "Video URL", fileID)
	if err != nil {
		return nil, err
	}
	return s.sign(ctx, file, false)
}

func (s *ModerationService) sign(ctx context.Context, file *domain.LeadFile, forDownload bool) (*SignedURL, error) {
	if file.RemoteKey == nil || *file.RemoteKey == "" {
		return nil, NewNotFoundError("Video file not found")
	}

	issued := time.Now().UTC()
	url, err := s.signer.SignURL(ctx, *file.RemoteKey, s.urlTTL, forDownload)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrObjectNotFound):
			return nil, NewNotFoundError("Video file not found")
		case errors.Is(err, storage.ErrNotConfigured):
			return nil, NewPreconditionFailedError("Object storage is not configured")
		default:
			log.Printf("[STORAGE] Sign URL failed: id=%s: %v", file.ID, err)
			return nil, NewInternalError(msgInternal, err)
		}
	}

	return &SignedURL{
		URL:       url,
		ExpiresIn: int(s.urlTTL / time.Second),
		ExpiresAt: issued.Add(s.urlTTL),
	}, nil
}
