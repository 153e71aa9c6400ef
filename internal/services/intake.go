package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"activation/internal/database"
	"activation/internal/domain"
	"activation/internal/metrics"
	"activation/internal/util"
)

const (
	msgPhoneRegistered = "You're already registered, thank you!"
	msgEmailRegistered = "This email address is already registered."
	msgInfoRegistered  = "This information is already registered."
)

// CreateLeadInput is the public registration form.
type CreateLeadInput struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      *string `json:"email"`
	Phone      string  `json:"phone"`
	AgePassed  bool    `json:"agePassed"`
	Terms      bool    `json:"terms"`
	Survey     bool    `json:"survey"`
	Promotions bool    `json:"promotions"`
	Play       int     `json:"play"`
}

// LeadResult is a lead as returned to API callers.
type LeadResult struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           *string   `json:"email"`
	Phone           string    `json:"phone"`
	AgePassed       bool      `json:"agePassed"`
	Terms           bool      `json:"terms"`
	Survey          bool      `json:"survey"`
	Promotions      bool      `json:"promotions"`
	Play            int       `json:"play"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	HasParticipated *bool     `json:"hasParticipated,omitempty"`
	FileCount       *int      `json:"fileCount,omitempty"`
}

func newLeadResult(lead *domain.Lead) *LeadResult {
	return &LeadResult{
		ID:         lead.ID,
		FirstName:  lead.FirstName,
		LastName:   lead.LastName,
		Email:      lead.Email,
		Phone:      lead.Phone,
		AgePassed:  lead.AgePassed,
		Terms:      lead.Terms,
		Survey:     lead.Survey,
		Promotions: lead.Promotions,
		Play:       lead.Play,
		CreatedAt:  lead.CreatedAt,
		UpdatedAt:  lead.UpdatedAt,
	}
}

// ReturningLead is all the public funnel learns about an existing lead.
type ReturningLead struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	Play      int    `json:"play"`
}

func newReturningLead(lead *domain.Lead) *ReturningLead {
	return &ReturningLead{ID: lead.ID, FirstName: lead.FirstName, Play: lead.Play}
}

// LeadService implements lead intake for the public funnel and the lead
// views of the dashboard.
type LeadService struct {
	db        *gorm.DB
	playCount int
}

// NewLeadService creates a new lead service
func NewLeadService(db *gorm.DB, playCount int) *LeadService {
	return &LeadService{db: db, playCount: playCount}
}

// leadFields is the validated form of CreateLeadInput.
type leadFields struct {
	firstName  string
	lastName   string
	email      *string
	phone      string
	agePassed  bool
	terms      bool
	survey     bool
	promotions bool
	play       int
}

// validate checks the form in a fixed order and stops at the first problem.
func (s *LeadService) validate(in *CreateLeadInput) (*leadFields, error) {
	f := &leadFields{
		firstName:  strings.TrimSpace(in.FirstName),
		lastName:   strings.TrimSpace(in.LastName),
		agePassed:  in.AgePassed,
		terms:      in.Terms,
		survey:     in.Survey,
		promotions: in.Promotions,
		play:       in.Play,
	}

	if f.firstName == "" {
		return nil, NewBadRequestError("First name is required")
	}
	if f.lastName == "" {
		return nil, NewBadRequestError("Last name is required")
	}
	if in.AgePassed {
		if in.Email == nil || strings.TrimSpace(*in.Email) == "" {
			return nil, NewBadRequestError("Email is required")
		}
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		f.email = &email
	}
	if !in.Terms {
		return nil, NewBadRequestError("You must accept the terms and conditions")
	}

	phone, err := util.NormalizePhone(in.Phone)
	if err != nil {
		return nil, NewBadRequestError(err.Error())
	}
	f.phone = phone

	if err := s.validatePlay(in.Play); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *LeadService) validatePlay(play int) error {
	if play < 0 || (s.playCount > 0 && play >= s.playCount) {
		return NewBadRequestError(fmt.Sprintf("Play must be between 0 and %d", s.playCount-1))
	}
	return nil
}

// CreateLead registers a funnel participant. A phone that is already on file
// without an email is completed in place when this submission carries one.
func (s *LeadService) CreateLead(ctx context.Context, in *CreateLeadInput) (*LeadResult, error) {
	fields, err := s.validate(in)
	if err != nil {
		log.Printf("[LEAD] Create failed: validation error: %v", err)
		metrics.RecordLeadSubmission("invalid")
		return nil, err
	}

	lead := &domain.Lead{
		FirstName:  fields.firstName,
		LastName:   fields.lastName,
		Email:      fields.email,
		Phone:      fields.phone,
		AgePassed:  fields.agePassed,
		Terms:      fields.terms,
		Survey:     fields.survey,
		Promotions: fields.promotions,
		Play:       fields.play,
	}

	start := time.Now()
	err = s.db.WithContext(ctx).Create(lead).Error
	metrics.RecordDBQuery("create_lead", time.Since(start), err)
	if err == nil {
		log.Printf("[LEAD] Create successful: id=%s, phone=%s", lead.ID, lead.Phone)
		metrics.RecordLeadSubmission("created")
		return newLeadResult(lead), nil
	}

	column, unique := database.UniqueViolation(err)
	if !unique {
		metrics.RecordLeadSubmission("error")
		return nil, storeError("LEAD", "Create", err)
	}

	switch {
	case strings.Contains(column, "email"):
		log.Printf("[LEAD] Create failed: email already registered, phone=%s", lead.Phone)
		metrics.RecordLeadSubmission("conflict")
		return nil, NewConflictError(msgEmailRegistered)
	case strings.Contains(column, "phone"):
		return s.mergeIntoExisting(ctx, fields)
	default:
		log.Printf("[LEAD] Create failed: unique violation on %q: %v", column, err)
		metrics.RecordLeadSubmission("conflict")
		return nil, NewConflictError(msgInfoRegistered)
	}
}

// mergeIntoExisting completes a phone-only registration, typically one made
// at an in-person recording station.
func (s *LeadService) mergeIntoExisting(ctx context.Context, fields *leadFields) (*LeadResult, error) {
	var existing domain.Lead
	err := s.db.WithContext(ctx).Where("phone = ?", fields.phone).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The colliding row vanished between insert and lookup.
			metrics.RecordLeadSubmission("conflict")
			return nil, NewConflictError(msgPhoneRegistered)
		}
		metrics.RecordLeadSubmission("error")
		return nil, storeError("LEAD", "Merge lookup", err)
	}

	if existing.HasEmail() || fields.email == nil {
		log.Printf("[LEAD] Create failed: phone already registered, phone=%s", fields.phone)
		metrics.RecordLeadSubmission("conflict")
		return nil, NewConflictError(msgPhoneRegistered)
	}

	existing.Email = fields.email
	existing.FirstName = fields.firstName
	existing.LastName = fields.lastName
	existing.AgePassed = fields.agePassed
	existing.Terms = fields.terms
	existing.Survey = fields.survey
	existing.Promotions = fields.promotions
	existing.Play = fields.play

	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		if column, unique := database.UniqueViolation(err); unique {
			metrics.RecordLeadSubmission("conflict")
			if strings.Contains(column, "email") {
				return nil, NewConflictError(msgEmailRegistered)
			}
			return nil, NewConflictError(msgInfoRegistered)
		}
		metrics.RecordLeadSubmission("error")
		return nil, storeError("LEAD", "Merge", err)
	}

	log.Printf("[LEAD] Create successful: merged into id=%s, phone=%s", existing.ID, existing.Phone)
	metrics.RecordLeadSubmission("merged")
	return newLeadResult(&existing), nil
}

// LookupByPhone finds a lead so a returning participant can resume.
func (s *LeadService) LookupByPhone(ctx context.Context, phone string) (*ReturningLead, error) {
	normalized, err := util.NormalizePhone(phone)
	if err != nil {
		return nil, NewBadRequestError(err.Error())
	}

	var lead domain.Lead
	if err := s.db.WithContext(ctx).Where("phone = ?", normalized).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Lead not found")
		}
		return nil, storeError("LEAD", "Lookup", err)
	}

	log.Printf("[LEAD] Lookup successful: id=%s", lead.ID)
	return newReturningLead(&lead), nil
}

// UpdatePlaySelection records the content variant a returning participant
// picked.
func (s *LeadService) UpdatePlaySelection(ctx context.Context, leadID string, play int) (*ReturningLead, error) {
	if err := s.validatePlay(play); err != nil {
		return nil, err
	}

	var lead domain.Lead
	if err := s.db.WithContext(ctx).Where("id = ?", leadID).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("Lead not found")
		}
		return nil, storeError("LEAD", "Update play", err)
	}

	if err := s.db.WithContext(ctx).Model(&lead).Update("play", play).Error; err != nil {
		return nil, storeError("LEAD", "Update play", err)
	}
	lead.Play = play

	log.Printf("[LEAD] Update play successful: id=%s, play=%d", lead.ID, play)
	return newReturningLead(&lead), nil
}
