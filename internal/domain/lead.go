package domain

import (
	"time"

	"activation/internal/ids"

	"gorm.io/gorm"
)

// Lead is a contact record created by a funnel participant or by an
// in-person recording station. Phone is unique; Email is unique when set.
type Lead struct {
	ID         string     `gorm:"primaryKey;size:26" json:"id"`
	FirstName  string     `gorm:"size:255" json:"first_name"`
	LastName   string     `gorm:"size:255" json:"last_name"`
	Email      *string    `gorm:"uniqueIndex:idx_leads_email;size:320" json:"email"`
	Phone      string     `gorm:"uniqueIndex:idx_leads_phone;size:20;not null" json:"phone"`
	AgePassed  bool       `gorm:"default:false" json:"age_passed"`
	Terms      bool       `gorm:"default:false" json:"terms"`
	Survey     bool       `gorm:"default:false" json:"survey"`
	Promotions bool       `gorm:"default:false" json:"promotions"`
	Play       int        `gorm:"not null;default:0" json:"play"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Files      []LeadFile `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// HasEmail reports whether the lead completed the email step.
func (l *Lead) HasEmail() bool {
	return l.Email != nil && *l.Email != ""
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// BeforeCreate hook
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = ids.New()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

// BeforeUpdate hook
func (l *Lead) BeforeUpdate(tx *gorm.DB) error {
	l.UpdatedAt = time.Now().UTC()
	return nil
}
