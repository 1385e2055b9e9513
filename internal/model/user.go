package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	errs "bloodlink/internal/errors"
)

// UserType discriminates the two user roles.
type UserType string

const (
	UserTypeDonor        UserType = "donor"
	UserTypeOrganization UserType = "organization"
)

// DonorProfile holds the donor-only attributes.
type DonorProfile struct {
	BloodType        BloodType  `json:"blood_type" gorm:"size:3"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	DonationCount    int        `json:"donation_count"`
	LastDonationDate *time.Time `json:"last_donation_date"`
}

// OrganizationProfile holds the organization-only attributes.
type OrganizationProfile struct {
	Description  string `json:"description" gorm:"size:1024"`
	WorkingHours string `json:"working_hours" gorm:"size:255"`
}

// User represents a donor or an organization. Exactly one of the two role
// profiles is populated, matching Type.
type User struct {
	ID           string               `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string               `json:"name" gorm:"size:255;not null"`
	Email        string               `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string               `json:"-" gorm:"size:255"` // Never expose in JSON
	PhoneNumber  string               `json:"phone_number" gorm:"size:32"`
	Type         UserType             `json:"user_type" gorm:"size:20;not null;index"`
	Donor        *DonorProfile        `json:"donor,omitempty" gorm:"embedded;embeddedPrefix:donor_"`
	Organization *OrganizationProfile `json:"organization,omitempty" gorm:"embedded;embeddedPrefix:org_"`
	SyncMeta
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Validate enforces the role invariant: the populated profile must match
// Type, and a donor's blood type must be one of the eight groups.
func (u *User) Validate() error {
	switch u.Type {
	case UserTypeDonor:
		if u.Donor == nil || u.Organization != nil {
			return errs.ErrInvalidRole
		}
		if !u.Donor.BloodType.Valid() {
			return errs.ErrInvalidBloodType
		}
	case UserTypeOrganization:
		if u.Organization == nil || u.Donor != nil {
			return errs.ErrInvalidRole
		}
	default:
		return errs.ErrInvalidRole
	}
	return nil
}

// Coordinates returns the donor's location. ok is false for organizations
// and for donors who never shared a location.
func (u *User) Coordinates() (lat, lng float64, ok bool) {
	if u.Donor == nil || u.Donor.Latitude == nil || u.Donor.Longitude == nil {
		return 0, 0, false
	}
	return *u.Donor.Latitude, *u.Donor.Longitude, true
}
