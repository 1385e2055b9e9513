package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	errs "bloodlink/internal/errors"
)

// RequestStatus is the lifecycle state of a blood request.
type RequestStatus string

const (
	RequestStatusActive    RequestStatus = "active"
	RequestStatusFulfilled RequestStatus = "fulfilled"
	RequestStatusExpired   RequestStatus = "expired"
)

// BloodRequest represents a posted need for blood. Coordinates are required
// because recipient matching is radius-based.
type BloodRequest struct {
	ID             string        `json:"id" gorm:"type:char(36);primaryKey"`
	PatientName    string        `json:"patient_name" gorm:"size:255;not null"`
	BloodGroup     BloodType     `json:"blood_group" gorm:"size:3;not null;index"`
	UnitsRequired  int           `json:"units_required" gorm:"not null"`
	MobileNumber   string        `json:"mobile_number" gorm:"size:32"`
	Gender         string        `json:"gender" gorm:"size:16"`
	RequestDate    time.Time     `json:"request_date"`
	RequestorID    *string       `json:"requestor_id" gorm:"type:char(36);index"`
	RequestorName  string        `json:"requestor_name" gorm:"size:255"`
	SearchRadiusKm float64       `json:"search_radius_km" gorm:"not null"`
	Latitude       float64       `json:"latitude" gorm:"not null"`
	Longitude      float64       `json:"longitude" gorm:"not null"`
	IsUrgent       bool          `json:"is_urgent"`
	Status         RequestStatus `json:"status" gorm:"size:20;not null;default:'active';index"`
	SyncMeta
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID before creating the record.
func (r *BloodRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Validate rejects a malformed request before any persistence happens.
func (r *BloodRequest) Validate() error {
	if r.UnitsRequired <= 0 {
		return errs.ErrInvalidUnits
	}
	if r.SearchRadiusKm <= 0 {
		return errs.ErrInvalidRadius
	}
	if r.Latitude == 0 && r.Longitude == 0 {
		return errs.ErrMissingCoordinates
	}
	if !r.BloodGroup.Valid() {
		return errs.ErrInvalidBloodType
	}
	return nil
}
