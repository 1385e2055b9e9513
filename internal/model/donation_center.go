package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	errs "bloodlink/internal/errors"
)

// OperatingHour is one weekday's schedule for a donation center. The seven
// rows of a center are replaced together, never partially.
type OperatingHour struct {
	ID        string `json:"id" gorm:"type:char(36);primaryKey"`
	CenterID  string `json:"center_id" gorm:"type:char(36);not null;index"`
	Weekday   int    `json:"weekday" gorm:"not null"` // 0 = Sunday .. 6 = Saturday
	OpenTime  string `json:"open_time" gorm:"size:5"` // "09:00"
	CloseTime string `json:"close_time" gorm:"size:5"`
	IsClosed  bool   `json:"is_closed"`
	SyncMeta
}

// BeforeCreate assigns a UUID before creating the record.
func (h *OperatingHour) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// DonationCenter represents a blood donation center and its weekly schedule.
type DonationCenter struct {
	ID                 string                  `json:"id" gorm:"type:char(36);primaryKey"`
	Name               string                  `json:"name" gorm:"size:255;not null"`
	AddressLine        string                  `json:"address_line" gorm:"size:512"`
	City               string                  `json:"city" gorm:"size:128"`
	Region             string                  `json:"region" gorm:"size:128"`
	PostalCode         string                  `json:"postal_code" gorm:"size:32"`
	Country            string                  `json:"country" gorm:"size:64"`
	Latitude           *float64                `json:"latitude"`
	Longitude          *float64                `json:"longitude"`
	AcceptedBloodTypes []BloodType             `json:"accepted_blood_types" gorm:"serializer:json"`
	CurrentNeed        map[BloodType]NeedLevel `json:"current_need" gorm:"serializer:json"`
	OperatingHours     []OperatingHour         `json:"operating_hours" gorm:"foreignKey:CenterID;constraint:OnDelete:CASCADE"`
	SyncMeta
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID before creating the record.
func (c *DonationCenter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Validate checks the weekly schedule: exactly one entry per weekday.
func (c *DonationCenter) Validate() error {
	if len(c.OperatingHours) != 7 {
		return errs.ErrInvalidOperatingHours
	}
	seen := [7]bool{}
	for _, h := range c.OperatingHours {
		if h.Weekday < 0 || h.Weekday > 6 || seen[h.Weekday] {
			return errs.ErrInvalidOperatingHours
		}
		seen[h.Weekday] = true
	}
	for _, t := range c.AcceptedBloodTypes {
		if !t.Valid() {
			return errs.ErrInvalidBloodType
		}
	}
	return nil
}
