package remote

import (
	"fmt"
	"time"

	"bloodlink/internal/model"
)

// Per-entity document schemas for the remote store. Documents are explicit
// structs, not loose maps; decoding fails closed when a required field is
// missing rather than silently defaulting.

// DonorDocument is the donor-role slice of a user document.
type DonorDocument struct {
	BloodType        model.BloodType `json:"blood_type"`
	Latitude         *float64        `json:"latitude,omitempty"`
	Longitude        *float64        `json:"longitude,omitempty"`
	DonationCount    int             `json:"donation_count"`
	LastDonationDate *time.Time      `json:"last_donation_date,omitempty"`
}

// OrganizationDocument is the organization-role slice of a user document.
type OrganizationDocument struct {
	Description  string `json:"description"`
	WorkingHours string `json:"working_hours"`
}

// UserDocument is the remote representation of a user. The password hash is
// local-only credential material and never leaves the device.
type UserDocument struct {
	Key          string                `json:"_key"`
	Name         string                `json:"name"`
	Email        string                `json:"email"`
	PhoneNumber  string                `json:"phone_number"`
	UserType     model.UserType        `json:"user_type"`
	Donor        *DonorDocument        `json:"donor,omitempty"`
	Organization *OrganizationDocument `json:"organization,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// Validate fails closed on missing required fields.
func (d *UserDocument) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("user document: missing _key")
	}
	if d.Name == "" || d.Email == "" {
		return fmt.Errorf("user document %s: missing name or email", d.Key)
	}
	switch d.UserType {
	case model.UserTypeDonor:
		if d.Donor == nil {
			return fmt.Errorf("user document %s: donor profile missing", d.Key)
		}
		if !d.Donor.BloodType.Valid() {
			return fmt.Errorf("user document %s: invalid blood type %q", d.Key, d.Donor.BloodType)
		}
	case model.UserTypeOrganization:
		if d.Organization == nil {
			return fmt.Errorf("user document %s: organization profile missing", d.Key)
		}
	default:
		return fmt.Errorf("user document %s: invalid user type %q", d.Key, d.UserType)
	}
	return nil
}

// UserToDocument converts a local user to its remote representation, keyed
// by the record's local id.
func UserToDocument(u *model.User) *UserDocument {
	doc := &UserDocument{
		Key:         u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		UserType:    u.Type,
		UpdatedAt:   u.UpdatedAt,
	}
	if u.Donor != nil {
		d := DonorDocument(*u.Donor)
		doc.Donor = &d
	}
	if u.Organization != nil {
		o := OrganizationDocument(*u.Organization)
		doc.Organization = &o
	}
	return doc
}

// ApplyTo overwrites the local record's fields from the remote document.
// Identity, credential material and sync stamps are left to the caller.
func (d *UserDocument) ApplyTo(u *model.User) {
	u.Name = d.Name
	u.Email = d.Email
	u.PhoneNumber = d.PhoneNumber
	u.Type = d.UserType
	u.Donor = nil
	u.Organization = nil
	if d.Donor != nil {
		p := model.DonorProfile(*d.Donor)
		u.Donor = &p
	}
	if d.Organization != nil {
		p := model.OrganizationProfile(*d.Organization)
		u.Organization = &p
	}
}

// BloodRequestDocument is the remote representation of a blood request.
type BloodRequestDocument struct {
	Key            string              `json:"_key"`
	PatientName    string              `json:"patient_name"`
	BloodGroup     model.BloodType     `json:"blood_group"`
	UnitsRequired  int                 `json:"units_required"`
	MobileNumber   string              `json:"mobile_number"`
	Gender         string              `json:"gender"`
	RequestDate    time.Time           `json:"request_date"`
	RequestorID    *string             `json:"requestor_id,omitempty"`
	RequestorName  string              `json:"requestor_name"`
	SearchRadiusKm float64             `json:"search_radius_km"`
	Latitude       float64             `json:"latitude"`
	Longitude      float64             `json:"longitude"`
	IsUrgent       bool                `json:"is_urgent"`
	Status         model.RequestStatus `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Validate fails closed on missing required fields.
func (d *BloodRequestDocument) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("request document: missing _key")
	}
	if d.PatientName == "" {
		return fmt.Errorf("request document %s: missing patient name", d.Key)
	}
	if !d.BloodGroup.Valid() {
		return fmt.Errorf("request document %s: invalid blood group %q", d.Key, d.BloodGroup)
	}
	if d.UnitsRequired <= 0 {
		return fmt.Errorf("request document %s: non-positive units", d.Key)
	}
	if d.SearchRadiusKm <= 0 {
		return fmt.Errorf("request document %s: non-positive radius", d.Key)
	}
	switch d.Status {
	case model.RequestStatusActive, model.RequestStatusFulfilled, model.RequestStatusExpired:
	default:
		return fmt.Errorf("request document %s: invalid status %q", d.Key, d.Status)
	}
	return nil
}

// RequestToDocument converts a local request to its remote representation.
func RequestToDocument(r *model.BloodRequest) *BloodRequestDocument {
	return &BloodRequestDocument{
		Key:            r.ID,
		PatientName:    r.PatientName,
		BloodGroup:     r.BloodGroup,
		UnitsRequired:  r.UnitsRequired,
		MobileNumber:   r.MobileNumber,
		Gender:         r.Gender,
		RequestDate:    r.RequestDate,
		RequestorID:    r.RequestorID,
		RequestorName:  r.RequestorName,
		SearchRadiusKm: r.SearchRadiusKm,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		IsUrgent:       r.IsUrgent,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ApplyTo overwrites the local record's fields from the remote document.
func (d *BloodRequestDocument) ApplyTo(r *model.BloodRequest) {
	r.PatientName = d.PatientName
	r.BloodGroup = d.BloodGroup
	r.UnitsRequired = d.UnitsRequired
	r.MobileNumber = d.MobileNumber
	r.Gender = d.Gender
	r.RequestDate = d.RequestDate
	r.RequestorID = d.RequestorID
	r.RequestorName = d.RequestorName
	r.SearchRadiusKm = d.SearchRadiusKm
	r.Latitude = d.Latitude
	r.Longitude = d.Longitude
	r.IsUrgent = d.IsUrgent
	r.Status = d.Status
}

// OperatingHourDocument is one weekday entry inside a center document.
type OperatingHourDocument struct {
	Weekday   int    `json:"weekday"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsClosed  bool   `json:"is_closed"`
}

// DonationCenterDocument is the remote representation of a donation center.
// The weekly schedule travels embedded in the parent document and is
// rebuilt as child rows on download.
type DonationCenterDocument struct {
	Key                string                              `json:"_key"`
	Name               string                              `json:"name"`
	AddressLine        string                              `json:"address_line"`
	City               string                              `json:"city"`
	Region             string                              `json:"region"`
	PostalCode         string                              `json:"postal_code"`
	Country            string                              `json:"country"`
	Latitude           *float64                            `json:"latitude,omitempty"`
	Longitude          *float64                            `json:"longitude,omitempty"`
	AcceptedBloodTypes []model.BloodType                   `json:"accepted_blood_types"`
	CurrentNeed        map[model.BloodType]model.NeedLevel `json:"current_need"`
	OperatingHours     []OperatingHourDocument             `json:"operating_hours"`
	UpdatedAt          time.Time                           `json:"updated_at"`
}

// Validate fails closed on missing required fields.
func (d *DonationCenterDocument) Validate() error {
	if d.Key == "" {
		return fmt.Errorf("center document: missing _key")
	}
	if d.Name == "" {
		return fmt.Errorf("center document %s: missing name", d.Key)
	}
	for _, h := range d.OperatingHours {
		if h.Weekday < 0 || h.Weekday > 6 {
			return fmt.Errorf("center document %s: weekday %d out of range", d.Key, h.Weekday)
		}
	}
	for _, t := range d.AcceptedBloodTypes {
		if !t.Valid() {
			return fmt.Errorf("center document %s: invalid blood type %q", d.Key, t)
		}
	}
	return nil
}

// CenterToDocument converts a local center to its remote representation.
func CenterToDocument(c *model.DonationCenter) *DonationCenterDocument {
	doc := &DonationCenterDocument{
		Key:                c.ID,
		Name:               c.Name,
		AddressLine:        c.AddressLine,
		City:               c.City,
		Region:             c.Region,
		PostalCode:         c.PostalCode,
		Country:            c.Country,
		Latitude:           c.Latitude,
		Longitude:          c.Longitude,
		AcceptedBloodTypes: c.AcceptedBloodTypes,
		CurrentNeed:        c.CurrentNeed,
		UpdatedAt:          c.UpdatedAt,
	}
	for _, h := range c.OperatingHours {
		doc.OperatingHours = append(doc.OperatingHours, OperatingHourDocument{
			Weekday:   h.Weekday,
			OpenTime:  h.OpenTime,
			CloseTime: h.CloseTime,
			IsClosed:  h.IsClosed,
		})
	}
	return doc
}

// ApplyTo overwrites the local record's fields from the remote document,
// replacing the whole weekly schedule.
func (d *DonationCenterDocument) ApplyTo(c *model.DonationCenter) {
	c.Name = d.Name
	c.AddressLine = d.AddressLine
	c.City = d.City
	c.Region = d.Region
	c.PostalCode = d.PostalCode
	c.Country = d.Country
	c.Latitude = d.Latitude
	c.Longitude = d.Longitude
	c.AcceptedBloodTypes = d.AcceptedBloodTypes
	c.CurrentNeed = d.CurrentNeed
	c.OperatingHours = c.OperatingHours[:0]
	for _, h := range d.OperatingHours {
		c.OperatingHours = append(c.OperatingHours, model.OperatingHour{
			CenterID:  c.ID,
			Weekday:   h.Weekday,
			OpenTime:  h.OpenTime,
			CloseTime: h.CloseTime,
			IsClosed:  h.IsClosed,
		})
	}
}
