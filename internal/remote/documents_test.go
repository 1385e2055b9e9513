package remote

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/model"
)

func TestUserDocument_Validate(t *testing.T) {
	lat, lng := 40.7, -74.0
	valid := func() UserDocument {
		return UserDocument{
			Key:      "u1",
			Name:     "Alex",
			Email:    "alex@example.com",
			UserType: model.UserTypeDonor,
			Donor: &DonorDocument{
				BloodType: model.BloodONeg,
				Latitude:  &lat,
				Longitude: &lng,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*UserDocument)
		wantErr bool
	}{
		{"valid donor", func(d *UserDocument) {}, false},
		{"missing key", func(d *UserDocument) { d.Key = "" }, true},
		{"missing name", func(d *UserDocument) { d.Name = "" }, true},
		{"missing email", func(d *UserDocument) { d.Email = "" }, true},
		{"donor without profile", func(d *UserDocument) { d.Donor = nil }, true},
		{"donor with bad blood type", func(d *UserDocument) { d.Donor.BloodType = "X+" }, true},
		{"unknown user type", func(d *UserDocument) { d.UserType = "admin" }, true},
		{
			"organization without profile",
			func(d *UserDocument) {
				d.UserType = model.UserTypeOrganization
				d.Donor = nil
			},
			true,
		},
		{
			"valid organization",
			func(d *UserDocument) {
				d.UserType = model.UserTypeOrganization
				d.Donor = nil
				d.Organization = &OrganizationDocument{Description: "Hospital"}
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(&doc)
			err := doc.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUserDocument_NeverCarriesPasswordHash(t *testing.T) {
	user := &model.User{
		ID:           "u1",
		Name:         "Alex",
		Email:        "alex@example.com",
		PasswordHash: "$2a$10$secret",
		Type:         model.UserTypeOrganization,
		Organization: &model.OrganizationProfile{Description: "Hospital"},
	}

	raw, err := json.Marshal(UserToDocument(user))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
}

func TestUserDocument_RoundTrip(t *testing.T) {
	lat, lng := 40.7, -74.0
	user := &model.User{
		ID:          "u1",
		Name:        "Alex",
		Email:       "alex@example.com",
		PhoneNumber: "+15550100",
		Type:        model.UserTypeDonor,
		Donor: &model.DonorProfile{
			BloodType:     model.BloodABNeg,
			Latitude:      &lat,
			Longitude:     &lng,
			DonationCount: 3,
		},
	}

	doc := UserToDocument(user)
	require.NoError(t, doc.Validate())

	var applied model.User
	applied.ID = doc.Key
	doc.ApplyTo(&applied)

	assert.Equal(t, user.Name, applied.Name)
	assert.Equal(t, user.Email, applied.Email)
	assert.Equal(t, user.Type, applied.Type)
	require.NotNil(t, applied.Donor)
	assert.Equal(t, model.BloodABNeg, applied.Donor.BloodType)
	assert.Equal(t, 3, applied.Donor.DonationCount)
	assert.Nil(t, applied.Organization)
}

func TestBloodRequestDocument_Validate(t *testing.T) {
	valid := func() BloodRequestDocument {
		return BloodRequestDocument{
			Key:            "r1",
			PatientName:    "Jordan",
			BloodGroup:     model.BloodAPos,
			UnitsRequired:  2,
			SearchRadiusKm: 10,
			Latitude:       40.7,
			Longitude:      -74.0,
			Status:         model.RequestStatusActive,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*BloodRequestDocument)
		wantErr bool
	}{
		{"valid", func(d *BloodRequestDocument) {}, false},
		{"missing key", func(d *BloodRequestDocument) { d.Key = "" }, true},
		{"missing patient name", func(d *BloodRequestDocument) { d.PatientName = "" }, true},
		{"bad blood group", func(d *BloodRequestDocument) { d.BloodGroup = "Z" }, true},
		{"zero units", func(d *BloodRequestDocument) { d.UnitsRequired = 0 }, true},
		{"zero radius", func(d *BloodRequestDocument) { d.SearchRadiusKm = 0 }, true},
		{"bad status", func(d *BloodRequestDocument) { d.Status = "pending" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(&doc)
			err := doc.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// A document decoded from loose JSON with required fields absent must fail
// validation rather than default to a zero record.
func TestBloodRequestDocument_FailsClosedOnPartialJSON(t *testing.T) {
	var doc BloodRequestDocument
	require.NoError(t, json.Unmarshal([]byte(`{"_key":"r1","patient_name":"Jordan"}`), &doc))
	assert.Error(t, doc.Validate())
}

func TestDonationCenterDocument_RoundTrip(t *testing.T) {
	lat, lng := 40.7, -74.0
	center := &model.DonationCenter{
		ID:                 "c1",
		Name:               "Midtown Blood Center",
		City:               "New York",
		Latitude:           &lat,
		Longitude:          &lng,
		AcceptedBloodTypes: []model.BloodType{model.BloodOPos, model.BloodONeg},
		CurrentNeed: map[model.BloodType]model.NeedLevel{
			model.BloodONeg: model.NeedCritical,
		},
		UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for wd := 0; wd < 7; wd++ {
		center.OperatingHours = append(center.OperatingHours, model.OperatingHour{
			CenterID: "c1", Weekday: wd, OpenTime: "09:00", CloseTime: "17:00",
		})
	}

	doc := CenterToDocument(center)
	require.NoError(t, doc.Validate())
	assert.Len(t, doc.OperatingHours, 7)

	applied := model.DonationCenter{ID: doc.Key}
	doc.ApplyTo(&applied)

	assert.Equal(t, center.Name, applied.Name)
	assert.Equal(t, center.AcceptedBloodTypes, applied.AcceptedBloodTypes)
	assert.Equal(t, model.NeedCritical, applied.CurrentNeed[model.BloodONeg])
	require.Len(t, applied.OperatingHours, 7)
	for _, h := range applied.OperatingHours {
		assert.Equal(t, "c1", h.CenterID)
	}
}

func TestDonationCenterDocument_Validate(t *testing.T) {
	doc := DonationCenterDocument{Key: "c1", Name: "Center"}
	assert.NoError(t, doc.Validate())

	doc.OperatingHours = []OperatingHourDocument{{Weekday: 7}}
	assert.Error(t, doc.Validate())

	doc.OperatingHours = nil
	doc.AcceptedBloodTypes = []model.BloodType{"Q-"}
	assert.Error(t, doc.Validate())

	assert.Error(t, (&DonationCenterDocument{Name: "no key"}).Validate())
	assert.Error(t, (&DonationCenterDocument{Key: "no-name"}).Validate())
}
