package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	errs "bloodlink/internal/errors"
	"bloodlink/internal/geo"
	"bloodlink/internal/model"
	"bloodlink/internal/repository"
)

// CenterService exposes donation center domain operations.
type CenterService interface {
	CreateCenter(ctx context.Context, center *model.DonationCenter) (*model.DonationCenter, error)
	UpdateCenter(ctx context.Context, center *model.DonationCenter) (*model.DonationCenter, error)
	DeleteCenter(ctx context.Context, id string) error
	GetCenter(ctx context.Context, id string) (*model.DonationCenter, error)
	ListCenters(ctx context.Context) ([]model.DonationCenter, error)
	ListCentersAccepting(ctx context.Context, bloodType model.BloodType) ([]model.DonationCenter, error)
}

type centerService struct {
	repo     repository.CenterRepository
	geocoder geo.Geocoder
	logger   *zap.Logger
}

// NewCenterService builds a CenterService. geocoder may be nil when no
// geocoding collaborator is configured.
func NewCenterService(repo repository.CenterRepository, geocoder geo.Geocoder, logger *zap.Logger) CenterService {
	return &centerService{repo: repo, geocoder: geocoder, logger: logger}
}

// CreateCenter persists a center. When coordinates are absent they are
// resolved from the address through the geocoder collaborator.
func (s *centerService) CreateCenter(ctx context.Context, center *model.DonationCenter) (*model.DonationCenter, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}

	if center.Latitude == nil || center.Longitude == nil {
		if err := s.geocode(ctx, center); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, center); err != nil {
		return nil, fmt.Errorf("persist center: %w", err)
	}
	return center, nil
}

// UpdateCenter saves edits, replacing the seven operating-hour rows
// atomically with the parent.
func (s *centerService) UpdateCenter(ctx context.Context, center *model.DonationCenter) (*model.DonationCenter, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, center.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCenterNotFound
		}
		return nil, fmt.Errorf("load center: %w", err)
	}

	center.CloudID = existing.CloudID
	center.CreatedAt = existing.CreatedAt
	center.MarkDirty()
	if err := s.repo.Update(ctx, center); err != nil {
		return nil, fmt.Errorf("persist center: %w", err)
	}
	return center, nil
}

func (s *centerService) DeleteCenter(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrCenterNotFound
		}
		return fmt.Errorf("load center: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func (s *centerService) GetCenter(ctx context.Context, id string) (*model.DonationCenter, error) {
	center, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCenterNotFound
		}
		return nil, err
	}
	return center, nil
}

func (s *centerService) ListCenters(ctx context.Context) ([]model.DonationCenter, error) {
	return s.repo.List(ctx)
}

// ListCentersAccepting filters centers by an accepted blood type.
func (s *centerService) ListCentersAccepting(ctx context.Context, bloodType model.BloodType) ([]model.DonationCenter, error) {
	if !bloodType.Valid() {
		return nil, errs.ErrInvalidBloodType
	}
	centers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	accepting := make([]model.DonationCenter, 0)
	for i := range centers {
		for _, t := range centers[i].AcceptedBloodTypes {
			if t == bloodType {
				accepting = append(accepting, centers[i])
				break
			}
		}
	}
	return accepting, nil
}

func (s *centerService) geocode(ctx context.Context, center *model.DonationCenter) error {
	if s.geocoder == nil {
		return errs.ErrGeocoderUnavailable
	}
	address := fmt.Sprintf("%s, %s, %s %s, %s",
		center.AddressLine, center.City, center.Region, center.PostalCode, center.Country)
	result, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return fmt.Errorf("geocode %q: %w", address, err)
	}
	center.Latitude = &result.Latitude
	center.Longitude = &result.Longitude
	if result.FormattedAddress != "" {
		center.AddressLine = result.FormattedAddress
	}
	return nil
}
