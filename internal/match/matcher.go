package match

import (
	"context"
	"fmt"

	"bloodlink/internal/model"
	"bloodlink/internal/repository"
)

// Matcher computes the eligible recipient set for a blood request.
type Matcher interface {
	FindEligibleRecipients(ctx context.Context, req *model.BloodRequest) ([]model.User, error)
}

type matcher struct {
	users repository.UserRepository
}

// NewMatcher builds a Matcher over the local user store.
func NewMatcher(users repository.UserRepository) Matcher {
	return &matcher{users: users}
}

// FindEligibleRecipients returns every donor that is blood-type compatible
// with the request and within its search radius (inclusive). Donors without
// coordinates are never assumed eligible. The result has set semantics:
// no duplicates, unspecified order.
func (m *matcher) FindEligibleRecipients(ctx context.Context, req *model.BloodRequest) ([]model.User, error) {
	donors, err := m.users.ListDonors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}

	seen := make(map[string]bool, len(donors))
	eligible := make([]model.User, 0)
	for i := range donors {
		donor := donors[i]
		if seen[donor.ID] {
			continue
		}
		if req.RequestorID != nil && donor.ID == *req.RequestorID {
			continue
		}
		if donor.Donor == nil || !IsCompatible(donor.Donor.BloodType, req.BloodGroup) {
			continue
		}
		lat, lng, ok := donor.Coordinates()
		if !ok {
			continue
		}
		if HaversineKm(lat, lng, req.Latitude, req.Longitude) > req.SearchRadiusKm {
			continue
		}
		seen[donor.ID] = true
		eligible = append(eligible, donor)
	}
	return eligible, nil
}
