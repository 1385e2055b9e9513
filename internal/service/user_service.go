package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"bloodlink/internal/cache"
	errs "bloodlink/internal/errors"
	"bloodlink/internal/match"
	"bloodlink/internal/model"
	"bloodlink/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// NearbyDonor pairs a donor with their distance from a point.
type NearbyDonor struct {
	User       model.User `json:"user"`
	DistanceKm float64    `json:"distance_km"`
}

// UserService exposes user domain operations.
type UserService interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	DonorsNear(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyDonor, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (s *userService) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	user.CloudID = existing.CloudID
	user.PasswordHash = existing.PasswordHash
	user.CreatedAt = existing.CreatedAt
	user.MarkDirty()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

// DonorsNear returns donors within radiusKm of a point, closest first.
// Donors without a shared location are excluded.
func (s *userService) DonorsNear(ctx context.Context, lat, lng, radiusKm float64) ([]NearbyDonor, error) {
	donors, err := s.repo.ListDonors(ctx)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyDonor, 0)
	for i := range donors {
		dLat, dLng, ok := donors[i].Coordinates()
		if !ok {
			continue
		}
		dist := match.HaversineKm(dLat, dLng, lat, lng)
		if dist <= radiusKm {
			nearby = append(nearby, NearbyDonor{User: donors[i], DistanceKm: dist})
		}
	}
	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}
