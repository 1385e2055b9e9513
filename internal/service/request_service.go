package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	errs "bloodlink/internal/errors"
	"bloodlink/internal/match"
	"bloodlink/internal/model"
	"bloodlink/internal/notify"
	"bloodlink/internal/remote"
	"bloodlink/internal/repository"
)

// RequestService owns the blood request lifecycle: local persistence is
// canonical, remote propagation is best-effort, and every successful
// creation triggers matching and dispatch exactly once.
type RequestService interface {
	CreateRequest(ctx context.Context, req *model.BloodRequest) (*model.BloodRequest, error)
	UpdateRequest(ctx context.Context, req *model.BloodRequest) (*model.BloodRequest, error)
	UpdateStatus(ctx context.Context, id string, status model.RequestStatus) (*model.BloodRequest, error)
	DeleteRequest(ctx context.Context, id string) error
	GetRequest(ctx context.Context, id string) (*model.BloodRequest, error)
	ListRequests(ctx context.Context) ([]model.BloodRequest, error)
}

type requestService struct {
	repo       repository.RequestRepository
	store      remote.Store
	matcher    match.Matcher
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewRequestService builds the lifecycle manager.
func NewRequestService(
	repo repository.RequestRepository,
	store remote.Store,
	matcher match.Matcher,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
) RequestService {
	return &requestService{
		repo:       repo,
		store:      store,
		matcher:    matcher,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateRequest validates, persists locally (fatal on failure), uploads
// best-effort, then matches and dispatches synchronously. Remote and
// dispatch failures never fail creation: the record stays dirty and syncs
// on the next pass.
func (s *requestService) CreateRequest(ctx context.Context, req *model.BloodRequest) (*model.BloodRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = model.RequestStatusActive
	}
	if req.RequestDate.IsZero() {
		req.RequestDate = s.now()
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("persist request: %w", err)
	}

	s.uploadBestEffort(ctx, req)

	recipients, err := s.matcher.FindEligibleRecipients(ctx, req)
	if err != nil {
		s.logger.Warn("recipient matching failed",
			zap.String("request", req.ID), zap.Error(err))
		return req, nil
	}

	report := s.dispatcher.Dispatch(ctx, req, recipients)
	s.logger.Info("request dispatched",
		zap.String("request", req.ID),
		zap.Int("eligible", len(recipients)),
		zap.Int("submitted", report.Submitted),
		zap.Int("suppressed", report.Suppressed),
		zap.Int("failed", report.Failed))

	return req, nil
}

// UpdateRequest applies field edits. Lifecycle state (status, requestor
// identity, request date) is owned by creation and UpdateStatus, never by a
// field edit. The local write clears the synced stamp so the record is
// dirty again; a successful remote propagate stamps it back.
func (s *requestService) UpdateRequest(ctx context.Context, req *model.BloodRequest) (*model.BloodRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRequestNotFound
		}
		return nil, fmt.Errorf("load request: %w", err)
	}

	req.Status = existing.Status
	req.RequestorID = existing.RequestorID
	req.RequestorName = existing.RequestorName
	req.RequestDate = existing.RequestDate
	req.CloudID = existing.CloudID
	req.CreatedAt = existing.CreatedAt
	req.MarkDirty()
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("persist request: %w", err)
	}

	s.uploadBestEffort(ctx, req)
	return req, nil
}

// UpdateStatus transitions the request lifecycle state.
func (s *requestService) UpdateStatus(ctx context.Context, id string, status model.RequestStatus) (*model.BloodRequest, error) {
	switch status {
	case model.RequestStatusActive, model.RequestStatusFulfilled, model.RequestStatusExpired:
	default:
		return nil, fmt.Errorf("invalid status %q", status)
	}

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRequestNotFound
		}
		return nil, fmt.Errorf("load request: %w", err)
	}

	req.Status = status
	req.MarkDirty()
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("persist request: %w", err)
	}

	s.uploadBestEffort(ctx, req)
	return req, nil
}

// DeleteRequest removes the request locally, propagates the delete
// best-effort, and cascades to the notification suppression state.
func (s *requestService) DeleteRequest(ctx context.Context, id string) error {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrRequestNotFound
		}
		return fmt.Errorf("load request: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}

	key := id
	if req.CloudID != nil {
		key = *req.CloudID
	}
	if err := s.store.Delete(ctx, remote.CollectionRequests, key); err != nil {
		s.logger.Warn("remote delete failed",
			zap.String("request", id), zap.Error(err))
	}

	s.dispatcher.CancelForRequest(ctx, id)
	return nil
}

func (s *requestService) GetRequest(ctx context.Context, id string) (*model.BloodRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (s *requestService) ListRequests(ctx context.Context) ([]model.BloodRequest, error) {
	return s.repo.List(ctx)
}

// uploadBestEffort pushes the record remotely and stamps the sync fields on
// success. On failure the record simply stays dirty for the next sync pass.
func (s *requestService) uploadBestEffort(ctx context.Context, req *model.BloodRequest) {
	doc := remote.RequestToDocument(req)

	var err error
	cloudID := req.ID
	if req.CloudID != nil {
		cloudID = *req.CloudID
		doc.Key = cloudID
		err = s.store.Update(ctx, remote.CollectionRequests, cloudID, doc)
	} else {
		err = s.store.Create(ctx, remote.CollectionRequests, cloudID, doc)
	}
	if err != nil {
		s.logger.Warn("remote upload failed, will retry on next sync",
			zap.String("request", req.ID), zap.Error(err))
		return
	}

	if err := s.repo.MarkSynced(ctx, req.ID, cloudID, s.now()); err != nil {
		s.logger.Warn("sync stamp failed",
			zap.String("request", req.ID), zap.Error(err))
		return
	}
	req.MarkSynced(cloudID, s.now())
}
