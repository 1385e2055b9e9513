package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	errs "bloodlink/internal/errors"
	"bloodlink/internal/model"
	"bloodlink/internal/remote"
	"bloodlink/internal/repository"
)

type requestSyncer struct {
	repo   repository.RequestRepository
	store  remote.Store
	logger *zap.Logger
	now    func() time.Time
}

func (s *requestSyncer) Name() string { return "blood_requests" }

func (s *requestSyncer) Upload(ctx context.Context) error {
	dirty, err := s.repo.FindDirty(ctx)
	if err != nil {
		return fmt.Errorf("list dirty requests: %w", err)
	}

	var failures []error
	for i := range dirty {
		req := dirty[i]
		doc := remote.RequestToDocument(&req)

		var cloudID string
		if req.CloudID != nil {
			cloudID = *req.CloudID
			doc.Key = cloudID
			err = s.store.Update(ctx, remote.CollectionRequests, cloudID, doc)
		} else {
			cloudID = req.ID
			err = s.store.Create(ctx, remote.CollectionRequests, cloudID, doc)
		}
		if err != nil {
			s.logger.Warn("request upload failed",
				zap.String("id", req.ID), zap.Error(err))
			failures = append(failures, err)
			continue
		}

		if err := s.repo.MarkSynced(ctx, req.ID, cloudID, s.now()); err != nil {
			s.logger.Warn("request sync stamp failed",
				zap.String("id", req.ID), zap.Error(err))
			failures = append(failures, fmt.Errorf("stamp request %s: %w", req.ID, err))
		}
	}

	if len(failures) > 0 {
		return &errs.PartialSyncError{Entity: "blood_requests", Failures: failures}
	}
	return nil
}

func (s *requestSyncer) Download(ctx context.Context) error {
	raws, err := s.store.List(ctx, remote.CollectionRequests)
	if err != nil {
		return err
	}

	now := s.now()
	batch := make([]model.BloodRequest, 0, len(raws))
	var failures []error

	for _, raw := range raws {
		var doc remote.BloodRequestDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			failures = append(failures, fmt.Errorf("decode request document: %w", err))
			continue
		}
		if err := doc.Validate(); err != nil {
			failures = append(failures, err)
			continue
		}

		local, err := s.repo.FindBySyncKey(ctx, doc.Key)
		switch {
		case err == nil:
			doc.ApplyTo(local)
			local.MarkSynced(doc.Key, now)
			batch = append(batch, *local)
		case errors.Is(err, gorm.ErrRecordNotFound):
			req := model.BloodRequest{ID: doc.Key}
			doc.ApplyTo(&req)
			req.CreatedAt = doc.CreatedAt
			req.MarkSynced(doc.Key, now)
			batch = append(batch, req)
		default:
			failures = append(failures, fmt.Errorf("lookup request %s: %w", doc.Key, err))
		}
	}

	if err := s.repo.UpsertBatch(ctx, batch); err != nil {
		return fmt.Errorf("commit requests download: %w", err)
	}

	if len(failures) > 0 {
		return &errs.PartialSyncError{Entity: "blood_requests", Failures: failures}
	}
	return nil
}
