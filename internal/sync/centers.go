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

type centerSyncer struct {
	repo   repository.CenterRepository
	store  remote.Store
	logger *zap.Logger
	now    func() time.Time
}

func (s *centerSyncer) Name() string { return "donation_centers" }

// Upload pushes dirty centers with their weekly schedule embedded in the
// parent document.
func (s *centerSyncer) Upload(ctx context.Context) error {
	dirty, err := s.repo.FindDirty(ctx)
	if err != nil {
		return fmt.Errorf("list dirty centers: %w", err)
	}

	var failures []error
	for i := range dirty {
		center := dirty[i]
		doc := remote.CenterToDocument(&center)

		var cloudID string
		if center.CloudID != nil {
			cloudID = *center.CloudID
			doc.Key = cloudID
			err = s.store.Update(ctx, remote.CollectionCenters, cloudID, doc)
		} else {
			cloudID = center.ID
			err = s.store.Create(ctx, remote.CollectionCenters, cloudID, doc)
		}
		if err != nil {
			s.logger.Warn("center upload failed",
				zap.String("id", center.ID), zap.Error(err))
			failures = append(failures, err)
			continue
		}

		if err := s.repo.MarkSynced(ctx, center.ID, cloudID, s.now()); err != nil {
			s.logger.Warn("center sync stamp failed",
				zap.String("id", center.ID), zap.Error(err))
			failures = append(failures, fmt.Errorf("stamp center %s: %w", center.ID, err))
		}
	}

	if len(failures) > 0 {
		return &errs.PartialSyncError{Entity: "donation_centers", Failures: failures}
	}
	return nil
}

// Download applies each remote center over local state. The child schedule
// rows are deleted and recreated with the parent in one transaction, never
// partially replaced.
func (s *centerSyncer) Download(ctx context.Context) error {
	raws, err := s.store.List(ctx, remote.CollectionCenters)
	if err != nil {
		return err
	}

	now := s.now()
	batch := make([]model.DonationCenter, 0, len(raws))
	var failures []error

	for _, raw := range raws {
		var doc remote.DonationCenterDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			failures = append(failures, fmt.Errorf("decode center document: %w", err))
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
			center := model.DonationCenter{ID: doc.Key}
			doc.ApplyTo(&center)
			center.MarkSynced(doc.Key, now)
			batch = append(batch, center)
		default:
			failures = append(failures, fmt.Errorf("lookup center %s: %w", doc.Key, err))
		}
	}

	if err := s.repo.UpsertBatch(ctx, batch); err != nil {
		return fmt.Errorf("commit centers download: %w", err)
	}

	if len(failures) > 0 {
		return &errs.PartialSyncError{Entity: "donation_centers", Failures: failures}
	}
	return nil
}
