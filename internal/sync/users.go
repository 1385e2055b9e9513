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

type userSyncer struct {
	repo   repository.UserRepository
	store  remote.Store
	logger *zap.Logger
	now    func() time.Time
}

func (s *userSyncer) Name() string { return "users" }

// Upload pushes every dirty user. A record with no CloudID is created
// remotely under its local id, making a re-upload after a crashed stamp
// land on the same document. Failures are per-record and never abort the
// batch.
func (s *userSyncer) Upload(ctx context.Context) error {
	dirty, err := s.repo.FindDirty(ctx)
	if err != nil {
		return fmt.Errorf("list dirty users: %w", err)
	}

	var failures []error
	for i := range dirty {
		user := dirty[i]
		doc := remote.UserToDocument(&user)

		var cloudID string
		if user.CloudID != nil {
			cloudID = *user.CloudID
			doc.Key = cloudID
			err = s.store.Update(ctx, remote.CollectionUsers, cloudID, doc)
		} else {
			cloudID = user.ID
			err = s.store.Create(ctx, remote.CollectionUsers, cloudID, doc)
		}
		if err != nil {
			s.logger.Warn("user upload failed",
				zap.String("id", user.ID), zap.Error(err))
			failures = append(failures, err)
			continue
		}

		if err := s.repo.MarkSynced(ctx, user.ID, cloudID, s.now()); err != nil {
			s.logger.Warn("user sync stamp failed",
				zap.String("id", user.ID), zap.Error(err))
			failures = append(failures, fmt.Errorf("stamp user %s: %w", user.ID, err))
		}
	}

	if len(failures) > 0 {
		return &errs.PartialSyncError{Entity: "users", Failures: failures}
	}
	return nil
}

// Download lists the remote collection and applies every document over the
// local state, remote winning. The whole batch commits in one transaction.
func (s *userSyncer) Download(ctx context.Context) error {
	raws, err := s.store.List(ctx, remote.CollectionUsers)
	if err != nil {
		return err
	}

	now := s.now()
	batch := make([]model.User, 0, len(raws))
	var failures []error

	for _, raw := range raws {
		var doc remote.UserDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			failures = append(failures, fmt.Errorf("decode user document: %w", err))
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
			user := model.User{ID: doc.Key}
			doc.ApplyTo(&user)
			user.MarkSynced(doc.Key, now)
			batch = append(batch, user)
		default:
			failures = append(failures, fmt.Errorf("lookup user %s: %w", doc.Key, err))
		}
	}

	if err := s.repo.UpsertBatch(ctx, batch); err != nil {
		return fmt.Errorf("commit users download: %w", err)
	}

	if len(failures) > 0 {
		return &errs.PartialSyncError{Entity: "users", Failures: failures}
	}
	return nil
}
