package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bloodlink/internal/model"
)

// RequestRepository defines blood request persistence operations.
type RequestRepository interface {
	Create(ctx context.Context, req *model.BloodRequest) error
	Update(ctx context.Context, req *model.BloodRequest) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.BloodRequest, error)
	List(ctx context.Context) ([]model.BloodRequest, error)
	ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.BloodRequest, error)

	FindDirty(ctx context.Context) ([]model.BloodRequest, error)
	FindBySyncKey(ctx context.Context, key string) (*model.BloodRequest, error)
	MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error
	UpsertBatch(ctx context.Context, reqs []model.BloodRequest) error
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository builds a GORM-backed repository.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.BloodRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepository) Update(ctx context.Context, req *model.BloodRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *requestRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.BloodRequest{}).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id string) (*model.BloodRequest, error) {
	var req model.BloodRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context) ([]model.BloodRequest, error) {
	var reqs []model.BloodRequest
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.BloodRequest, error) {
	var reqs []model.BloodRequest
	if err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) FindDirty(ctx context.Context) ([]model.BloodRequest, error) {
	var reqs []model.BloodRequest
	if err := r.db.WithContext(ctx).
		Where("cloud_id IS NULL OR last_synced_at IS NULL").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *requestRepository) FindBySyncKey(ctx context.Context, key string) (*model.BloodRequest, error) {
	var req model.BloodRequest
	if err := r.db.WithContext(ctx).
		Where("id = ? OR cloud_id = ?", key, key).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.BloodRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"cloud_id": cloudID, "last_synced_at": at}).Error
}

func (r *requestRepository) UpsertBatch(ctx context.Context, reqs []model.BloodRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&reqs).Error
	})
}
