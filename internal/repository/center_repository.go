package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bloodlink/internal/model"
)

// CenterRepository defines donation center persistence operations. A center
// owns its seven OperatingHour rows; they are replaced together or not at all.
type CenterRepository interface {
	Create(ctx context.Context, center *model.DonationCenter) error
	Update(ctx context.Context, center *model.DonationCenter) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*model.DonationCenter, error)
	List(ctx context.Context) ([]model.DonationCenter, error)

	FindDirty(ctx context.Context) ([]model.DonationCenter, error)
	FindBySyncKey(ctx context.Context, key string) (*model.DonationCenter, error)
	MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error
	UpsertBatch(ctx context.Context, centers []model.DonationCenter) error
}

type centerRepository struct {
	db *gorm.DB
}

// NewCenterRepository builds a GORM-backed repository.
func NewCenterRepository(db *gorm.DB) CenterRepository {
	return &centerRepository{db: db}
}

func (r *centerRepository) Create(ctx context.Context, center *model.DonationCenter) error {
	return r.db.WithContext(ctx).Create(center).Error
}

// Update saves the center and atomically replaces its operating hours:
// delete and re-insert inside one transaction, never a partial schedule.
func (r *centerRepository) Update(ctx context.Context, center *model.DonationCenter) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("center_id = ?", center.ID).Delete(&model.OperatingHour{}).Error; err != nil {
			return err
		}
		for i := range center.OperatingHours {
			center.OperatingHours[i].ID = ""
			center.OperatingHours[i].CenterID = center.ID
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(center).Error
	})
}

func (r *centerRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("center_id = ?", id).Delete(&model.OperatingHour{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.DonationCenter{}).Error
	})
}

func (r *centerRepository) FindByID(ctx context.Context, id string) (*model.DonationCenter, error) {
	var center model.DonationCenter
	if err := r.db.WithContext(ctx).Preload("OperatingHours").
		Where("id = ?", id).First(&center).Error; err != nil {
		return nil, err
	}
	return &center, nil
}

func (r *centerRepository) List(ctx context.Context) ([]model.DonationCenter, error) {
	var centers []model.DonationCenter
	if err := r.db.WithContext(ctx).Preload("OperatingHours").Find(&centers).Error; err != nil {
		return nil, err
	}
	return centers, nil
}

func (r *centerRepository) FindDirty(ctx context.Context) ([]model.DonationCenter, error) {
	var centers []model.DonationCenter
	if err := r.db.WithContext(ctx).Preload("OperatingHours").
		Where("cloud_id IS NULL OR last_synced_at IS NULL").
		Find(&centers).Error; err != nil {
		return nil, err
	}
	return centers, nil
}

func (r *centerRepository) FindBySyncKey(ctx context.Context, key string) (*model.DonationCenter, error) {
	var center model.DonationCenter
	if err := r.db.WithContext(ctx).Preload("OperatingHours").
		Where("id = ? OR cloud_id = ?", key, key).
		First(&center).Error; err != nil {
		return nil, err
	}
	return &center, nil
}

// MarkSynced stamps the center and its schedule rows in one transaction.
func (r *centerRepository) MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.DonationCenter{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"cloud_id": cloudID, "last_synced_at": at}).Error; err != nil {
			return err
		}
		return tx.Model(&model.OperatingHour{}).
			Where("center_id = ?", id).
			Updates(map[string]interface{}{"cloud_id": cloudID, "last_synced_at": at}).Error
	})
}

// UpsertBatch persists a download batch atomically, replacing each center's
// schedule alongside its parent.
func (r *centerRepository) UpsertBatch(ctx context.Context, centers []model.DonationCenter) error {
	if len(centers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range centers {
			center := centers[i]
			hours := center.OperatingHours
			center.OperatingHours = nil
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&center).Error; err != nil {
				return err
			}
			if err := tx.Where("center_id = ?", center.ID).Delete(&model.OperatingHour{}).Error; err != nil {
				return err
			}
			for j := range hours {
				hours[j].ID = ""
				hours[j].CenterID = center.ID
			}
			if len(hours) > 0 {
				if err := tx.Create(&hours).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
