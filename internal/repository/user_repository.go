package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bloodlink/internal/model"
)

// UserRepository defines user persistence operations, including the
// dirty-tracking surface the sync engine drives.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListDonors(ctx context.Context) ([]model.User, error)

	FindDirty(ctx context.Context) ([]model.User, error)
	FindBySyncKey(ctx context.Context, key string) (*model.User, error)
	MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error
	UpsertBatch(ctx context.Context, users []model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListDonors returns the matcher's candidate set: donor-role users only.
func (r *userRepository) ListDonors(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("type = ?", model.UserTypeDonor).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindDirty selects every record still awaiting upload.
func (r *userRepository) FindDirty(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("cloud_id IS NULL OR last_synced_at IS NULL").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// FindBySyncKey locates the local record correlated to a remote document key.
func (r *userRepository) FindBySyncKey(ctx context.Context, key string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Where("id = ? OR cloud_id = ?", key, key).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// MarkSynced stamps CloudID and LastSyncedAt in a single statement so a
// record is never left half-synced.
func (r *userRepository) MarkSynced(ctx context.Context, id, cloudID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"cloud_id": cloudID, "last_synced_at": at}).Error
}

// UpsertBatch persists a download batch atomically.
func (r *userRepository) UpsertBatch(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&users).Error
	})
}
