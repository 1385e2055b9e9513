package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bloodlink/internal/model"
)

// NewSQLite returns a connected GORM DB over the on-device store. SQLite
// allows a single writer, which is also the serialization point the sync
// engine relies on for local mutations.
func NewSQLite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return gdb, nil
}

// Migrate creates or updates the local schema for all entity types.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.User{},
		&model.BloodRequest{},
		&model.DonationCenter{},
		&model.OperatingHour{},
	)
}
