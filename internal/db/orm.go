package db

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rh-editor/internal/model"
)

// openORM opens a GORM SQLite connection with warnings-only logging.
func openORM(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func migrateORM(db *gorm.DB) error {
	return db.AutoMigrate(&model.WriteRecord{})
}

// closeORM closes the underlying SQL DB associated with the GORM connection.
func closeORM(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func insertWriteRecord(ctx context.Context, db *gorm.DB, rec *model.WriteRecord) error {
	return db.WithContext(ctx).Create(rec).Error
}
