package store

import (
	"fmt"
	"time"

	"quizmaster/backend/config"
	"quizmaster/backend/models"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CurrentSchemaVersion is bumped on any structural change to the collections.
// Opening a database at a lower version runs an upgrade pass that creates
// missing tables and indexes without touching existing rows.
const CurrentSchemaVersion = 1

type schemaVersion struct {
	ID        uint `gorm:"primaryKey"`
	Version   int
	UpdatedAt time.Time
}

// InitDB opens the configured database and brings the schema up to
// CurrentSchemaVersion.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(cfg.DBPath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(ErrStorageUnavailable, err.Error())
	}

	if err := MigrateSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// MigrateSchema creates missing collections and records the schema version.
// Safe to call repeatedly.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&schemaVersion{}); err != nil {
		return errors.Wrap(ErrStorageUnavailable, err.Error())
	}

	var v schemaVersion
	if err := db.First(&v).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(ErrStorageUnavailable, err.Error())
		}
		v = schemaVersion{ID: 1, Version: 0}
	}

	if v.Version >= CurrentSchemaVersion {
		return nil
	}

	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.UserSession{},
		&models.QuizProgress{},
		&models.QuizAttempt{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.LeaderboardEntry{},
	); err != nil {
		return errors.Wrap(ErrStorageUnavailable, err.Error())
	}

	v.Version = CurrentSchemaVersion
	if err := db.Save(&v).Error; err != nil {
		return errors.Wrap(ErrStorageUnavailable, err.Error())
	}
	return nil
}
