package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"partyspark-backend/internal/config"
	"partyspark-backend/internal/models"
)

// Connect opens the postgres connection and migrates the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.UserSettings{},
		&models.UserConnection{},
		&models.PartyCategory{},
		&models.Party{},
		&models.PartyRSVP{},
		&models.PartyComment{},
		&models.PartyLike{},
		&models.PartyInvitation{},
		&models.Notification{},
		&models.MediaFile{},
	)
}
