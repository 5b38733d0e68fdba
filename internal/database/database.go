package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/session"
)

// NewDatabase opens the sqlite store and migrates the session schema.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&session.Session{}); err != nil {
		return nil, err
	}

	return db, nil
}
