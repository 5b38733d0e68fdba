package session

import (
	"errors"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetBySessionID(sessionID string) (*Session, error) {
	var s Session
	if err := d.db.Where("session_id = ?", sessionID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (d *Database) Create(s *Session) error {
	return d.db.Create(s).Error
}

// Save persists the full session record in a transaction so a crash mid-write
// leaves the previous committed row recoverable.
func (d *Database) Save(s *Session) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(s).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (d *Database) ListActive() ([]Session, error) {
	var sessions []Session
	if err := d.db.Where("scan_active = ?", true).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
