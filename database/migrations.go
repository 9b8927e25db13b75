package database

import (
	"gorm.io/gorm"
	"quick-jot/quickjot/models"
)

// RunMigrations brings the schema up to date with the models.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.Note{},
		&models.Event{},
	)
}
