package database

import (
	"gorm.io/gorm"

	"github.com/bloodlink/bloodlink/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Session{},
		&models.EmergencyPost{},
		&models.Participation{},
		&models.InventoryItem{},
		&models.Conversation{},
		&models.Message{},
		&models.Appointment{},
	)
}
