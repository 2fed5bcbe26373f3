package database

import (
	"log"

	"github.com/campdesk/campdesk/internal/config"
	"github.com/campdesk/campdesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath+"?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Cascade and SET NULL rules depend on FK enforcement.
	db.Exec("PRAGMA foreign_keys = ON")

	if err := Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.APIKey{},
		&models.Participant{},
		&models.Supervisor{},
		&models.Animator{},
		&models.Infrastructure{},
		&models.Material{},
		&models.Activity{},
		&models.ActivityAnimator{},
		&models.ActivityMaterial{},
		&models.Registration{},
		&models.Reservation{},
		&models.StaffSchedule{},
		&models.AuditLog{},
	)
}
