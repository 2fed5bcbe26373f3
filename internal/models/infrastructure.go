package models

import (
	"time"

	"gorm.io/gorm"
)

type Infrastructure struct {
	gorm.Model
	Name                string     `json:"name"`
	Type                string     `json:"type"`
	Capacity            *int       `json:"capacity"`
	Location            string     `json:"location"`
	Available           bool       `json:"available"`
	Description         string     `json:"description"`
	Photo               string     `json:"photo"`
	MaintenanceNotes    string     `json:"maintenance_notes"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`
}

type Material struct {
	gorm.Model
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	AvailableQty int        `json:"available_qty"`
	Condition    string     `json:"condition"`
	Photo        string     `json:"photo"`
	PurchasedOn  *time.Time `json:"purchased_on"`
	UnitPrice    *float64   `json:"unit_price"`
	Supplier     string     `json:"supplier"`
}

// Reservation blocks an infrastructure for the half-open window
// [StartsAt, EndsAt) outside of regular activities.
type Reservation struct {
	gorm.Model
	InfrastructureID uint           `json:"infrastructure_id" gorm:"constraint:OnDelete:CASCADE"`
	Infrastructure   Infrastructure `json:"-"`
	StartsAt         time.Time      `json:"starts_at"`
	EndsAt           time.Time      `json:"ends_at"`
	Purpose          string         `json:"purpose"`
	Responsible      string         `json:"responsible"`
	Notes            string         `json:"notes"`
}
