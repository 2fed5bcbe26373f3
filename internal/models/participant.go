package models

import (
	"time"

	"gorm.io/gorm"
)

type Participant struct {
	gorm.Model
	LastName              string    `json:"last_name"`
	FirstName             string    `json:"first_name"`
	BirthDate             time.Time `json:"birth_date"`
	Address               string    `json:"address"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	RegisteredOn          time.Time `json:"registered_on"`
	Photo                 string    `json:"photo"`
	EmergencyContactName  string    `json:"emergency_contact_name"`
	EmergencyContactPhone string    `json:"emergency_contact_phone"`
	HealthNotes           string    `json:"health_notes"`
	HasAuthorization      bool      `json:"has_authorization"`
}

func (p *Participant) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age computes full years elapsed since birth, day-accurate: the year
// difference is decremented until the birthday has passed in the
// reference year.
func (p *Participant) Age(on time.Time) int {
	age := on.Year() - p.BirthDate.Year()
	if on.Month() < p.BirthDate.Month() ||
		(on.Month() == p.BirthDate.Month() && on.Day() < p.BirthDate.Day()) {
		age--
	}
	return age
}
