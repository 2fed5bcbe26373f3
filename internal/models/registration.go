package models

import (
	"time"

	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

type Registration struct {
	gorm.Model
	ParticipantID uint               `json:"participant_id" gorm:"uniqueIndex:idx_participant_activity;constraint:OnDelete:CASCADE"`
	ActivityID    uint               `json:"activity_id" gorm:"uniqueIndex:idx_participant_activity;constraint:OnDelete:CASCADE"`
	Participant   Participant        `json:"participant"`
	Activity      Activity           `json:"-"`
	Status        RegistrationStatus `json:"status"`
	Attended      bool               `json:"attended"`
	Notes         string             `json:"notes"`
	RegisteredAt  time.Time          `json:"registered_at"`
}

// Active reports whether the registration still occupies a seat.
func (r *Registration) Active() bool {
	return r.Status != RegistrationCancelled
}
