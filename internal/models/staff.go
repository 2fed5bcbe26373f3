package models

import (
	"time"

	"gorm.io/gorm"
)

// Supervisor and Animator are structurally parallel staff pools. They stay
// separate tables so an activity's supervisor link and an animator's
// assignment links keep independent deletion rules.

type Supervisor struct {
	gorm.Model
	LastName  string     `json:"last_name"`
	FirstName string     `json:"first_name"`
	Specialty string     `json:"specialty"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	AccountID *uint      `json:"account_id"`
	Account   *Account   `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	HiredOn   *time.Time `json:"hired_on"`
	Photo     string     `json:"photo"`
	IsActive  bool       `json:"is_active"`
	Notes     string     `json:"notes"`
}

func (s *Supervisor) FullName() string {
	return s.FirstName + " " + s.LastName
}

type Animator struct {
	gorm.Model
	LastName   string     `json:"last_name"`
	FirstName  string     `json:"first_name"`
	Competency string     `json:"competency"`
	Phone      string     `json:"phone"`
	Email      string     `json:"email"`
	AccountID  *uint      `json:"account_id"`
	Account    *Account   `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	HiredOn    *time.Time `json:"hired_on"`
	Photo      string     `json:"photo"`
	IsActive   bool       `json:"is_active"`
	Notes      string     `json:"notes"`
}

func (a *Animator) FullName() string {
	return a.FirstName + " " + a.LastName
}

// StaffSchedule is a shift for exactly one staff member: either SupervisorID
// or AnimatorID is set, never both. Date is "2006-01-02", times are "15:04".
type StaffSchedule struct {
	gorm.Model
	SupervisorID *uint       `json:"supervisor_id"`
	Supervisor   *Supervisor `json:"supervisor,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	AnimatorID   *uint       `json:"animator_id"`
	Animator     *Animator   `json:"animator,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Date         string      `json:"date"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time"`
	Notes        string      `json:"notes"`
}
