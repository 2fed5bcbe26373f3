// Package query translates optional filter parameters into deterministic,
// ordered result sets. Filters compose with AND across dimensions; free-text
// search is an OR across a fixed field set. Every sort appends id as the
// tie-break so pagination stays stable when the primary key is not unique.
package query

import (
	"time"

	"github.com/campdesk/campdesk/internal/models"
	"gorm.io/gorm"
)

const (
	ActivitiesPageSize    = 10
	RegistrationsPageSize = 20
	ParticipantsPageSize  = 20
	DefaultPageSize       = 20
)

func paginate(db *gorm.DB, page, size int) *gorm.DB {
	if page < 1 {
		page = 1
	}
	return db.Limit(size).Offset((page - 1) * size)
}

type ActivityFilter struct {
	Search       string
	DateFilter   string // today | this_week | this_month | past | future
	SupervisorID *uint
	Sort         string // name | date | participants (default date)
}

func Activities(db *gorm.DB, f ActivityFilter, page int) ([]models.Activity, int64, error) {
	q := db.Model(&models.Activity{})

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Joins("LEFT JOIN supervisors ON supervisors.id = activities.supervisor_id AND supervisors.deleted_at IS NULL").
			Where("activities.name LIKE ? OR activities.description LIKE ? OR supervisors.last_name LIKE ? OR supervisors.first_name LIKE ?",
				like, like, like, like)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch f.DateFilter {
	case "today":
		q = q.Where("activities.starts_at >= ? AND activities.starts_at < ?", today, today.AddDate(0, 0, 1))
	case "this_week":
		// The boundary day counts in full: today + 7 days inclusive.
		q = q.Where("activities.starts_at >= ? AND activities.starts_at < ?", today, today.AddDate(0, 0, 8))
	case "this_month":
		q = q.Where("activities.starts_at >= ? AND activities.starts_at < ?", today, today.AddDate(0, 0, 31))
	case "past":
		q = q.Where("activities.starts_at < ?", today)
	case "future":
		q = q.Where("activities.starts_at >= ?", today)
	}

	if f.SupervisorID != nil {
		q = q.Where("activities.supervisor_id = ?", *f.SupervisorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.Sort {
	case "name":
		q = q.Order("activities.name, activities.id")
	case "participants":
		q = q.Joins("LEFT JOIN registrations ON registrations.activity_id = activities.id AND registrations.deleted_at IS NULL AND registrations.status <> ?",
			models.RegistrationCancelled).
			Group("activities.id").
			Order("COUNT(registrations.id) DESC, activities.id")
	default:
		q = q.Order("activities.starts_at, activities.id")
	}

	var activities []models.Activity
	err := paginate(q, page, ActivitiesPageSize).Find(&activities).Error
	return activities, total, err
}

type RegistrationFilter struct {
	Search     string
	Status     models.RegistrationStatus
	ActivityID *uint
}

func Registrations(db *gorm.DB, f RegistrationFilter, page int) ([]models.Registration, int64, error) {
	q := db.Model(&models.Registration{}).Preload("Participant")

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Joins("JOIN participants ON participants.id = registrations.participant_id").
			Joins("JOIN activities ON activities.id = registrations.activity_id").
			Where("participants.last_name LIKE ? OR participants.first_name LIKE ? OR activities.name LIKE ?",
				like, like, like)
	}
	if f.Status != "" {
		q = q.Where("registrations.status = ?", f.Status)
	}
	if f.ActivityID != nil {
		q = q.Where("registrations.activity_id = ?", *f.ActivityID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var registrations []models.Registration
	err := paginate(q.Order("registrations.registered_at DESC, registrations.id"), page, RegistrationsPageSize).
		Find(&registrations).Error
	return registrations, total, err
}

type ParticipantFilter struct {
	Search           string
	HasAuthorization *bool
	AgeMin           *int
	AgeMax           *int
	Sort             string // name | recent (default name)
}

func Participants(db *gorm.DB, f ParticipantFilter, page int) ([]models.Participant, int64, error) {
	q := db.Model(&models.Participant{})

	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("last_name LIKE ? OR first_name LIKE ? OR email LIKE ? OR phone LIKE ?",
			like, like, like, like)
	}
	if f.HasAuthorization != nil {
		q = q.Where("has_authorization = ?", *f.HasAuthorization)
	}

	// Age bounds map to birth-date bounds with day accuracy: a participant
	// is at least N on the day of their Nth birthday.
	now := time.Now()
	if f.AgeMin != nil {
		q = q.Where("birth_date <= ?", now.AddDate(-*f.AgeMin, 0, 0))
	}
	if f.AgeMax != nil {
		q = q.Where("birth_date > ?", now.AddDate(-(*f.AgeMax+1), 0, 0))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch f.Sort {
	case "recent":
		q = q.Order("registered_on DESC, id")
	default:
		q = q.Order("last_name, first_name, id")
	}

	var participants []models.Participant
	err := paginate(q, page, ParticipantsPageSize).Find(&participants).Error
	return participants, total, err
}

type StaffFilter struct {
	Search     string
	ActiveOnly bool
}

func Supervisors(db *gorm.DB, f StaffFilter, page int) ([]models.Supervisor, int64, error) {
	q := db.Model(&models.Supervisor{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("last_name LIKE ? OR first_name LIKE ? OR specialty LIKE ? OR email LIKE ?",
			like, like, like, like)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var supervisors []models.Supervisor
	err := paginate(q.Order("last_name, first_name, id"), page, DefaultPageSize).Find(&supervisors).Error
	return supervisors, total, err
}

func Animators(db *gorm.DB, f StaffFilter, page int) ([]models.Animator, int64, error) {
	q := db.Model(&models.Animator{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("last_name LIKE ? OR first_name LIKE ? OR competency LIKE ? OR email LIKE ?",
			like, like, like, like)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var animators []models.Animator
	err := paginate(q.Order("last_name, first_name, id"), page, DefaultPageSize).Find(&animators).Error
	return animators, total, err
}

// AvailableAnimators lists active animators not yet assigned to the
// activity, for assignment pickers.
func AvailableAnimators(db *gorm.DB, activityID uint) ([]models.Animator, error) {
	assigned := db.Model(&models.ActivityAnimator{}).
		Select("animator_id").
		Where("activity_id = ?", activityID)

	var animators []models.Animator
	err := db.Where("is_active = ? AND id NOT IN (?)", true, assigned).
		Order("last_name, first_name, id").
		Find(&animators).Error
	return animators, err
}

// AvailableMaterials lists in-stock materials not yet assigned to the
// activity.
func AvailableMaterials(db *gorm.DB, activityID uint) ([]models.Material, error) {
	assigned := db.Model(&models.ActivityMaterial{}).
		Select("material_id").
		Where("activity_id = ?", activityID)

	var materials []models.Material
	err := db.Where("available_qty > 0 AND id NOT IN (?)", assigned).
		Order("name, id").
		Find(&materials).Error
	return materials, err
}

// OpenActivities lists upcoming, non-cancelled activities the participant
// is not already registered for.
func OpenActivities(db *gorm.DB, participantID uint) ([]models.Activity, error) {
	registered := db.Model(&models.Registration{}).
		Select("activity_id").
		Where("participant_id = ? AND status <> ?", participantID, models.RegistrationCancelled)

	var activities []models.Activity
	err := db.Where("starts_at >= ? AND cancelled = ? AND id NOT IN (?)",
		time.Now(), false, registered).
		Order("starts_at, id").
		Find(&activities).Error
	return activities, err
}

type ReservationFilter struct {
	InfrastructureID *uint
	UpcomingOnly     bool
}

func Reservations(db *gorm.DB, f ReservationFilter, page int) ([]models.Reservation, int64, error) {
	q := db.Model(&models.Reservation{})
	if f.InfrastructureID != nil {
		q = q.Where("infrastructure_id = ?", *f.InfrastructureID)
	}
	if f.UpcomingOnly {
		q = q.Where("ends_at >= ?", time.Now())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reservations []models.Reservation
	err := paginate(q.Order("starts_at, id"), page, DefaultPageSize).Find(&reservations).Error
	return reservations, total, err
}

type InfrastructureFilter struct {
	Search        string
	AvailableOnly bool
}

func Infrastructures(db *gorm.DB, f InfrastructureFilter, page int) ([]models.Infrastructure, int64, error) {
	q := db.Model(&models.Infrastructure{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR type LIKE ? OR location LIKE ?", like, like, like)
	}
	if f.AvailableOnly {
		q = q.Where("available = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var infrastructures []models.Infrastructure
	err := paginate(q.Order("name, id"), page, DefaultPageSize).Find(&infrastructures).Error
	return infrastructures, total, err
}

type MaterialFilter struct {
	Search      string
	InStockOnly bool
}

func Materials(db *gorm.DB, f MaterialFilter, page int) ([]models.Material, int64, error) {
	q := db.Model(&models.Material{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ? OR supplier LIKE ?", like, like, like)
	}
	if f.InStockOnly {
		q = q.Where("available_qty > 0")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var materials []models.Material
	err := paginate(q.Order("name, id"), page, DefaultPageSize).Find(&materials).Error
	return materials, total, err
}
