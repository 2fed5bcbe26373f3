package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campdesk/campdesk/internal/models"
	"gorm.io/gorm"
)

// Engine guards every state transition that could violate a capacity or
// scheduling invariant and serves the derived availability views. All
// mutations of registration counts and reservation windows go through here.
type Engine struct {
	db    *gorm.DB
	locks *keyedMutex
	now   func() time.Time
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{
		db:    db,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
}

// ComputeEndTime derives an activity's end from its start and duration.
func ComputeEndTime(start time.Time, durationMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes) * time.Minute)
}

// ApplyEndTime fills EndsAt from start and duration when it was not
// explicitly supplied. A stored end time is never silently recomputed on
// later edits.
func ApplyEndTime(a *models.Activity) {
	if a.EndsAt.IsZero() && !a.StartsAt.IsZero() && a.DurationMinutes > 0 {
		a.EndsAt = ComputeEndTime(a.StartsAt, a.DurationMinutes)
	}
}

// Summary is the availability view of one activity, consumed by detail
// pages and the capacity status endpoint.
type Summary struct {
	IsFull              bool
	AvailableSpots      *int
	TotalCapacity       *int
	CurrentParticipants int
}

func activeRegistrations(db *gorm.DB, activityID uint) *gorm.DB {
	return db.Model(&models.Registration{}).
		Where("activity_id = ? AND status <> ?", activityID, models.RegistrationCancelled)
}

// AvailableSeats returns the remaining seats for an activity. unlimited is
// true when the activity has no capacity set, in which case seats is
// meaningless.
func (e *Engine) AvailableSeats(ctx context.Context, activityID uint) (seats int, unlimited bool, err error) {
	summary, err := e.Availability(ctx, activityID)
	if err != nil {
		return 0, false, err
	}
	if summary.AvailableSpots == nil {
		return 0, true, nil
	}
	return *summary.AvailableSpots, false, nil
}

func (e *Engine) IsFull(ctx context.Context, activityID uint) (bool, error) {
	summary, err := e.Availability(ctx, activityID)
	if err != nil {
		return false, err
	}
	return summary.IsFull, nil
}

func (e *Engine) Availability(ctx context.Context, activityID uint) (*Summary, error) {
	db := e.db.WithContext(ctx)

	var activity models.Activity
	if err := db.First(&activity, activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var count int64
	if err := activeRegistrations(db, activityID).Count(&count).Error; err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalCapacity:       activity.Capacity,
		CurrentParticipants: int(count),
	}
	if activity.Capacity != nil {
		remaining := *activity.Capacity - int(count)
		if remaining < 0 {
			remaining = 0
		}
		summary.AvailableSpots = &remaining
		summary.IsFull = int(count) >= *activity.Capacity
	}
	return summary, nil
}

// Register creates (or revives) a registration for the pair, rejecting full
// activities and duplicates. The capacity check runs under the per-activity
// lock so concurrent requests for the same activity are serialized; the
// composite unique index on (participant_id, activity_id) backstops
// duplicates racing past the in-transaction check.
func (e *Engine) Register(ctx context.Context, participantID, activityID uint) (*models.Registration, error) {
	unlock := e.locks.Lock(fmt.Sprintf("activity:%d", activityID))
	defer unlock()

	var registration models.Registration
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activity models.Activity
		if err := tx.First(&activity, activityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if activity.Cancelled {
			return ErrActivityCancelled
		}
		if activity.StartsAt.Before(e.now()) {
			return ErrActivityPast
		}

		var participant models.Participant
		if err := tx.First(&participant, participantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing models.Registration
		err := tx.Where("participant_id = ? AND activity_id = ?", participantID, activityID).
			First(&existing).Error
		switch {
		case err == nil && existing.Active():
			return ErrDuplicateRegistration
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if activity.Capacity != nil {
			var count int64
			if err := activeRegistrations(tx, activityID).Count(&count).Error; err != nil {
				return err
			}
			if int(count) >= *activity.Capacity {
				return &ActivityFullError{Capacity: *activity.Capacity, Current: int(count)}
			}
		}

		if existing.ID != 0 {
			// Cancelled row for the pair: revive it instead of violating
			// the unique index with a second row.
			existing.Status = models.RegistrationRegistered
			existing.Attended = false
			existing.RegisteredAt = e.now()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			registration = existing
			return nil
		}

		registration = models.Registration{
			ParticipantID: participantID,
			ActivityID:    activityID,
			Status:        models.RegistrationRegistered,
			RegisteredAt:  e.now(),
		}
		if err := tx.Create(&registration).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateRegistration
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

// CancelRegistration frees the participant's seat. Cancelling twice is a
// no-op.
func (e *Engine) CancelRegistration(ctx context.Context, registrationID uint) (*models.Registration, error) {
	var registration models.Registration
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&registration, registrationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if registration.Status == models.RegistrationCancelled {
			return nil
		}
		registration.Status = models.RegistrationCancelled
		return tx.Save(&registration).Error
	})
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

// AssignMaterial links a material to an activity after a point-in-time
// feasibility check against the material's available quantity. The quantity
// is not reserved: concurrent assignments to different activities may
// jointly exceed stock, matching the source behavior.
func (e *Engine) AssignMaterial(ctx context.Context, activityID, materialID uint, requiredQty int, notes string) (*models.ActivityMaterial, error) {
	if requiredQty < 1 {
		return nil, fmt.Errorf("%w: required quantity must be at least 1", ErrValidation)
	}

	var link models.ActivityMaterial
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activity models.Activity
		if err := tx.First(&activity, activityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var material models.Material
		if err := tx.First(&material, materialID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if requiredQty > material.AvailableQty {
			return &InsufficientStockError{Requested: requiredQty, Available: material.AvailableQty}
		}

		link = models.ActivityMaterial{
			ActivityID:  activityID,
			MaterialID:  materialID,
			RequiredQty: requiredQty,
			Notes:       notes,
		}
		if err := tx.Create(&link).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateAssignment
			}
			return err
		}
		link.Material = material
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// AssignAnimator links an animator to an activity with an optional role
// label. One link per (activity, animator) pair.
func (e *Engine) AssignAnimator(ctx context.Context, activityID, animatorID uint, role, notes string) (*models.ActivityAnimator, error) {
	var link models.ActivityAnimator
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activity models.Activity
		if err := tx.First(&activity, activityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var animator models.Animator
		if err := tx.First(&animator, animatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		link = models.ActivityAnimator{
			ActivityID: activityID,
			AnimatorID: animatorID,
			Role:       role,
			Notes:      notes,
		}
		if err := tx.Create(&link).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateAssignment
			}
			return err
		}
		link.Animator = animator
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Reserve blocks an infrastructure for [startsAt, endsAt). Overlap uses the
// half-open test (existing.end > new.start AND existing.start < new.end),
// so adjacent windows are accepted. The overlap check runs under the
// per-infrastructure lock.
func (e *Engine) Reserve(ctx context.Context, infrastructureID uint, startsAt, endsAt time.Time, purpose, responsible, notes string) (*models.Reservation, error) {
	if !startsAt.Before(endsAt) {
		return nil, &InvalidWindowError{Reason: "end must be after start"}
	}
	if startsAt.Before(e.now()) {
		return nil, &InvalidWindowError{Reason: "start must not be in the past"}
	}

	unlock := e.locks.Lock(fmt.Sprintf("infrastructure:%d", infrastructureID))
	defer unlock()

	var reservation models.Reservation
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var infrastructure models.Infrastructure
		if err := tx.First(&infrastructure, infrastructureID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var overlapping int64
		err := tx.Model(&models.Reservation{}).
			Where("infrastructure_id = ? AND ends_at > ? AND starts_at < ?",
				infrastructureID, startsAt, endsAt).
			Count(&overlapping).Error
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return &OverlapError{Count: int(overlapping)}
		}

		var conflicting []models.Activity
		err = tx.Model(&models.Activity{}).
			Where("infrastructure_id = ? AND cancelled = ? AND ends_at > ? AND starts_at < ?",
				infrastructureID, false, startsAt, endsAt).
			Order("starts_at, id").
			Find(&conflicting).Error
		if err != nil {
			return err
		}
		if len(conflicting) > 0 {
			conflict := &ScheduleConflictError{Total: len(conflicting)}
			for i, a := range conflicting {
				if i == 3 {
					break
				}
				conflict.Names = append(conflict.Names, a.Name)
			}
			return conflict
		}

		reservation = models.Reservation{
			InfrastructureID: infrastructureID,
			StartsAt:         startsAt,
			EndsAt:           endsAt,
			Purpose:          purpose,
			Responsible:      responsible,
			Notes:            notes,
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
