// Package store owns the entity-specific deletion paths. GORM's soft
// deletes do not trigger SQL-level cascades, so every dependent row is
// handled explicitly inside one transaction: join records follow their
// parent (cascade), while historical references to removed staff,
// infrastructure or materials are nullified to preserve activity history.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/campdesk/campdesk/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

func audit(tx *gorm.DB, accountID *uint, action, entityName string, entityID uint, details any) error {
	entry := models.AuditLog{
		AccountID:  accountID,
		Action:     action,
		EntityName: entityName,
		EntityID:   entityID,
		Timestamp:  time.Now(),
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = string(raw)
		}
	}
	return tx.Create(&entry).Error
}

func find[T any](tx *gorm.DB, id uint) (*T, error) {
	var entity T
	if err := tx.First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// DeleteParticipant removes the participant and all their registrations.
func DeleteParticipant(db *gorm.DB, id uint, accountID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		participant, err := find[models.Participant](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("participant_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(participant).Error; err != nil {
			return err
		}
		return audit(tx, accountID, "delete", "participant", id, map[string]string{"name": participant.FullName()})
	})
}

// DeleteActivity removes the activity with its registrations, animator
// links and material links.
func DeleteActivity(db *gorm.DB, id uint, accountID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		activity, err := find[models.Activity](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("activity_id = ?", id).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		// Link rows go for good so their composite unique indexes free up.
		if err := tx.Unscoped().Where("activity_id = ?", id).Delete(&models.ActivityAnimator{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("activity_id = ?", id).Delete(&models.ActivityMaterial{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(activity).Error; err != nil {
			return err
		}
		return audit(tx, accountID, "delete", "activity", id, map[string]string{"name": activity.Name})
	})
}

// DeleteSupervisor nullifies the supervisor on their activities (history is
// kept) and removes their schedules.
func DeleteSupervisor(db *gorm.DB, id uint, accountID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		supervisor, err := find[models.Supervisor](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Activity{}).Where("supervisor_id = ?", id).
			Update("supervisor_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("supervisor_id = ?", id).Delete(&models.StaffSchedule{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(supervisor).Error; err != nil {
			return err
		}
		return audit(tx, accountID, "delete", "supervisor", id, map[string]string{"name": supervisor.FullName()})
	})
}

// DeleteAnimator removes the animator with their activity links and
// schedules.
func DeleteAnimator(db *gorm.DB, id uint, accountID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		animator, err := find[models.Animator](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Unscoped().Where("animator_id = ?", id).Delete(&models.ActivityAnimator{}).Error; err != nil {
			return err
		}
		if err := tx.Where("animator_id = ?", id).Delete(&models.StaffSchedule{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(animator).Error; err != nil {
			return err
		}
		return audit(tx, accountID, "delete", "animator", id, map[string]string{"name": animator.FullName()})
	})
}

// DeleteInfrastructure nullifies the infrastructure on activities and
// removes its reservations.
func DeleteInfrastructure(db *gorm.DB, id uint, accountID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		infrastructure, err := find[models.Infrastructure](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Activity{}).Where("infrastructure_id = ?", id).
			Update("infrastructure_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("infrastructure_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(infrastructure).Error; err != nil {
			return err
		}
		return audit(tx, accountID, "delete", "infrastructure", id, map[string]string{"name": infrastructure.Name})
	})
}

// DeleteAccount nullifies the account on linked staff profiles and removes
// its API keys.
func DeleteAccount(db *gorm.DB, id uint, accountID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		account, err := find[models.Account](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Supervisor{}).Where("account_id = ?", id).
			Update("account_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Animator{}).Where("account_id = ?", id).
			Update("account_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.APIKey{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(account).Error; err != nil {
			return err
		}
		return audit(tx, accountID, "delete", "account", id, map[string]string{"username": account.Username})
	})
}

// DeleteMaterial removes the material and its activity links.
func DeleteMaterial(db *gorm.DB, id uint, accountID *uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		material, err := find[models.Material](tx, id)
		if err != nil {
			return err
		}
		if err := tx.Unscoped().Where("material_id = ?", id).Delete(&models.ActivityMaterial{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(material).Error; err != nil {
			return err
		}
		return audit(tx, accountID, "delete", "material", id, map[string]string{"name": material.Name})
	})
}
