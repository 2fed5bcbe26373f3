package store

import (
	"github.com/campdesk/campdesk/internal/models"
	"gorm.io/gorm"
)

// EmailInUse checks an email against the supervisor, animator and account
// pools jointly. The exclude ids skip the row being updated. Run inside the
// same transaction as the write so the check-then-write is atomic under
// SQLite's single-writer model.
func EmailInUse(tx *gorm.DB, email string, excludeSupervisorID, excludeAnimatorID, excludeAccountID *uint) (bool, string, error) {
	if email == "" {
		return false, "", nil
	}

	var count int64

	q := tx.Model(&models.Supervisor{}).Where("email = ?", email)
	if excludeSupervisorID != nil {
		q = q.Where("id <> ?", *excludeSupervisorID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, "", err
	}
	if count > 0 {
		return true, "supervisor", nil
	}

	q = tx.Model(&models.Animator{}).Where("email = ?", email)
	if excludeAnimatorID != nil {
		q = q.Where("id <> ?", *excludeAnimatorID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, "", err
	}
	if count > 0 {
		return true, "animator", nil
	}

	q = tx.Model(&models.Account{}).Where("email = ?", email)
	if excludeAccountID != nil {
		q = q.Where("id <> ?", *excludeAccountID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, "", err
	}
	if count > 0 {
		return true, "account", nil
	}

	return false, "", nil
}
