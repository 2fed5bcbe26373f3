package models

import (
	"time"

	"gorm.io/gorm"
)

type Activity struct {
	gorm.Model
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	DurationMinutes  int             `json:"duration_minutes"`
	StartsAt         time.Time       `json:"starts_at"`
	EndsAt           time.Time       `json:"ends_at"`
	SupervisorID     *uint           `json:"supervisor_id"`
	Supervisor       *Supervisor     `json:"supervisor,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	InfrastructureID *uint           `json:"infrastructure_id"`
	Infrastructure   *Infrastructure `json:"infrastructure,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Capacity         *int            `json:"capacity"`
	DifficultyLevel  string          `json:"difficulty_level"`
	AgeMin           *int            `json:"age_min"`
	AgeMax           *int            `json:"age_max"`
	Cancelled        bool            `json:"cancelled"`
	CancelReason     string          `json:"cancel_reason"`
	KeyPoints        string          `json:"key_points"`
	Image            string          `json:"image"`
}

type ActivityAnimator struct {
	gorm.Model
	ActivityID uint     `json:"activity_id" gorm:"uniqueIndex:idx_activity_animator;constraint:OnDelete:CASCADE"`
	AnimatorID uint     `json:"animator_id" gorm:"uniqueIndex:idx_activity_animator;constraint:OnDelete:CASCADE"`
	Activity   Activity `json:"-"`
	Animator   Animator `json:"animator"`
	Role       string   `json:"role"`
	Notes      string   `json:"notes"`
}

type ActivityMaterial struct {
	gorm.Model
	ActivityID  uint     `json:"activity_id" gorm:"uniqueIndex:idx_activity_material;constraint:OnDelete:CASCADE"`
	MaterialID  uint     `json:"material_id" gorm:"uniqueIndex:idx_activity_material;constraint:OnDelete:CASCADE"`
	Activity    Activity `json:"-"`
	Material    Material `json:"material"`
	RequiredQty int      `json:"required_qty"`
	Notes       string   `json:"notes"`
}
