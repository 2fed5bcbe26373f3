package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/campdesk/campdesk/internal/query"
	"github.com/campdesk/campdesk/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type StaffHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewStaffHandler(db *gorm.DB, authHandler *auth.AuthHandler) *StaffHandler {
	return &StaffHandler{db: db, authHandler: authHandler}
}

type supervisorBody struct {
	LastName  string     `json:"last_name" required:"true"`
	FirstName string     `json:"first_name" required:"true"`
	Specialty string     `json:"specialty"`
	Phone     string     `json:"phone" required:"true"`
	Email     string     `json:"email" required:"true" format:"email"`
	AccountID *uint      `json:"account_id"`
	HiredOn   *time.Time `json:"hired_on"`
	Photo     string     `json:"photo"`
	IsActive  bool       `json:"is_active"`
	Notes     string     `json:"notes"`
}

type animatorBody struct {
	LastName   string     `json:"last_name" required:"true"`
	FirstName  string     `json:"first_name" required:"true"`
	Competency string     `json:"competency"`
	Phone      string     `json:"phone" required:"true"`
	Email      string     `json:"email" required:"true" format:"email"`
	AccountID  *uint      `json:"account_id"`
	HiredOn    *time.Time `json:"hired_on"`
	Photo      string     `json:"photo"`
	IsActive   bool       `json:"is_active"`
	Notes      string     `json:"notes"`
}

type ListStaffInput struct {
	auth.AuthInput
	Search string `query:"q"`
	Active bool   `query:"active" doc:"Only active staff"`
	Page   int    `query:"page" minimum:"1" default:"1"`
}

type ListSupervisorsOutput struct {
	Body struct {
		Supervisors []models.Supervisor `json:"supervisors"`
		Total       int64               `json:"total"`
		Page        int                 `json:"page"`
	}
}

func (h *StaffHandler) HandleListSupervisors(ctx context.Context, input *ListStaffInput) (*ListSupervisorsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	supervisors, total, err := query.Supervisors(h.db.WithContext(ctx), query.StaffFilter{
		Search:     input.Search,
		ActiveOnly: input.Active,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list supervisors: " + err.Error())
	}

	res := &ListSupervisorsOutput{}
	res.Body.Supervisors = supervisors
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type ListAnimatorsOutput struct {
	Body struct {
		Animators []models.Animator `json:"animators"`
		Total     int64             `json:"total"`
		Page      int               `json:"page"`
	}
}

func (h *StaffHandler) HandleListAnimators(ctx context.Context, input *ListStaffInput) (*ListAnimatorsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	animators, total, err := query.Animators(h.db.WithContext(ctx), query.StaffFilter{
		Search:     input.Search,
		ActiveOnly: input.Active,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list animators: " + err.Error())
	}

	res := &ListAnimatorsOutput{}
	res.Body.Animators = animators
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type CreateSupervisorInput struct {
	auth.AuthInput
	Body supervisorBody
}

type SupervisorOutput struct {
	Body models.Supervisor
}

func (h *StaffHandler) HandleCreateSupervisor(ctx context.Context, input *CreateSupervisorInput) (*SupervisorOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var supervisor models.Supervisor
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inUse, pool, err := store.EmailInUse(tx, input.Body.Email, nil, nil, input.Body.AccountID)
		if err != nil {
			return err
		}
		if inUse {
			return huma.Error409Conflict("Email already used by another " + pool)
		}

		supervisor = models.Supervisor{
			LastName:  input.Body.LastName,
			FirstName: input.Body.FirstName,
			Specialty: input.Body.Specialty,
			Phone:     input.Body.Phone,
			Email:     input.Body.Email,
			AccountID: input.Body.AccountID,
			HiredOn:   input.Body.HiredOn,
			Photo:     input.Body.Photo,
			IsActive:  input.Body.IsActive,
			Notes:     input.Body.Notes,
		}
		return tx.Create(&supervisor).Error
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to create supervisor: " + err.Error())
	}
	return &SupervisorOutput{Body: supervisor}, nil
}

type UpdateSupervisorInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body supervisorBody
}

func (h *StaffHandler) HandleUpdateSupervisor(ctx context.Context, input *UpdateSupervisorInput) (*SupervisorOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var supervisor models.Supervisor
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&supervisor, input.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return huma.Error404NotFound("Supervisor not found")
			}
			return err
		}

		inUse, pool, err := store.EmailInUse(tx, input.Body.Email, &supervisor.ID, nil, supervisor.AccountID)
		if err != nil {
			return err
		}
		if inUse {
			return huma.Error409Conflict("Email already used by another " + pool)
		}

		supervisor.LastName = input.Body.LastName
		supervisor.FirstName = input.Body.FirstName
		supervisor.Specialty = input.Body.Specialty
		supervisor.Phone = input.Body.Phone
		supervisor.Email = input.Body.Email
		supervisor.AccountID = input.Body.AccountID
		supervisor.HiredOn = input.Body.HiredOn
		supervisor.Photo = input.Body.Photo
		supervisor.IsActive = input.Body.IsActive
		supervisor.Notes = input.Body.Notes
		return tx.Save(&supervisor).Error
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to update supervisor: " + err.Error())
	}
	return &SupervisorOutput{Body: supervisor}, nil
}

type DeleteStaffInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *StaffHandler) HandleDeleteSupervisor(ctx context.Context, input *DeleteStaffInput) (*struct{}, error) {
	account, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteSupervisor(h.db.WithContext(ctx), input.ID, &account.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, nil
}

type CreateAnimatorInput struct {
	auth.AuthInput
	Body animatorBody
}

type AnimatorOutput struct {
	Body models.Animator
}

func (h *StaffHandler) HandleCreateAnimator(ctx context.Context, input *CreateAnimatorInput) (*AnimatorOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var animator models.Animator
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inUse, pool, err := store.EmailInUse(tx, input.Body.Email, nil, nil, input.Body.AccountID)
		if err != nil {
			return err
		}
		if inUse {
			return huma.Error409Conflict("Email already used by another " + pool)
		}

		animator = models.Animator{
			LastName:   input.Body.LastName,
			FirstName:  input.Body.FirstName,
			Competency: input.Body.Competency,
			Phone:      input.Body.Phone,
			Email:      input.Body.Email,
			AccountID:  input.Body.AccountID,
			HiredOn:    input.Body.HiredOn,
			Photo:      input.Body.Photo,
			IsActive:   input.Body.IsActive,
			Notes:      input.Body.Notes,
		}
		return tx.Create(&animator).Error
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to create animator: " + err.Error())
	}
	return &AnimatorOutput{Body: animator}, nil
}

type UpdateAnimatorInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body animatorBody
}

func (h *StaffHandler) HandleUpdateAnimator(ctx context.Context, input *UpdateAnimatorInput) (*AnimatorOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var animator models.Animator
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&animator, input.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return huma.Error404NotFound("Animator not found")
			}
			return err
		}

		inUse, pool, err := store.EmailInUse(tx, input.Body.Email, nil, &animator.ID, animator.AccountID)
		if err != nil {
			return err
		}
		if inUse {
			return huma.Error409Conflict("Email already used by another " + pool)
		}

		animator.LastName = input.Body.LastName
		animator.FirstName = input.Body.FirstName
		animator.Competency = input.Body.Competency
		animator.Phone = input.Body.Phone
		animator.Email = input.Body.Email
		animator.AccountID = input.Body.AccountID
		animator.HiredOn = input.Body.HiredOn
		animator.Photo = input.Body.Photo
		animator.IsActive = input.Body.IsActive
		animator.Notes = input.Body.Notes
		return tx.Save(&animator).Error
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to update animator: " + err.Error())
	}
	return &AnimatorOutput{Body: animator}, nil
}

func (h *StaffHandler) HandleDeleteAnimator(ctx context.Context, input *DeleteStaffInput) (*struct{}, error) {
	account, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteAnimator(h.db.WithContext(ctx), input.ID, &account.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, nil
}
