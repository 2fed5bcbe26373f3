package handlers

import (
	"context"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/booking"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/campdesk/campdesk/internal/query"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

// AssignmentHandler manages the animator and material links of an activity.
type AssignmentHandler struct {
	db          *gorm.DB
	engine      *booking.Engine
	authHandler *auth.AuthHandler
}

func NewAssignmentHandler(db *gorm.DB, engine *booking.Engine, authHandler *auth.AuthHandler) *AssignmentHandler {
	return &AssignmentHandler{db: db, engine: engine, authHandler: authHandler}
}

type AssignAnimatorInput struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
	Body       struct {
		AnimatorID uint   `json:"animator_id" required:"true"`
		Role       string `json:"role"`
		Notes      string `json:"notes"`
	}
}

type AnimatorLinkOutput struct {
	Body models.ActivityAnimator
}

func (h *AssignmentHandler) HandleAssignAnimator(ctx context.Context, input *AssignAnimatorInput) (*AnimatorLinkOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	link, err := h.engine.AssignAnimator(ctx, input.ActivityID, input.Body.AnimatorID, input.Body.Role, input.Body.Notes)
	if err != nil {
		return nil, mapBookingError(err)
	}
	return &AnimatorLinkOutput{Body: *link}, nil
}

type RemoveAnimatorInput struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
	AnimatorID uint `path:"animatorId"`
}

func (h *AssignmentHandler) HandleRemoveAnimator(ctx context.Context, input *RemoveAnimatorInput) (*struct{}, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	// Hard delete: a soft-deleted row would keep occupying the composite
	// unique index and block re-assigning the pair.
	result := h.db.WithContext(ctx).Unscoped().
		Where("activity_id = ? AND animator_id = ?", input.ActivityID, input.AnimatorID).
		Delete(&models.ActivityAnimator{})
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to remove animator: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Assignment not found")
	}
	return nil, nil
}

type AssignMaterialInput struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
	Body       struct {
		MaterialID  uint   `json:"material_id" required:"true"`
		RequiredQty int    `json:"required_qty" required:"true" minimum:"1"`
		Notes       string `json:"notes"`
	}
}

type MaterialLinkOutput struct {
	Body models.ActivityMaterial
}

func (h *AssignmentHandler) HandleAssignMaterial(ctx context.Context, input *AssignMaterialInput) (*MaterialLinkOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	link, err := h.engine.AssignMaterial(ctx, input.ActivityID, input.Body.MaterialID, input.Body.RequiredQty, input.Body.Notes)
	if err != nil {
		return nil, mapBookingError(err)
	}
	return &MaterialLinkOutput{Body: *link}, nil
}

type RemoveMaterialInput struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
	MaterialID uint `path:"materialId"`
}

func (h *AssignmentHandler) HandleRemoveMaterial(ctx context.Context, input *RemoveMaterialInput) (*struct{}, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	result := h.db.WithContext(ctx).Unscoped().
		Where("activity_id = ? AND material_id = ?", input.ActivityID, input.MaterialID).
		Delete(&models.ActivityMaterial{})
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to remove material: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Assignment not found")
	}
	return nil, nil
}

type AvailableAnimatorsInput struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
}

type AvailableAnimatorsOutput struct {
	Body struct {
		Animators []models.Animator `json:"animators"`
	}
}

// HandleAvailableAnimators lists active animators not yet assigned to the
// activity, for the assignment picker.
func (h *AssignmentHandler) HandleAvailableAnimators(ctx context.Context, input *AvailableAnimatorsInput) (*AvailableAnimatorsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	animators, err := query.AvailableAnimators(h.db.WithContext(ctx), input.ActivityID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}

	res := &AvailableAnimatorsOutput{}
	res.Body.Animators = animators
	return res, nil
}

type AvailableMaterialsInput struct {
	auth.AuthInput
	ActivityID uint `path:"id"`
}

type AvailableMaterialsOutput struct {
	Body struct {
		Materials []models.Material `json:"materials"`
	}
}

func (h *AssignmentHandler) HandleAvailableMaterials(ctx context.Context, input *AvailableMaterialsInput) (*AvailableMaterialsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	materials, err := query.AvailableMaterials(h.db.WithContext(ctx), input.ActivityID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}

	res := &AvailableMaterialsOutput{}
	res.Body.Materials = materials
	return res, nil
}
