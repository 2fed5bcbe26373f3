package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/booking"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/campdesk/campdesk/internal/query"
	"github.com/campdesk/campdesk/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type ActivityHandler struct {
	db          *gorm.DB
	engine      *booking.Engine
	authHandler *auth.AuthHandler
}

func NewActivityHandler(db *gorm.DB, engine *booking.Engine, authHandler *auth.AuthHandler) *ActivityHandler {
	return &ActivityHandler{db: db, engine: engine, authHandler: authHandler}
}

type activityBody struct {
	Name             string     `json:"name" required:"true"`
	Description      string     `json:"description"`
	DurationMinutes  int        `json:"duration_minutes" required:"true" doc:"Duration in minutes"`
	StartsAt         time.Time  `json:"starts_at" required:"true"`
	EndsAt           *time.Time `json:"ends_at" doc:"Derived from start and duration when omitted"`
	SupervisorID     *uint      `json:"supervisor_id"`
	InfrastructureID *uint      `json:"infrastructure_id"`
	Capacity         *int       `json:"capacity" doc:"Maximum participants, omit for unlimited"`
	DifficultyLevel  string     `json:"difficulty_level"`
	AgeMin           *int       `json:"age_min"`
	AgeMax           *int       `json:"age_max"`
	KeyPoints        string     `json:"key_points"`
	Image            string     `json:"image"`
}

func (b *activityBody) validate() error {
	if b.DurationMinutes <= 0 {
		return huma.Error422UnprocessableEntity("Duration must be positive")
	}
	if b.Capacity != nil && *b.Capacity < 0 {
		return huma.Error422UnprocessableEntity("Capacity cannot be negative")
	}
	if b.AgeMin != nil && b.AgeMax != nil && *b.AgeMin > *b.AgeMax {
		return huma.Error422UnprocessableEntity("Minimum age cannot exceed maximum age")
	}
	return nil
}

func (b *activityBody) apply(a *models.Activity) {
	a.Name = b.Name
	a.Description = b.Description
	a.DurationMinutes = b.DurationMinutes
	a.StartsAt = b.StartsAt
	if b.EndsAt != nil {
		a.EndsAt = *b.EndsAt
	}
	a.SupervisorID = b.SupervisorID
	a.InfrastructureID = b.InfrastructureID
	a.Capacity = b.Capacity
	a.DifficultyLevel = b.DifficultyLevel
	a.AgeMin = b.AgeMin
	a.AgeMax = b.AgeMax
	a.KeyPoints = b.KeyPoints
	a.Image = b.Image
	// End time is set once: derive it only when still absent.
	booking.ApplyEndTime(a)
}

type ListActivitiesInput struct {
	auth.AuthInput
	Search       string `query:"q" doc:"Free text search over name, description and supervisor names"`
	DateFilter   string `query:"date_filter" enum:"today,this_week,this_month,past,future"`
	SupervisorID *uint  `query:"supervisor"`
	Sort         string `query:"sort" enum:"name,date,participants" doc:"Sort key, defaults to date"`
	Page         int    `query:"page" minimum:"1" default:"1"`
}

type ListActivitiesOutput struct {
	Body struct {
		Activities []models.Activity `json:"activities"`
		Total      int64             `json:"total"`
		Page       int               `json:"page"`
	}
}

func (h *ActivityHandler) HandleList(ctx context.Context, input *ListActivitiesInput) (*ListActivitiesOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	activities, total, err := query.Activities(h.db.WithContext(ctx), query.ActivityFilter{
		Search:       input.Search,
		DateFilter:   input.DateFilter,
		SupervisorID: input.SupervisorID,
		Sort:         input.Sort,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list activities: " + err.Error())
	}

	res := &ListActivitiesOutput{}
	res.Body.Activities = activities
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type GetActivityInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type ActivityDetailOutput struct {
	Body struct {
		models.Activity
		Animators     []models.ActivityAnimator `json:"animators"`
		Materials     []models.ActivityMaterial `json:"materials"`
		Registrations []models.Registration     `json:"registrations"`
	}
}

func (h *ActivityHandler) HandleGet(ctx context.Context, input *GetActivityInput) (*ActivityDetailOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)

	var activity models.Activity
	if err := db.Preload("Supervisor").Preload("Infrastructure").
		First(&activity, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Activity not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	res := &ActivityDetailOutput{}
	res.Body.Activity = activity

	if err := db.Preload("Animator").Where("activity_id = ?", input.ID).
		Find(&res.Body.Animators).Error; err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}
	if err := db.Preload("Material").Where("activity_id = ?", input.ID).
		Find(&res.Body.Materials).Error; err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}
	if err := db.Preload("Participant").Where("activity_id = ?", input.ID).
		Find(&res.Body.Registrations).Error; err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}
	return res, nil
}

type CreateActivityInput struct {
	auth.AuthInput
	Body activityBody
}

type ActivityOutput struct {
	Body models.Activity
}

func (h *ActivityHandler) HandleCreate(ctx context.Context, input *CreateActivityInput) (*ActivityOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	var activity models.Activity
	input.Body.apply(&activity)

	if err := h.db.WithContext(ctx).Create(&activity).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create activity: " + err.Error())
	}
	return &ActivityOutput{Body: activity}, nil
}

type UpdateActivityInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body activityBody
}

func (h *ActivityHandler) HandleUpdate(ctx context.Context, input *UpdateActivityInput) (*ActivityOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	var activity models.Activity
	if err := h.db.WithContext(ctx).First(&activity, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Activity not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	input.Body.apply(&activity)
	if err := h.db.WithContext(ctx).Save(&activity).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update activity: " + err.Error())
	}
	return &ActivityOutput{Body: activity}, nil
}

type CancelActivityInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Reason string `json:"reason" required:"true"`
	}
}

func (h *ActivityHandler) HandleCancel(ctx context.Context, input *CancelActivityInput) (*ActivityOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var activity models.Activity
	if err := h.db.WithContext(ctx).First(&activity, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Activity not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	activity.Cancelled = true
	activity.CancelReason = input.Body.Reason
	if err := h.db.WithContext(ctx).Save(&activity).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to cancel activity: " + err.Error())
	}
	return &ActivityOutput{Body: activity}, nil
}

type DeleteActivityInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *ActivityHandler) HandleDelete(ctx context.Context, input *DeleteActivityInput) (*struct{}, error) {
	account, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteActivity(h.db.WithContext(ctx), input.ID, &account.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, nil
}

type CapacityInput struct {
	ID uint `path:"id"`
}

type CapacityOutput struct {
	Status int
	Body   struct {
		Success             bool   `json:"success"`
		IsFull              bool   `json:"is_full,omitempty"`
		AvailableSpots      *int   `json:"available_spots"`
		TotalCapacity       *int   `json:"total_capacity"`
		CurrentParticipants int    `json:"current_participants,omitempty"`
		Error               string `json:"error,omitempty"`
	}
}

// HandleCapacity is the JSON status endpoint consumed by detail pages:
// available_spots and total_capacity are null for unlimited activities.
func (h *ActivityHandler) HandleCapacity(ctx context.Context, input *CapacityInput) (*CapacityOutput, error) {
	summary, err := h.engine.Availability(ctx, input.ID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			res := &CapacityOutput{Status: http.StatusNotFound}
			res.Body.Error = "Activity not found"
			return res, nil
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	res := &CapacityOutput{Status: http.StatusOK}
	res.Body.Success = true
	res.Body.IsFull = summary.IsFull
	res.Body.AvailableSpots = summary.AvailableSpots
	res.Body.TotalCapacity = summary.TotalCapacity
	res.Body.CurrentParticipants = summary.CurrentParticipants
	return res, nil
}
