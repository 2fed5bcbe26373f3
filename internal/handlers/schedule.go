package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type ScheduleHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewScheduleHandler(db *gorm.DB, authHandler *auth.AuthHandler) *ScheduleHandler {
	return &ScheduleHandler{db: db, authHandler: authHandler}
}

type scheduleBody struct {
	SupervisorID *uint  `json:"supervisor_id"`
	AnimatorID   *uint  `json:"animator_id"`
	Date         string `json:"date" required:"true" doc:"Shift date, 2006-01-02"`
	StartTime    string `json:"start_time" required:"true" doc:"Shift start, 15:04"`
	EndTime      string `json:"end_time" required:"true" doc:"Shift end, 15:04"`
	Notes        string `json:"notes"`
}

func (b *scheduleBody) validate() error {
	if (b.SupervisorID == nil) == (b.AnimatorID == nil) {
		return huma.Error422UnprocessableEntity("Exactly one of supervisor_id or animator_id must be set")
	}
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return huma.Error422UnprocessableEntity("Invalid date, expected 2006-01-02")
	}
	start, err := time.Parse("15:04", b.StartTime)
	if err != nil {
		return huma.Error422UnprocessableEntity("Invalid start time, expected 15:04")
	}
	end, err := time.Parse("15:04", b.EndTime)
	if err != nil {
		return huma.Error422UnprocessableEntity("Invalid end time, expected 15:04")
	}
	if !start.Before(end) {
		return huma.Error422UnprocessableEntity("End time must be after start time")
	}
	return nil
}

func (h *ScheduleHandler) checkStaff(ctx context.Context, b *scheduleBody) error {
	if b.SupervisorID != nil {
		var supervisor models.Supervisor
		if err := h.db.WithContext(ctx).First(&supervisor, *b.SupervisorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return huma.Error404NotFound("Supervisor not found")
			}
			return huma.Error500InternalServerError("Database error")
		}
	}
	if b.AnimatorID != nil {
		var animator models.Animator
		if err := h.db.WithContext(ctx).First(&animator, *b.AnimatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return huma.Error404NotFound("Animator not found")
			}
			return huma.Error500InternalServerError("Database error")
		}
	}
	return nil
}

type ListSchedulesInput struct {
	auth.AuthInput
	SupervisorID *uint  `query:"supervisor"`
	AnimatorID   *uint  `query:"animator"`
	Date         string `query:"date" doc:"Filter by shift date, 2006-01-02"`
}

type ListSchedulesOutput struct {
	Body struct {
		Schedules []models.StaffSchedule `json:"schedules"`
	}
}

func (h *ScheduleHandler) HandleList(ctx context.Context, input *ListSchedulesInput) (*ListSchedulesOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	q := h.db.WithContext(ctx).Model(&models.StaffSchedule{})
	if input.SupervisorID != nil {
		q = q.Where("supervisor_id = ?", *input.SupervisorID)
	}
	if input.AnimatorID != nil {
		q = q.Where("animator_id = ?", *input.AnimatorID)
	}
	if input.Date != "" {
		q = q.Where("date = ?", input.Date)
	}

	res := &ListSchedulesOutput{}
	if err := q.Order("date, start_time, id").Find(&res.Body.Schedules).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list schedules: " + err.Error())
	}
	return res, nil
}

type CreateScheduleInput struct {
	auth.AuthInput
	Body scheduleBody
}

type ScheduleOutput struct {
	Body models.StaffSchedule
}

func (h *ScheduleHandler) HandleCreate(ctx context.Context, input *CreateScheduleInput) (*ScheduleOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}
	if err := h.checkStaff(ctx, &input.Body); err != nil {
		return nil, err
	}

	schedule := models.StaffSchedule{
		SupervisorID: input.Body.SupervisorID,
		AnimatorID:   input.Body.AnimatorID,
		Date:         input.Body.Date,
		StartTime:    input.Body.StartTime,
		EndTime:      input.Body.EndTime,
		Notes:        input.Body.Notes,
	}
	if err := h.db.WithContext(ctx).Create(&schedule).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create schedule: " + err.Error())
	}
	return &ScheduleOutput{Body: schedule}, nil
}

type UpdateScheduleInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body scheduleBody
}

func (h *ScheduleHandler) HandleUpdate(ctx context.Context, input *UpdateScheduleInput) (*ScheduleOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}
	if err := h.checkStaff(ctx, &input.Body); err != nil {
		return nil, err
	}

	var schedule models.StaffSchedule
	if err := h.db.WithContext(ctx).First(&schedule, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Schedule not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	schedule.SupervisorID = input.Body.SupervisorID
	schedule.AnimatorID = input.Body.AnimatorID
	schedule.Date = input.Body.Date
	schedule.StartTime = input.Body.StartTime
	schedule.EndTime = input.Body.EndTime
	schedule.Notes = input.Body.Notes
	if err := h.db.WithContext(ctx).Save(&schedule).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update schedule: " + err.Error())
	}
	return &ScheduleOutput{Body: schedule}, nil
}

type DeleteScheduleInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *ScheduleHandler) HandleDelete(ctx context.Context, input *DeleteScheduleInput) (*struct{}, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	result := h.db.WithContext(ctx).Delete(&models.StaffSchedule{}, input.ID)
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete schedule: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Schedule not found")
	}
	return nil, nil
}
