package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/booking"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/campdesk/campdesk/internal/notifier"
	"github.com/campdesk/campdesk/internal/query"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type RegistrationHandler struct {
	db          *gorm.DB
	engine      *booking.Engine
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewRegistrationHandler(db *gorm.DB, engine *booking.Engine, n notifier.Notifier, authHandler *auth.AuthHandler) *RegistrationHandler {
	return &RegistrationHandler{db: db, engine: engine, notifier: n, authHandler: authHandler}
}

type ListRegistrationsInput struct {
	auth.AuthInput
	Search     string `query:"q" doc:"Free text search over participant and activity names"`
	Status     string `query:"status" enum:"registered,waitlisted,cancelled"`
	ActivityID *uint  `query:"activity"`
	Page       int    `query:"page" minimum:"1" default:"1"`
}

type ListRegistrationsOutput struct {
	Body struct {
		Registrations []models.Registration `json:"registrations"`
		Total         int64                 `json:"total"`
		Page          int                   `json:"page"`
	}
}

func (h *RegistrationHandler) HandleList(ctx context.Context, input *ListRegistrationsInput) (*ListRegistrationsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	registrations, total, err := query.Registrations(h.db.WithContext(ctx), query.RegistrationFilter{
		Search:     input.Search,
		Status:     models.RegistrationStatus(input.Status),
		ActivityID: input.ActivityID,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list registrations: " + err.Error())
	}

	res := &ListRegistrationsOutput{}
	res.Body.Registrations = registrations
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type RegisterInput struct {
	auth.AuthInput
	Body struct {
		ParticipantID uint `json:"participant_id" required:"true"`
		ActivityID    uint `json:"activity_id" required:"true"`
	}
}

type RegistrationOutput struct {
	Body models.Registration
}

func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegisterInput) (*RegistrationOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	registration, err := h.engine.Register(ctx, input.Body.ParticipantID, input.Body.ActivityID)
	if err != nil {
		return nil, mapBookingError(err)
	}

	h.notify(ctx, registration)
	return &RegistrationOutput{Body: *registration}, nil
}

type CancelRegistrationInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *RegistrationHandler) HandleCancel(ctx context.Context, input *CancelRegistrationInput) (*RegistrationOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	registration, err := h.engine.CancelRegistration(ctx, input.ID)
	if err != nil {
		return nil, mapBookingError(err)
	}

	h.notify(ctx, registration)
	return &RegistrationOutput{Body: *registration}, nil
}

type AttendedInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		Attended bool `json:"attended"`
	}
}

func (h *RegistrationHandler) HandleAttended(ctx context.Context, input *AttendedInput) (*RegistrationOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var registration models.Registration
	if err := h.db.WithContext(ctx).First(&registration, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Registration not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	registration.Attended = input.Body.Attended
	if err := h.db.WithContext(ctx).Save(&registration).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update registration: " + err.Error())
	}
	return &RegistrationOutput{Body: registration}, nil
}

func (h *RegistrationHandler) notify(ctx context.Context, registration *models.Registration) {
	if h.notifier == nil {
		return
	}

	var participant models.Participant
	var activity models.Activity
	if err := h.db.WithContext(ctx).First(&participant, registration.ParticipantID).Error; err != nil {
		return
	}
	if err := h.db.WithContext(ctx).First(&activity, registration.ActivityID).Error; err != nil {
		return
	}

	if err := h.notifier.NotifyRegistration(participant, activity, *registration); err != nil {
		log.Printf("Failed to send registration notification: %v", err)
	}
}
