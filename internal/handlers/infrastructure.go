package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/booking"
	"github.com/campdesk/campdesk/internal/models"
	"github.com/campdesk/campdesk/internal/notifier"
	"github.com/campdesk/campdesk/internal/query"
	"github.com/campdesk/campdesk/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type InfrastructureHandler struct {
	db          *gorm.DB
	engine      *booking.Engine
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewInfrastructureHandler(db *gorm.DB, engine *booking.Engine, n notifier.Notifier, authHandler *auth.AuthHandler) *InfrastructureHandler {
	return &InfrastructureHandler{db: db, engine: engine, notifier: n, authHandler: authHandler}
}

type infrastructureBody struct {
	Name                string     `json:"name" required:"true"`
	Type                string     `json:"type" required:"true"`
	Capacity            *int       `json:"capacity"`
	Location            string     `json:"location"`
	Available           bool       `json:"available"`
	Description         string     `json:"description"`
	Photo               string     `json:"photo"`
	MaintenanceNotes    string     `json:"maintenance_notes"`
	LastMaintenanceDate *time.Time `json:"last_maintenance_date"`
	NextMaintenanceDate *time.Time `json:"next_maintenance_date"`
}

func (b *infrastructureBody) validate() error {
	if b.Capacity != nil && *b.Capacity < 0 {
		return huma.Error422UnprocessableEntity("Capacity cannot be negative")
	}
	if b.LastMaintenanceDate != nil && b.NextMaintenanceDate != nil &&
		b.LastMaintenanceDate.After(*b.NextMaintenanceDate) {
		return huma.Error422UnprocessableEntity("Next maintenance must be after the last maintenance")
	}
	return nil
}

func (b *infrastructureBody) apply(i *models.Infrastructure) {
	i.Name = b.Name
	i.Type = b.Type
	i.Capacity = b.Capacity
	i.Location = b.Location
	i.Available = b.Available
	i.Description = b.Description
	i.Photo = b.Photo
	i.MaintenanceNotes = b.MaintenanceNotes
	i.LastMaintenanceDate = b.LastMaintenanceDate
	i.NextMaintenanceDate = b.NextMaintenanceDate
}

type ListInfrastructuresInput struct {
	auth.AuthInput
	Search        string `query:"q"`
	AvailableOnly bool   `query:"available"`
	Page          int    `query:"page" minimum:"1" default:"1"`
}

type ListInfrastructuresOutput struct {
	Body struct {
		Infrastructures []models.Infrastructure `json:"infrastructures"`
		Total           int64                   `json:"total"`
		Page            int                     `json:"page"`
	}
}

func (h *InfrastructureHandler) HandleList(ctx context.Context, input *ListInfrastructuresInput) (*ListInfrastructuresOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	infrastructures, total, err := query.Infrastructures(h.db.WithContext(ctx), query.InfrastructureFilter{
		Search:        input.Search,
		AvailableOnly: input.AvailableOnly,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list infrastructures: " + err.Error())
	}

	res := &ListInfrastructuresOutput{}
	res.Body.Infrastructures = infrastructures
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type GetInfrastructureInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type InfrastructureOutput struct {
	Body models.Infrastructure
}

func (h *InfrastructureHandler) HandleGet(ctx context.Context, input *GetInfrastructureInput) (*InfrastructureOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var infrastructure models.Infrastructure
	if err := h.db.WithContext(ctx).First(&infrastructure, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Infrastructure not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}
	return &InfrastructureOutput{Body: infrastructure}, nil
}

type CreateInfrastructureInput struct {
	auth.AuthInput
	Body infrastructureBody
}

func (h *InfrastructureHandler) HandleCreate(ctx context.Context, input *CreateInfrastructureInput) (*InfrastructureOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	var infrastructure models.Infrastructure
	input.Body.apply(&infrastructure)

	if err := h.db.WithContext(ctx).Create(&infrastructure).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create infrastructure: " + err.Error())
	}
	return &InfrastructureOutput{Body: infrastructure}, nil
}

type UpdateInfrastructureInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body infrastructureBody
}

func (h *InfrastructureHandler) HandleUpdate(ctx context.Context, input *UpdateInfrastructureInput) (*InfrastructureOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	var infrastructure models.Infrastructure
	if err := h.db.WithContext(ctx).First(&infrastructure, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Infrastructure not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	input.Body.apply(&infrastructure)
	if err := h.db.WithContext(ctx).Save(&infrastructure).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update infrastructure: " + err.Error())
	}
	return &InfrastructureOutput{Body: infrastructure}, nil
}

type DeleteInfrastructureInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *InfrastructureHandler) HandleDelete(ctx context.Context, input *DeleteInfrastructureInput) (*struct{}, error) {
	account, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteInfrastructure(h.db.WithContext(ctx), input.ID, &account.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, nil
}

type ReserveInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		StartsAt    time.Time `json:"starts_at" required:"true"`
		EndsAt      time.Time `json:"ends_at" required:"true"`
		Purpose     string    `json:"purpose" required:"true"`
		Responsible string    `json:"responsible" required:"true"`
		Notes       string    `json:"notes"`
	}
}

type ReservationOutput struct {
	Body models.Reservation
}

func (h *InfrastructureHandler) HandleReserve(ctx context.Context, input *ReserveInput) (*ReservationOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	reservation, err := h.engine.Reserve(ctx, input.ID,
		input.Body.StartsAt, input.Body.EndsAt,
		input.Body.Purpose, input.Body.Responsible, input.Body.Notes)
	if err != nil {
		return nil, mapBookingError(err)
	}

	if h.notifier != nil {
		var infrastructure models.Infrastructure
		if err := h.db.WithContext(ctx).First(&infrastructure, input.ID).Error; err == nil {
			if err := h.notifier.NotifyReservation(infrastructure, *reservation); err != nil {
				log.Printf("Failed to send reservation notification: %v", err)
			}
		}
	}
	return &ReservationOutput{Body: *reservation}, nil
}

type ListReservationsInput struct {
	auth.AuthInput
	InfrastructureID *uint `query:"infrastructure"`
	Upcoming         bool  `query:"upcoming"`
	Page             int   `query:"page" minimum:"1" default:"1"`
}

type ListReservationsOutput struct {
	Body struct {
		Reservations []models.Reservation `json:"reservations"`
		Total        int64                `json:"total"`
		Page         int                  `json:"page"`
	}
}

func (h *InfrastructureHandler) HandleListReservations(ctx context.Context, input *ListReservationsInput) (*ListReservationsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	reservations, total, err := query.Reservations(h.db.WithContext(ctx), query.ReservationFilter{
		InfrastructureID: input.InfrastructureID,
		UpcomingOnly:     input.Upcoming,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list reservations: " + err.Error())
	}

	res := &ListReservationsOutput{}
	res.Body.Reservations = reservations
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type DeleteReservationInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *InfrastructureHandler) HandleDeleteReservation(ctx context.Context, input *DeleteReservationInput) (*struct{}, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	result := h.db.WithContext(ctx).Delete(&models.Reservation{}, input.ID)
	if result.Error != nil {
		return nil, huma.Error500InternalServerError("Failed to delete reservation: " + result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Reservation not found")
	}
	return nil, nil
}
