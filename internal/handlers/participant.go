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

type ParticipantHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewParticipantHandler(db *gorm.DB, authHandler *auth.AuthHandler) *ParticipantHandler {
	return &ParticipantHandler{db: db, authHandler: authHandler}
}

type participantBody struct {
	LastName              string    `json:"last_name" required:"true"`
	FirstName             string    `json:"first_name" required:"true"`
	BirthDate             time.Time `json:"birth_date" required:"true"`
	Address               string    `json:"address"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	Photo                 string    `json:"photo"`
	EmergencyContactName  string    `json:"emergency_contact_name"`
	EmergencyContactPhone string    `json:"emergency_contact_phone"`
	HealthNotes           string    `json:"health_notes"`
	HasAuthorization      bool      `json:"has_authorization"`
}

func (b *participantBody) validate() error {
	if b.BirthDate.After(time.Now()) {
		return huma.Error422UnprocessableEntity("Birth date cannot be in the future")
	}
	return nil
}

func (b *participantBody) apply(p *models.Participant) {
	p.LastName = b.LastName
	p.FirstName = b.FirstName
	p.BirthDate = b.BirthDate
	p.Address = b.Address
	p.Phone = b.Phone
	p.Email = b.Email
	p.Photo = b.Photo
	p.EmergencyContactName = b.EmergencyContactName
	p.EmergencyContactPhone = b.EmergencyContactPhone
	p.HealthNotes = b.HealthNotes
	p.HasAuthorization = b.HasAuthorization
}

type ListParticipantsInput struct {
	auth.AuthInput
	Search           string `query:"q" doc:"Free text search over names, email and phone"`
	HasAuthorization *bool  `query:"has_authorization"`
	AgeMin           *int   `query:"age_min"`
	AgeMax           *int   `query:"age_max"`
	Sort             string `query:"sort" enum:"name,recent" doc:"Sort key, defaults to name"`
	Page             int    `query:"page" minimum:"1" default:"1"`
}

type ListParticipantsOutput struct {
	Body struct {
		Participants []models.Participant `json:"participants"`
		Total        int64                `json:"total"`
		Page         int                  `json:"page"`
	}
}

func (h *ParticipantHandler) HandleList(ctx context.Context, input *ListParticipantsInput) (*ListParticipantsOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	participants, total, err := query.Participants(h.db.WithContext(ctx), query.ParticipantFilter{
		Search:           input.Search,
		HasAuthorization: input.HasAuthorization,
		AgeMin:           input.AgeMin,
		AgeMax:           input.AgeMax,
		Sort:             input.Sort,
	}, input.Page)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list participants: " + err.Error())
	}

	res := &ListParticipantsOutput{}
	res.Body.Participants = participants
	res.Body.Total = total
	res.Body.Page = input.Page
	return res, nil
}

type GetParticipantInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type ParticipantOutput struct {
	Body struct {
		models.Participant
		Age int `json:"age"`
	}
}

func (h *ParticipantHandler) HandleGet(ctx context.Context, input *GetParticipantInput) (*ParticipantOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var participant models.Participant
	if err := h.db.WithContext(ctx).First(&participant, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Participant not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	res := &ParticipantOutput{}
	res.Body.Participant = participant
	res.Body.Age = participant.Age(time.Now())
	return res, nil
}

type CreateParticipantInput struct {
	auth.AuthInput
	Body participantBody
}

func (h *ParticipantHandler) HandleCreate(ctx context.Context, input *CreateParticipantInput) (*ParticipantOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	participant := models.Participant{RegisteredOn: time.Now()}
	input.Body.apply(&participant)

	if err := h.db.WithContext(ctx).Create(&participant).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create participant: " + err.Error())
	}

	res := &ParticipantOutput{}
	res.Body.Participant = participant
	res.Body.Age = participant.Age(time.Now())
	return res, nil
}

type UpdateParticipantInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body participantBody
}

func (h *ParticipantHandler) HandleUpdate(ctx context.Context, input *UpdateParticipantInput) (*ParticipantOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if err := input.Body.validate(); err != nil {
		return nil, err
	}

	var participant models.Participant
	if err := h.db.WithContext(ctx).First(&participant, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Participant not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	// RegisteredOn is immutable once set.
	input.Body.apply(&participant)
	if err := h.db.WithContext(ctx).Save(&participant).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update participant: " + err.Error())
	}

	res := &ParticipantOutput{}
	res.Body.Participant = participant
	res.Body.Age = participant.Age(time.Now())
	return res, nil
}

type DeleteParticipantInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *ParticipantHandler) HandleDelete(ctx context.Context, input *DeleteParticipantInput) (*struct{}, error) {
	account, err := h.authHandler.RequireAdmin(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := store.DeleteParticipant(h.db.WithContext(ctx), input.ID, &account.ID); err != nil {
		return nil, mapStoreError(err)
	}
	return nil, nil
}

type ParticipantActivitiesInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type ParticipantActivitiesOutput struct {
	Body struct {
		Registrations  []models.Registration `json:"registrations"`
		OpenActivities []models.Activity     `json:"open_activities"`
	}
}

// HandleActivities returns a participant's registrations together with the
// upcoming activities still open to them.
func (h *ParticipantHandler) HandleActivities(ctx context.Context, input *ParticipantActivitiesInput) (*ParticipantActivitiesOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var participant models.Participant
	if err := h.db.WithContext(ctx).First(&participant, input.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Participant not found")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}

	var registrations []models.Registration
	if err := h.db.WithContext(ctx).Where("participant_id = ?", input.ID).
		Order("registered_at DESC, id").Find(&registrations).Error; err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}

	open, err := query.OpenActivities(h.db.WithContext(ctx), input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}

	res := &ParticipantActivitiesOutput{}
	res.Body.Registrations = registrations
	res.Body.OpenActivities = open
	return res, nil
}
