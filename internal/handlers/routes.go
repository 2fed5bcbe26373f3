package handlers

import (
	"net/http"

	"github.com/campdesk/campdesk/internal/auth"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth           *auth.AuthHandler
	Me             *MeHandler
	Account        *AccountHandler
	APIKey         *APIKeyHandler
	Participant    *ParticipantHandler
	Activity       *ActivityHandler
	Registration   *RegistrationHandler
	Assignment     *AssignmentHandler
	Staff          *StaffHandler
	Schedule       *ScheduleHandler
	Infrastructure *InfrastructureHandler
	Material       *MaterialHandler
}

func RegisterRoutes(r *chi.Mux, h Handlers) huma.API {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	config := huma.DefaultConfig("Campdesk API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth
	r.Get("/auth/discord/login", h.Auth.HandleLogin)
	r.Get("/auth/discord/callback", h.Auth.HandleCallback)
	huma.Get(api, "/me", h.Me.HandleMe)

	// Accounts (admin)
	huma.Get(api, "/accounts", h.Account.HandleList)
	huma.Patch(api, "/accounts/{id}/role", h.Account.HandleUpdateRole)
	huma.Delete(api, "/accounts/{id}", h.Account.HandleDelete)

	// API keys
	huma.Post(api, "/api-keys", h.APIKey.HandleCreate)
	huma.Get(api, "/api-keys", h.APIKey.HandleList)
	huma.Delete(api, "/api-keys/{id}", h.APIKey.HandleDelete)

	// Participants
	huma.Get(api, "/participants", h.Participant.HandleList)
	huma.Post(api, "/participants", h.Participant.HandleCreate)
	huma.Get(api, "/participants/{id}", h.Participant.HandleGet)
	huma.Put(api, "/participants/{id}", h.Participant.HandleUpdate)
	huma.Delete(api, "/participants/{id}", h.Participant.HandleDelete)
	huma.Get(api, "/participants/{id}/activities", h.Participant.HandleActivities)

	// Activities
	huma.Get(api, "/activities", h.Activity.HandleList)
	huma.Post(api, "/activities", h.Activity.HandleCreate)
	huma.Get(api, "/activities/{id}", h.Activity.HandleGet)
	huma.Put(api, "/activities/{id}", h.Activity.HandleUpdate)
	huma.Post(api, "/activities/{id}/cancel", h.Activity.HandleCancel)
	huma.Delete(api, "/activities/{id}", h.Activity.HandleDelete)
	huma.Get(api, "/activities/{id}/capacity", h.Activity.HandleCapacity)

	// Activity assignments
	huma.Post(api, "/activities/{id}/animators", h.Assignment.HandleAssignAnimator)
	huma.Delete(api, "/activities/{id}/animators/{animatorId}", h.Assignment.HandleRemoveAnimator)
	huma.Get(api, "/activities/{id}/available-animators", h.Assignment.HandleAvailableAnimators)
	huma.Post(api, "/activities/{id}/materials", h.Assignment.HandleAssignMaterial)
	huma.Delete(api, "/activities/{id}/materials/{materialId}", h.Assignment.HandleRemoveMaterial)
	huma.Get(api, "/activities/{id}/available-materials", h.Assignment.HandleAvailableMaterials)

	// Registrations
	huma.Get(api, "/registrations", h.Registration.HandleList)
	huma.Post(api, "/registrations", h.Registration.HandleRegister)
	huma.Post(api, "/registrations/{id}/cancel", h.Registration.HandleCancel)
	huma.Patch(api, "/registrations/{id}/attended", h.Registration.HandleAttended)

	// Staff
	huma.Get(api, "/supervisors", h.Staff.HandleListSupervisors)
	huma.Post(api, "/supervisors", h.Staff.HandleCreateSupervisor)
	huma.Put(api, "/supervisors/{id}", h.Staff.HandleUpdateSupervisor)
	huma.Delete(api, "/supervisors/{id}", h.Staff.HandleDeleteSupervisor)
	huma.Get(api, "/animators", h.Staff.HandleListAnimators)
	huma.Post(api, "/animators", h.Staff.HandleCreateAnimator)
	huma.Put(api, "/animators/{id}", h.Staff.HandleUpdateAnimator)
	huma.Delete(api, "/animators/{id}", h.Staff.HandleDeleteAnimator)

	// Staff schedules
	huma.Get(api, "/schedules", h.Schedule.HandleList)
	huma.Post(api, "/schedules", h.Schedule.HandleCreate)
	huma.Put(api, "/schedules/{id}", h.Schedule.HandleUpdate)
	huma.Delete(api, "/schedules/{id}", h.Schedule.HandleDelete)

	// Infrastructure and reservations
	huma.Get(api, "/infrastructures", h.Infrastructure.HandleList)
	huma.Post(api, "/infrastructures", h.Infrastructure.HandleCreate)
	huma.Get(api, "/infrastructures/{id}", h.Infrastructure.HandleGet)
	huma.Put(api, "/infrastructures/{id}", h.Infrastructure.HandleUpdate)
	huma.Delete(api, "/infrastructures/{id}", h.Infrastructure.HandleDelete)
	huma.Post(api, "/infrastructures/{id}/reservations", h.Infrastructure.HandleReserve)
	huma.Get(api, "/reservations", h.Infrastructure.HandleListReservations)
	huma.Delete(api, "/reservations/{id}", h.Infrastructure.HandleDeleteReservation)

	// Materials
	huma.Get(api, "/materials", h.Material.HandleList)
	huma.Post(api, "/materials", h.Material.HandleCreate)
	huma.Get(api, "/materials/{id}", h.Material.HandleGet)
	huma.Put(api, "/materials/{id}", h.Material.HandleUpdate)
	huma.Delete(api, "/materials/{id}", h.Material.HandleDelete)

	return api
}
