package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/campdesk/campdesk/internal/auth"
	"github.com/campdesk/campdesk/internal/booking"
	"github.com/campdesk/campdesk/internal/config"
	"github.com/campdesk/campdesk/internal/database"
	"github.com/campdesk/campdesk/internal/handlers"
	"github.com/campdesk/campdesk/internal/notifier"
	"github.com/go-chi/chi/v5"
)

func main() {
	cfg := config.LoadConfig()

	db := database.Connect(cfg)

	engine := booking.NewEngine(db)

	var discordNotifier notifier.Notifier
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			discordNotifier = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
		}
	}

	authHandler := auth.NewAuthHandler(cfg, db)

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:           authHandler,
		Me:             handlers.NewMeHandler(db, authHandler),
		Account:        handlers.NewAccountHandler(db, authHandler),
		APIKey:         handlers.NewAPIKeyHandler(db, authHandler),
		Participant:    handlers.NewParticipantHandler(db, authHandler),
		Activity:       handlers.NewActivityHandler(db, engine, authHandler),
		Registration:   handlers.NewRegistrationHandler(db, engine, discordNotifier, authHandler),
		Assignment:     handlers.NewAssignmentHandler(db, engine, authHandler),
		Staff:          handlers.NewStaffHandler(db, authHandler),
		Schedule:       handlers.NewScheduleHandler(db, authHandler),
		Infrastructure: handlers.NewInfrastructureHandler(db, engine, discordNotifier, authHandler),
		Material:       handlers.NewMaterialHandler(db, authHandler),
	})

	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
