package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/campdesk/campdesk/internal/models"
)

type Notifier interface {
	NotifyRegistration(participant models.Participant, activity models.Activity, registration models.Registration) error
	NotifyReservation(infrastructure models.Infrastructure, reservation models.Reservation) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
	}
	return err
}

func (n *DiscordNotifier) NotifyRegistration(participant models.Participant, activity models.Activity, registration models.Registration) error {
	status := "registered"
	switch registration.Status {
	case models.RegistrationWaitlisted:
		status = "waitlisted"
	case models.RegistrationCancelled:
		status = "cancelled their registration 😢"
	}

	message := fmt.Sprintf("📋 **Registration Update**\n**Participant:** %s\n**Activity:** %s (%s)\n**Status:** %s",
		participant.FullName(),
		activity.Name,
		activity.StartsAt.Format("2006-01-02 15:04"),
		status,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyReservation(infrastructure models.Infrastructure, reservation models.Reservation) error {
	message := fmt.Sprintf("🏕️ **Infrastructure Reserved**\n**Infrastructure:** %s\n**Window:** %s - %s\n**Purpose:** %s\n**Responsible:** %s",
		infrastructure.Name,
		reservation.StartsAt.Format("2006-01-02 15:04"),
		reservation.EndsAt.Format("2006-01-02 15:04"),
		reservation.Purpose,
		reservation.Responsible,
	)
	return n.send(message)
}
