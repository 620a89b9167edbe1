// Package discord delivers reminders to members as direct messages through
// the Discord REST API.
package discord

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"

	"github.com/tbourn/go-community-store/internal/domain"
	"github.com/tbourn/go-community-store/internal/reminders"
)

// EmbedColor is the accent color of reminder embeds.
const EmbedColor = 0x3498DB

// Session is the part of *discordgo.Session used to send direct messages.
type Session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DMNotifier implements reminders.Notifier with Discord direct messages.
type DMNotifier struct {
	Session Session
}

var _ reminders.Notifier = (*DMNotifier)(nil)

// NewSession opens a REST-only bot session for token. No gateway connection
// is made.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.WrapIf(err, "create discord session")
	}
	return s, nil
}

// ReminderEmbed renders a job as the embed sent to subscribers.
func ReminderEmbed(job domain.RemindmeJob) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "Reminder :calendar_spiral:",
		Description: job.Message,
		Color:       EmbedColor,
	}
	if !job.Timestamp.IsZero() {
		e.Timestamp = job.Timestamp.UTC().Format(time.RFC3339)
	}
	return e
}

// Notify sends the reminder to userID. Members that cannot be messaged
// yield reminders.ErrUnknownRecipient.
func (n *DMNotifier) Notify(ctx context.Context, userID string, job domain.RemindmeJob) error {
	ch, err := n.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err, "open DM channel", userID)
	}
	if _, err := n.Session.ChannelMessageSendEmbed(ch.ID, ReminderEmbed(job), discordgo.WithContext(ctx)); err != nil {
		return classify(err, "send reminder", userID)
	}
	return nil
}

func classify(err error, op, userID string) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownUser, discordgo.ErrCodeCannotSendMessagesToThisUser:
			return errors.WithDetails(errors.WithMessage(reminders.ErrUnknownRecipient, err.Error()), "user_id", userID)
		}
	}
	return errors.WrapIfWithDetails(err, op, "user_id", userID)
}
