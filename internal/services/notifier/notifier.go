// Package notifier delivers alert messages to the console, Telegram,
// e-mail and Discord.
package notifier

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Method names accepted by New and the alerts.notify_method config key.
const (
	MethodConsole  = "console"
	MethodTelegram = "telegram"
	MethodEmail    = "email"
	MethodDiscord  = "discord"
)

// ErrNotConfigured returned when a channel is missing credentials.
var ErrNotConfigured = errors.New("notification channel is not configured")

// Notifier sends one message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Settings credentials for every channel; unused ones may stay empty.
type Settings struct {
	TelegramToken  string
	TelegramChatID string

	EmailSender    string
	EmailPassword  string
	EmailRecipient string
	SMTPHost       string
	SMTPPort       int

	DiscordWebhookURL string
}

// Methods lists the supported delivery methods.
func Methods() []string {
	return []string{MethodConsole, MethodTelegram, MethodEmail, MethodDiscord}
}

// New builds the notifier for method.
func New(method string, s Settings) (Notifier, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", MethodConsole:
		return NewConsole(nil), nil
	case MethodTelegram:
		return NewTelegram(s.TelegramToken, s.TelegramChatID), nil
	case MethodEmail:
		return NewEmail(s.EmailSender, s.EmailPassword, s.EmailRecipient, s.SMTPHost, s.SMTPPort), nil
	case MethodDiscord:
		return NewDiscord(s.DiscordWebhookURL), nil
	default:
		return nil, errors.Errorf("unknown notify method %q", method)
	}
}
