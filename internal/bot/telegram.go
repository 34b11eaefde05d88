package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// Notifier sends best-effort direct messages through the bot. It backs
// the entitlement controller's user notifications.
type Notifier struct {
	bot *telebot.Bot
	log *slog.Logger
}

// NewNotifier creates a telegram-backed notifier.
func NewNotifier(bot *telebot.Bot, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}

	return &Notifier{bot: bot, log: log}
}

// Notify delivers a plain-text message to the user.
func (n *Notifier) Notify(ctx context.Context, userID int64, message string) error {
	if n.bot == nil {
		return nil
	}

	if _, err := n.bot.Send(&telebot.User{ID: userID}, message); err != nil {
		return fmt.Errorf("send notification to %d: %w", userID, err)
	}

	return nil
}

// MembershipChecker answers channel-membership queries for the
// admission guard.
type MembershipChecker struct {
	bot *telebot.Bot
}

// NewMembershipChecker creates a telegram-backed membership checker.
func NewMembershipChecker(bot *telebot.Bot) *MembershipChecker {
	return &MembershipChecker{bot: bot}
}

// IsMember reports whether the user belongs to the channel.
func (m *MembershipChecker) IsMember(ctx context.Context, channel string, userID int64) (bool, error) {
	if m.bot == nil {
		return false, fmt.Errorf("bot not configured")
	}

	chat, err := m.bot.ChatByUsername(channel)
	if err != nil {
		return false, fmt.Errorf("resolve channel %s: %w", channel, err)
	}

	member, err := m.bot.ChatMemberOf(chat, &telebot.User{ID: userID})
	if err != nil {
		return false, fmt.Errorf("query membership in %s: %w", channel, err)
	}

	switch member.Role {
	case telebot.Creator, telebot.Administrator, telebot.Member:
		return true, nil
	default:
		return false, nil
	}
}
