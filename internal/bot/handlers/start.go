package handlers

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/vip"
)

const helpText = `Send me a TikTok or Instagram link and I will fetch the video or photos for you.

Commands:
/vip — upgrade to VIP for a higher daily limit
/status — check your VIP status and today's usage
/help — show this message`

// NewStartHandler greets the user and explains the workflow.
func NewStartHandler(catalog *vip.Catalog) Handler {
	return func(c telebot.Context) error {
		name := ""
		if c.Sender() != nil {
			name = c.Sender().FirstName
		}

		greeting := fmt.Sprintf("Hi %s! 👋\n\n%s\n\nFree users get %d downloads per day, VIP users get %d.",
			name, helpText, catalog.DailyLimit(false), catalog.DailyLimit(true))

		return c.Send(greeting)
	}
}

// NewHelpHandler replies with the command reference.
func NewHelpHandler() Handler {
	return func(c telebot.Context) error {
		return c.Send(helpText)
	}
}
