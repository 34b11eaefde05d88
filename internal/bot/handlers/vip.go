package handlers

import (
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/bot/keyboard"
	"github.com/raditpra/unduh-bot/internal/trakteer"
	"github.com/raditpra/unduh-bot/internal/vip"
)

// NewVipHandler shows the purchasable packages as an inline keyboard.
func NewVipHandler(catalog *vip.Catalog) Handler {
	return func(c telebot.Context) error {
		return c.Send(
			"Choose a VIP package. After paying, your payment is reviewed by the admin and VIP activates automatically.",
			keyboard.VipPackages(catalog),
		)
	}
}

// NewVipSelectionCallback answers a vip_<days> button with the payment
// link. The link pre-fills the supporter message the reconciler parses.
func NewVipSelectionCallback(catalog *vip.Catalog, pageName string) CallbackHandler {
	return func(c telebot.Context) error {
		callback := c.Callback()
		if callback == nil || c.Sender() == nil {
			return nil
		}

		days, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(callback.Data), "vip_"))
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown package."})
		}

		pkg, ok := catalog.Lookup(days)
		if !ok {
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown package."})
		}

		link := trakteer.PaymentURL(pageName, c.Sender().ID, pkg.Days, pkg.Quantity)

		message := fmt.Sprintf(
			"VIP %d days — Rp%d\n\n1. Open the payment link below.\n2. Do not change the pre-filled message, it identifies your payment.\n3. VIP activates after the admin confirms the payment.\n\n%s",
			pkg.Days, pkg.Price, link)

		if err := c.Send(message); err != nil {
			return err
		}

		return c.Respond(&telebot.CallbackResponse{})
	}
}
