package keyboard

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/vip"
)

// VipPackages builds the duration picker shown by /vip. Each button
// carries a vip_<days> callback.
func VipPackages(catalog *vip.Catalog) *telebot.ReplyMarkup {
	builder := NewInlineKeyboard()

	durations := catalog.Durations()
	for i := 0; i < len(durations); i += 2 {
		row := make([]InlineButton, 0, 2)
		for j := i; j < i+2 && j < len(durations); j++ {
			pkg, _ := catalog.Lookup(durations[j])
			row = append(row, InlineButton{
				Text: fmt.Sprintf("%d days — Rp%d", pkg.Days, pkg.Price),
				Data: fmt.Sprintf("vip_%d", pkg.Days),
			})
		}
		builder.AddRow(row...)
	}

	return builder.Build(nil)
}

// PaymentReview builds the approve/reject pair for one pending payment.
func PaymentReview(paymentID int64) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "✅ Approve", Data: fmt.Sprintf("approve_%d", paymentID)},
			InlineButton{Text: "❌ Reject", Data: fmt.Sprintf("reject_%d", paymentID)},
		).
		Build(nil)
}
