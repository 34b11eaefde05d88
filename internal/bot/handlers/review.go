package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/raditpra/unduh-bot/internal/errors"
)

// Reviewer applies an approve or reject decision to a payment.
type Reviewer interface {
	Approve(ctx context.Context, paymentID int64) error
	Reject(ctx context.Context, paymentID int64) error
}

// NewApproveCallback handles approve_<paymentId> buttons.
func NewApproveCallback(reviewer Reviewer, isAdmin func(int64) bool) CallbackHandler {
	return reviewCallback("approve_", "✅ Approved", reviewer.Approve, isAdmin)
}

// NewRejectCallback handles reject_<paymentId> buttons.
func NewRejectCallback(reviewer Reviewer, isAdmin func(int64) bool) CallbackHandler {
	return reviewCallback("reject_", "❌ Rejected", reviewer.Reject, isAdmin)
}

func reviewCallback(prefix, verdict string, decide func(context.Context, int64) error, isAdmin func(int64) bool) CallbackHandler {
	return func(c telebot.Context) error {
		callback := c.Callback()
		if callback == nil || c.Sender() == nil {
			return nil
		}

		if isAdmin == nil || !isAdmin(c.Sender().ID) {
			return c.Respond(&telebot.CallbackResponse{Text: "Not allowed."})
		}

		paymentID, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(callback.Data), prefix), 10, 64)
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{Text: "Bad payment reference."})
		}

		if err := decide(context.Background(), paymentID); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrAlreadyProcessed):
				return c.Respond(&telebot.CallbackResponse{Text: "Already processed."})
			case errors.Is(err, apperrors.ErrPaymentNotFound):
				return c.Respond(&telebot.CallbackResponse{Text: "Payment not found."})
			default:
				return err
			}
		}

		// drop the buttons so the decision is not applied twice from the UI
		if msg := c.Message(); msg != nil {
			newText := fmt.Sprintf("%s\n\n%s", msg.Text, verdict)
			_ = c.Edit(newText)
		}

		return c.Respond(&telebot.CallbackResponse{Text: verdict})
	}
}
