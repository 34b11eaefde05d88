package keyboard

import (
	"fmt"
	"strconv"

	telebot "gopkg.in/telebot.v3"
)

// PaginationButtons returns up to three inline buttons (prev, current page, next)
// allowing the caller to paginate lists using a shared action prefix.
func PaginationButtons(action string, page, totalPages int) []InlineButton {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	buttons := make([]InlineButton, 0, 3)

	if page > 1 {
		buttons = append(buttons, InlineButton{
			Text:   "◀️ Prev",
			Unique: action,
			Data:   strconv.Itoa(page - 1),
		})
	}

	buttons = append(buttons, InlineButton{
		Text:   fmt.Sprintf("Page %d/%d", page, totalPages),
		Unique: action,
		Data:   strconv.Itoa(page),
	})

	if page < totalPages {
		buttons = append(buttons, InlineButton{
			Text:   "Next ▶️",
			Unique: action,
			Data:   strconv.Itoa(page + 1),
		})
	}

	return buttons
}

// Pagination renders the buttons as inline markup with "<action>:<page>"
// callback payloads.
func Pagination(action string, page, totalPages int) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(PaginationButtons(action, page, totalPages)...).
		Build(func(unique, data string) string {
			payload, err := EncodeCallback(unique, data)
			if err != nil {
				return unique
			}
			return payload
		})
}
