package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raditpra/unduh-bot/internal/bot/keyboard"
)

func TestInlineKeyboardBuilder(t *testing.T) {
	t.Run("builds rows with encoded payloads", func(t *testing.T) {
		markup := keyboard.NewInlineKeyboard().
			AddRow(
				keyboard.InlineButton{Text: "Prev", Unique: "nav", Data: "1"},
				keyboard.InlineButton{Text: "Next", Unique: "nav", Data: "2"},
			).
			AddRow(
				keyboard.InlineButton{Text: "Confirm", Unique: "confirm", Data: "ok"},
			).
			Build(func(unique, data string) string {
				return unique + ":" + data
			})

		require.NotNil(t, markup)
		require.Len(t, markup.InlineKeyboard, 2)
		require.Len(t, markup.InlineKeyboard[0], 2)
		require.Len(t, markup.InlineKeyboard[1], 1)
		assert.Equal(t, "nav:2", markup.InlineKeyboard[0][1].Data)
		assert.Equal(t, "Confirm", markup.InlineKeyboard[1][0].Text)
	})

	t.Run("nil encoder falls back to raw data", func(t *testing.T) {
		markup := keyboard.NewInlineKeyboard().
			AddRow(keyboard.InlineButton{Text: "7 days", Data: "vip_7"}).
			Build(nil)

		require.Len(t, markup.InlineKeyboard, 1)
		assert.Equal(t, "vip_7", markup.InlineKeyboard[0][0].Data)
	})

	t.Run("empty rows are skipped", func(t *testing.T) {
		markup := keyboard.NewInlineKeyboard().
			AddRow().
			AddRow(keyboard.InlineButton{Text: "Only", Data: "only"}).
			Build(nil)

		assert.Len(t, markup.InlineKeyboard, 1)
	})
}
