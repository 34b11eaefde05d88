package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/vip"
)

func TestVipSelectionCallback(t *testing.T) {
	catalog := vip.NewCatalog()

	t.Run("sends payment link with pre-filled message", func(t *testing.T) {
		handler := NewVipSelectionCallback(catalog, "unduhbot")

		c := &stubContext{
			sender:   &telebot.User{ID: 12345},
			callback: &telebot.Callback{Data: "vip_7"},
		}

		require.NoError(t, handler(c))
		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0], "VIP 7 days — Rp10000")
		assert.Contains(t, c.sent[0], "https://trakteer.id/unduhbot/tip")
		assert.Contains(t, c.sent[0], "supporter_message=12345+7")
		assert.Contains(t, c.sent[0], "quantity=2")
	})

	t.Run("unknown duration", func(t *testing.T) {
		handler := NewVipSelectionCallback(catalog, "unduhbot")

		c := &stubContext{
			sender:   &telebot.User{ID: 12345},
			callback: &telebot.Callback{Data: "vip_13"},
		}

		require.NoError(t, handler(c))
		assert.Empty(t, c.sent)
		assert.Equal(t, "Unknown package.", lastResponse(c).Text)
	})

	t.Run("malformed data", func(t *testing.T) {
		handler := NewVipSelectionCallback(catalog, "unduhbot")

		c := &stubContext{
			sender:   &telebot.User{ID: 12345},
			callback: &telebot.Callback{Data: "vip_abc"},
		}

		require.NoError(t, handler(c))
		assert.Equal(t, "Unknown package.", lastResponse(c).Text)
	})
}
