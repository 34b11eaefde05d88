package reconcile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raditpra/unduh-bot/internal/trakteer"
)

func TestDeriveExternalID_Stable(t *testing.T) {
	record := trakteer.Record{
		SupporterName:  "budi",
		SupportMessage: "12345 7",
		Amount:         10000,
		UpdatedAt:      "2026-08-28 10:00:00",
	}

	first := DeriveExternalID(record)
	second := DeriveExternalID(record)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "trakteer_"))
}

func TestDeriveExternalID_SensitiveToFields(t *testing.T) {
	base := trakteer.Record{
		SupporterName:  "budi",
		SupportMessage: "12345 7",
		Amount:         10000,
		UpdatedAt:      "2026-08-28 10:00:00",
	}

	changedAmount := base
	changedAmount.Amount = 10001

	changedTime := base
	changedTime.UpdatedAt = "2026-08-28 10:00:01"

	assert.NotEqual(t, DeriveExternalID(base), DeriveExternalID(changedAmount))
	assert.NotEqual(t, DeriveExternalID(base), DeriveExternalID(changedTime))
}
