package vip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogLookup(t *testing.T) {
	catalog := NewCatalog()

	pkg, ok := catalog.Lookup(7)
	assert.True(t, ok)
	assert.Equal(t, int64(10000), pkg.Price)
	assert.Equal(t, 2, pkg.Quantity)

	_, ok = catalog.Lookup(14)
	assert.False(t, ok)
}

func TestCatalogDurationsSorted(t *testing.T) {
	catalog := NewCatalog()
	assert.Equal(t, []int{3, 7, 15, 30, 60, 90}, catalog.Durations())
}

func TestValidateAmount(t *testing.T) {
	catalog := NewCatalog()

	testCases := []struct {
		name   string
		days   int
		amount int64
		want   bool
	}{
		{name: "exact price", days: 7, amount: 10000, want: true},
		{name: "four percent over", days: 7, amount: 10400, want: true},
		{name: "five percent under", days: 7, amount: 9500, want: true},
		{name: "ten percent over", days: 7, amount: 11000, want: false},
		{name: "unknown duration", days: 14, amount: 10000, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, catalog.ValidateAmount(tc.days, tc.amount))
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	catalog := NewCatalog()

	assert.True(t, catalog.ValidateQuantity(30, 7))
	assert.False(t, catalog.ValidateQuantity(30, 6))
	assert.False(t, catalog.ValidateQuantity(1, 1))
}

func TestDailyLimit(t *testing.T) {
	catalog := NewCatalog()
	assert.Equal(t, 10, catalog.DailyLimit(false))
	assert.Equal(t, 100, catalog.DailyLimit(true))

	custom := NewCatalog(WithDailyLimits(5, 50))
	assert.Equal(t, 5, custom.DailyLimit(false))
	assert.Equal(t, 50, custom.DailyLimit(true))
}
