package vip

import "sort"

// Package describes one purchasable VIP duration: its price in rupiah
// and the Trakteer quantity units the payment page must carry.
type Package struct {
	Days     int
	Price    int64
	Quantity int
}

// Catalog maps duration in days to its package definition.
type Catalog struct {
	packages       map[int]Package
	tolerancePct   float64
	freeDailyLimit int
	vipDailyLimit  int
}

// Option mutates catalog construction.
type Option func(*Catalog)

// WithDailyLimits overrides the default free and VIP daily quotas.
func WithDailyLimits(free, vip int) Option {
	return func(c *Catalog) {
		c.freeDailyLimit = free
		c.vipDailyLimit = vip
	}
}

// WithTolerance overrides the accepted price deviation, expressed as a
// fraction (0.05 means 5 percent either way).
func WithTolerance(pct float64) Option {
	return func(c *Catalog) {
		c.tolerancePct = pct
	}
}

// NewCatalog builds the default package catalog.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		packages: map[int]Package{
			3:  {Days: 3, Price: 5000, Quantity: 1},
			7:  {Days: 7, Price: 10000, Quantity: 2},
			15: {Days: 15, Price: 20000, Quantity: 4},
			30: {Days: 30, Price: 35000, Quantity: 7},
			60: {Days: 60, Price: 60000, Quantity: 12},
			90: {Days: 90, Price: 80000, Quantity: 16},
		},
		tolerancePct:   0.05,
		freeDailyLimit: 10,
		vipDailyLimit:  100,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup returns the package for the requested duration.
func (c *Catalog) Lookup(days int) (Package, bool) {
	pkg, ok := c.packages[days]
	return pkg, ok
}

// Durations returns all configured durations in ascending order.
func (c *Catalog) Durations() []int {
	days := make([]int, 0, len(c.packages))
	for d := range c.packages {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// ValidateAmount checks the paid amount against the configured price
// for the duration, within the tolerance band. Unknown durations never
// validate.
func (c *Catalog) ValidateAmount(days int, amount int64) bool {
	pkg, ok := c.packages[days]
	if !ok {
		return false
	}

	delta := float64(pkg.Price) * c.tolerancePct
	min := float64(pkg.Price) - delta
	max := float64(pkg.Price) + delta
	paid := float64(amount)

	return paid >= min && paid <= max
}

// ValidateQuantity checks the Trakteer quantity units against the
// package definition. A mismatch is advisory only.
func (c *Catalog) ValidateQuantity(days, quantity int) bool {
	pkg, ok := c.packages[days]
	if !ok {
		return false
	}
	return pkg.Quantity == quantity
}

// DailyLimit returns the download quota for the entitlement tier.
func (c *Catalog) DailyLimit(vipActive bool) int {
	if vipActive {
		return c.vipDailyLimit
	}
	return c.freeDailyLimit
}
