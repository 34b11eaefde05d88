package domain

import "time"

// User represents a bot user stored in the database. The ID is the
// Telegram user ID, assigned externally.
type User struct {
	ID           int64
	Username     string
	IsVip        bool
	VipExpiresAt *time.Time
	CreatedAt    time.Time
}

// VipActive reports whether the user holds a currently valid VIP
// entitlement at the given instant. The stored flag alone is not
// authoritative: an expired timestamp always means not VIP.
func (u *User) VipActive(now time.Time) bool {
	if u == nil || !u.IsVip || u.VipExpiresAt == nil {
		return false
	}
	return u.VipExpiresAt.After(now)
}

// VipStatus is the read-only view of a user's entitlement.
type VipStatus struct {
	Active    bool
	ExpiresAt *time.Time
}
