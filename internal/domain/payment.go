package domain

import "time"

// PaymentStatus is the lifecycle state of a payment ledger row.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
	PaymentExpired  PaymentStatus = "expired"
)

// Terminal reports whether the status admits no further automatic
// transition.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentApproved, PaymentRejected, PaymentExpired:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentRejected, PaymentExpired:
		return true
	default:
		return false
	}
}

// Payment is a row in the payment ledger. ExternalID carries the
// identifier derived from the Trakteer record, empty when the row was
// created manually.
type Payment struct {
	ID         int64
	UserID     int64
	Days       int
	Amount     int64
	Status     PaymentStatus
	ExternalID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
