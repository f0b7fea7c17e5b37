package commission

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Commission records one referral payout: the beneficiary at some level of
// the source account's upline earned Amount from the originating event.
type Commission struct {
	ID              string
	BeneficiaryID   string
	SourceAccountID string
	EventID         string
	Level           int
	RateBPS         int64
	SourceAmount    int64
	Amount          int64
	Currency        string
	Status          string
	CreatedAt       time.Time
}
