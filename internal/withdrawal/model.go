package withdrawal

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Withdrawal is one payout request. At most one pending withdrawal may exist
// per account at any time. Fee is computed at request time and billed as a
// separate fee-kind ledger entry when the withdrawal is approved.
type Withdrawal struct {
	ID         string
	AccountID  string
	Currency   string
	Amount     int64
	Fee        int64
	Status     string
	CreatedAt  time.Time
	ResolvedAt time.Time
}
