package deposit

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Deposit is one top-up request. It is credited to the ledger only when the
// external payment network confirms it.
type Deposit struct {
	ID          string
	AccountID   string
	Currency    string
	Amount      int64
	Status      string
	CreatedAt   time.Time
	ConfirmedAt time.Time
}
