package account

import "time"

// Account holds the non-monetary state of one user: referral identity and
// membership tier. Balances and lifetime counters are owned by the ledger
// and are never written through this package.
type Account struct {
	ID           string
	ReferralCode string
	ReferredBy   string
	Tier         int
	CreatedAt    time.Time
}
