package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when a debit exceeds the withdrawable
	// sub-balance of the targeted account and currency.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount occurs when a posting amount is zero or negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAccountNotFound occurs when the posting targets an unknown account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateEntry indicates the provided client transaction identifier
	// already exists and the posting should be treated as idempotent. The
	// original entry is returned alongside this error.
	ErrDuplicateEntry = errors.New("duplicate ledger entry")

	// ErrConflict indicates a concurrent-write collision that persisted
	// through the bounded internal retries.
	ErrConflict = errors.New("concurrent update conflict")
)

// Kind classifies a ledger posting.
type Kind string

const (
	KindDeposit           Kind = "deposit"
	KindWithdrawal        Kind = "withdrawal"
	KindFee               Kind = "fee"
	KindInterest          Kind = "interest"
	KindCommission        Kind = "commission"
	KindTaskReward        Kind = "task_reward"
	KindRegistrationBonus Kind = "registration_bonus"
	KindLuckyDraw         Kind = "lucky_draw"
	KindOther             Kind = "other"
)

// IsDebit reports whether postings of this kind remove funds from the
// account. Debits always draw on the withdrawable sub-balance; bonus funds
// can never be the source of a debit.
func (k Kind) IsDebit() bool {
	return k == KindWithdrawal || k == KindFee
}

// Posting describes one requested balance mutation. Amount is always
// positive; the Kind determines direction. ClientTxID deduplicates retries:
// replaying a posting with a known ClientTxID returns the original entry
// with ErrDuplicateEntry instead of posting twice.
type Posting struct {
	AccountID    string
	Currency     string
	Amount       int64
	Kind         Kind
	Withdrawable bool
	ClientTxID   string
	Reference    string
}

// Entry is the immutable record of one applied mutation. Amount is signed:
// negative for debits. The entries of an account sum to its balance per
// currency.
type Entry struct {
	ID           string
	AccountID    string
	Currency     string
	Amount       int64
	Kind         Kind
	Withdrawable bool
	ClientTxID   string
	Reference    string
	CreatedAt    time.Time
}

// BalanceInfo is the per-currency balance projection of an account.
// Total is always Withdrawable + NonWithdrawable.
type BalanceInfo struct {
	AccountID       string
	Currency        string
	Total           int64
	Withdrawable    int64
	NonWithdrawable int64
	AsOf            time.Time
}

// Counters are the monotonic lifetime totals of an account, summed across
// currencies.
type Counters struct {
	TotalDeposited        int64
	TotalWithdrawn        int64
	TotalProfit           int64
	TotalReferralEarnings int64
}

// AccountBalance names one positive (account, currency) balance, as swept by
// the interest accrual job.
type AccountBalance struct {
	AccountID string
	Currency  string
	Total     int64
}

// Ledger is the only component allowed to mutate account balances.
type Ledger interface {
	// Register creates the zero-balance ledger state for a new account.
	Register(ctx context.Context, accountID string) error
	// Apply atomically posts one mutation: the balance projection, the
	// lifetime counters and the appended entry move together or not at all.
	Apply(ctx context.Context, p Posting) (Entry, error)
	BalanceInfo(ctx context.Context, accountID, currency string) (BalanceInfo, error)
	Counters(ctx context.Context, accountID string) (Counters, error)
	Entries(ctx context.Context, accountID string) ([]Entry, error)
	// ActiveBalances lists every (account, currency) pair with a positive
	// total balance.
	ActiveBalances(ctx context.Context) ([]AccountBalance, error)
}

func validatePosting(p Posting) error {
	if p.AccountID == "" || p.Currency == "" {
		return ErrAccountNotFound
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// signedAmount converts the posting amount to the signed value stored on the
// entry.
func signedAmount(p Posting) int64 {
	if p.Kind.IsDebit() {
		return -p.Amount
	}
	return p.Amount
}

// bumpCounters applies the per-kind lifetime counter side effect.
func bumpCounters(c *Counters, kind Kind, amount int64) {
	switch kind {
	case KindDeposit:
		c.TotalDeposited += amount
	case KindWithdrawal:
		c.TotalWithdrawn += amount
	case KindInterest:
		c.TotalProfit += amount
	case KindCommission:
		c.TotalReferralEarnings += amount
	}
}
