package referral

import "context"

// MaxUplineDepth bounds any upline walk. A referral chain longer than this
// earns nothing beyond the cutoff, and a corrupted graph cannot loop.
const MaxUplineDepth = 6

// Provider resolves the referral graph around an account.
type Provider interface {
	// Upline returns the ordered ancestor chain of an account, nearest
	// first, bounded by maxDepth and guarded against cycles. A missing
	// ancestor ends the chain without error.
	Upline(ctx context.Context, accountID string, maxDepth int) ([]string, error)
	// ActiveReferralCount counts the direct downline accounts that have
	// completed at least one deposit.
	ActiveReferralCount(ctx context.Context, accountID string) (int, error)
}

// Invalidator drops any cached referral counts for an account. Implementations
// without a cache may no-op.
type Invalidator interface {
	Invalidate(ctx context.Context, accountID string) error
}
