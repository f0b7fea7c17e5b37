package membership

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/ratepolicy"
	"github.com/gainvault/gainvault/internal/referral"
)

// Resolver recomputes an account's membership tier from its active-referral
// count. Promotion is monotonic unless demotion is explicitly enabled:
// earned tiers are not clawed back when referrals later fall.
type Resolver struct {
	accounts      account.Repository
	graph         referral.Provider
	allowDemotion bool
	logger        *slog.Logger
}

// NewResolver constructs a tier resolver. With allowDemotion false the
// resolver only ever raises tiers.
func NewResolver(accounts account.Repository, graph referral.Provider, allowDemotion bool, logger *slog.Logger) *Resolver {
	return &Resolver{
		accounts:      accounts,
		graph:         graph,
		allowDemotion: allowDemotion,
		logger:        logger,
	}
}

// Recompute reevaluates the tier for one account and persists a change.
// It returns the tier in effect after the call.
func (r *Resolver) Recompute(ctx context.Context, accountID string) (int, error) {
	acct, err := r.accounts.Get(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("load account: %w", err)
	}

	count, err := r.graph.ActiveReferralCount(ctx, accountID)
	if err != nil {
		return acct.Tier, fmt.Errorf("count active referrals: %w", err)
	}

	target := ratepolicy.TierForActiveReferrals(count)
	if target == acct.Tier {
		return acct.Tier, nil
	}
	if target < acct.Tier && !r.allowDemotion {
		return acct.Tier, nil
	}

	if err := r.accounts.UpdateTier(ctx, accountID, target); err != nil {
		return acct.Tier, fmt.Errorf("update tier: %w", err)
	}

	r.logger.Info("membership tier changed",
		"account_id", accountID, "from", acct.Tier, "to", target, "active_referrals", count)

	return target, nil
}
