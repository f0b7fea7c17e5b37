package ratepolicy

// BPSDenominator converts basis points to a multiplier: 100% == 10_000 bps.
const BPSDenominator = 10_000

// MaxCommissionLevels bounds how deep a referral chain can earn commission.
const MaxCommissionLevels = 6

// MaxTier is the highest membership tier ordinal.
const MaxTier = 5

// InterestPolicy maps an account balance to a daily interest rate in basis
// points. Below Threshold the rate is exactly MinRateBPS; between Threshold
// and BalanceCap it grows linearly toward MaxRateBPS, where it is capped.
type InterestPolicy struct {
	MinRateBPS int64
	MaxRateBPS int64
	Threshold  int64
	BalanceCap int64
}

// DefaultInterestPolicy returns the production interest band: 2.5% to 5%
// daily, with the linear band starting at 10,000.00 in account currency.
func DefaultInterestPolicy() InterestPolicy {
	return InterestPolicy{
		MinRateBPS: 250,
		MaxRateBPS: 500,
		Threshold:  1_000_000,
		BalanceCap: 100_000_000,
	}
}

// DailyRateBPS computes the daily interest rate for the given balance in cents.
func (p InterestPolicy) DailyRateBPS(balance int64) int64 {
	if balance <= p.Threshold {
		return p.MinRateBPS
	}
	if balance >= p.BalanceCap {
		return p.MaxRateBPS
	}
	span := p.BalanceCap - p.Threshold
	return p.MinRateBPS + (balance-p.Threshold)*(p.MaxRateBPS-p.MinRateBPS)/span
}

// InterestDue computes the interest amount in cents, rounding down.
func InterestDue(balance, rateBPS int64) int64 {
	return balance * rateBPS / BPSDenominator
}

// commissionTableBPS holds per-tier commission rates by referral level.
// Row index is membership tier, column index is level-1. A zero rate means
// the level is locked for that tier and no payout occurs.
var commissionTableBPS = [MaxTier + 1][MaxCommissionLevels]int64{
	{500, 100, 0, 0, 0, 0},
	{600, 200, 100, 0, 0, 0},
	{700, 300, 100, 50, 0, 0},
	{800, 300, 200, 100, 50, 0},
	{900, 400, 200, 100, 50, 25},
	{1000, 500, 300, 200, 100, 50},
}

// CommissionRateBPS returns the commission rate for a beneficiary of the
// given membership tier earning at the given referral level (1-based).
// Out-of-range tiers clamp to the table bounds; out-of-range levels pay zero.
func CommissionRateBPS(tier, level int) int64 {
	if level < 1 || level > MaxCommissionLevels {
		return 0
	}
	if tier < 0 {
		tier = 0
	}
	if tier > MaxTier {
		tier = MaxTier
	}
	return commissionTableBPS[tier][level-1]
}

// tierThresholds lists the active-referral count required for each tier.
var tierThresholds = [MaxTier + 1]int{0, 3, 10, 20, 50, 100}

// TierForActiveReferrals maps an active-referral count to the highest tier
// whose threshold is met.
func TierForActiveReferrals(count int) int {
	tier := 0
	for i, required := range tierThresholds {
		if count >= required {
			tier = i
		}
	}
	return tier
}

// TierThreshold returns the active-referral count required for the tier.
func TierThreshold(tier int) int {
	if tier < 0 {
		return 0
	}
	if tier > MaxTier {
		tier = MaxTier
	}
	return tierThresholds[tier]
}

// FeePolicy determines withdrawal fees: a flat fee below ThresholdAmount and
// a basis-point percentage of the amount at or above it.
type FeePolicy struct {
	FlatFee         int64
	PercentBPS      int64
	ThresholdAmount int64
}

// DefaultFeePolicy returns the production withdrawal fee schedule:
// 2.00 flat under 100.00, 2% above.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{FlatFee: 200, PercentBPS: 200, ThresholdAmount: 10_000}
}

// Fee computes the withdrawal fee in cents for the requested amount.
func (p FeePolicy) Fee(amount int64) int64 {
	if amount < p.ThresholdAmount {
		return p.FlatFee
	}
	return amount * p.PercentBPS / BPSDenominator
}
