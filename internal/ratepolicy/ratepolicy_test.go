package ratepolicy

import "testing"

func TestDailyRateBPS_BelowThreshold(t *testing.T) {
	p := DefaultInterestPolicy()

	for _, balance := range []int64{0, 5_000, p.Threshold} {
		if rate := p.DailyRateBPS(balance); rate != p.MinRateBPS {
			t.Fatalf("balance %d: expected %d bps, got %d", balance, p.MinRateBPS, rate)
		}
	}
}

func TestDailyRateBPS_LinearBandAndCap(t *testing.T) {
	p := InterestPolicy{MinRateBPS: 250, MaxRateBPS: 500, Threshold: 1_000, BalanceCap: 2_000}

	if rate := p.DailyRateBPS(1_500); rate != 375 {
		t.Fatalf("expected midpoint rate 375, got %d", rate)
	}
	if rate := p.DailyRateBPS(2_000); rate != 500 {
		t.Fatalf("expected cap rate 500, got %d", rate)
	}
	if rate := p.DailyRateBPS(1_000_000); rate != 500 {
		t.Fatalf("rate above cap must stay at max, got %d", rate)
	}
}

func TestInterestDue(t *testing.T) {
	// Balance of 50.00 at 2.5% daily yields exactly 1.25.
	if due := InterestDue(5_000, 250); due != 125 {
		t.Fatalf("expected 125, got %d", due)
	}
	// Rounding is always downward.
	if due := InterestDue(999, 250); due != 24 {
		t.Fatalf("expected floor rounding to 24, got %d", due)
	}
}

func TestCommissionRateBPS(t *testing.T) {
	if rate := CommissionRateBPS(0, 1); rate != 500 {
		t.Fatalf("tier 0 level 1: expected 500, got %d", rate)
	}
	if rate := CommissionRateBPS(0, 2); rate != 100 {
		t.Fatalf("tier 0 level 2: expected 100, got %d", rate)
	}
	// Locked levels pay nothing.
	if rate := CommissionRateBPS(0, 3); rate != 0 {
		t.Fatalf("tier 0 level 3 locked: got %d", rate)
	}
	if rate := CommissionRateBPS(5, 6); rate != 50 {
		t.Fatalf("tier 5 level 6: expected 50, got %d", rate)
	}
}

func TestCommissionRateBPS_Bounds(t *testing.T) {
	if rate := CommissionRateBPS(0, 0); rate != 0 {
		t.Fatalf("level 0 must pay zero, got %d", rate)
	}
	if rate := CommissionRateBPS(3, 7); rate != 0 {
		t.Fatalf("level 7 must pay zero, got %d", rate)
	}
	if rate := CommissionRateBPS(-1, 1); rate != CommissionRateBPS(0, 1) {
		t.Fatalf("negative tier must clamp to tier 0")
	}
	if rate := CommissionRateBPS(99, 1); rate != CommissionRateBPS(MaxTier, 1) {
		t.Fatalf("oversized tier must clamp to max tier")
	}
}

func TestTierForActiveReferrals(t *testing.T) {
	cases := []struct {
		count int
		tier  int
	}{
		{0, 0},
		{2, 0},
		{3, 1},
		{12, 2},
		{20, 3},
		{99, 4},
		{100, 5},
		{5_000, 5},
	}
	for _, tc := range cases {
		if got := TierForActiveReferrals(tc.count); got != tc.tier {
			t.Fatalf("count %d: expected tier %d, got %d", tc.count, tc.tier, got)
		}
	}
}

func TestFeePolicy(t *testing.T) {
	p := DefaultFeePolicy()

	if fee := p.Fee(5_000); fee != p.FlatFee {
		t.Fatalf("below threshold: expected flat fee %d, got %d", p.FlatFee, fee)
	}
	// At and above the threshold the percentage applies.
	if fee := p.Fee(10_000); fee != 200 {
		t.Fatalf("at threshold: expected 200, got %d", fee)
	}
	if fee := p.Fee(100_000); fee != 2_000 {
		t.Fatalf("above threshold: expected 2000, got %d", fee)
	}
}
