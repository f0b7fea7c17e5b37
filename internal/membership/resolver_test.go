package membership

import (
	"context"
	"fmt"
	"testing"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/logging"
	"github.com/gainvault/gainvault/internal/referral"
)

func seedDownline(t *testing.T, graph *referral.MemoryProvider, parentID string, active int) {
	t.Helper()
	for i := 0; i < active; i++ {
		childID := fmt.Sprintf("%s-child-%d", parentID, i)
		graph.Link(childID, parentID)
		graph.MarkActive(childID)
	}
}

func TestRecompute_PromotesOnThreshold(t *testing.T) {
	accounts := account.NewMemoryRepository()
	graph := referral.NewMemoryProvider()
	resolver := NewResolver(accounts, graph, false, logging.Discard())
	ctx := context.Background()

	accounts.Create(ctx, account.Account{ID: "acct-1", ReferralCode: "c1", Tier: 0})
	seedDownline(t, graph, "acct-1", 12)

	tier, err := resolver.Recompute(ctx, "acct-1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if tier != 2 {
		t.Fatalf("12 active referrals should reach tier 2, got %d", tier)
	}

	acct, _ := accounts.Get(ctx, "acct-1")
	if acct.Tier != 2 {
		t.Fatalf("tier not persisted: %d", acct.Tier)
	}
}

func TestRecompute_NoChangeBelowNextThreshold(t *testing.T) {
	accounts := account.NewMemoryRepository()
	graph := referral.NewMemoryProvider()
	resolver := NewResolver(accounts, graph, false, logging.Discard())
	ctx := context.Background()

	accounts.Create(ctx, account.Account{ID: "acct-1", ReferralCode: "c1", Tier: 1})
	seedDownline(t, graph, "acct-1", 9)

	tier, err := resolver.Recompute(ctx, "acct-1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if tier != 1 {
		t.Fatalf("9 active referrals should hold tier 1, got %d", tier)
	}
}

func TestRecompute_NeverDemotesByDefault(t *testing.T) {
	accounts := account.NewMemoryRepository()
	graph := referral.NewMemoryProvider()
	resolver := NewResolver(accounts, graph, false, logging.Discard())
	ctx := context.Background()

	accounts.Create(ctx, account.Account{ID: "acct-1", ReferralCode: "c1", Tier: 3})
	seedDownline(t, graph, "acct-1", 2)

	tier, err := resolver.Recompute(ctx, "acct-1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if tier != 3 {
		t.Fatalf("earned tier must stick, got %d", tier)
	}
}

func TestRecompute_DemotesWhenEnabled(t *testing.T) {
	accounts := account.NewMemoryRepository()
	graph := referral.NewMemoryProvider()
	resolver := NewResolver(accounts, graph, true, logging.Discard())
	ctx := context.Background()

	accounts.Create(ctx, account.Account{ID: "acct-1", ReferralCode: "c1", Tier: 3})
	seedDownline(t, graph, "acct-1", 4)

	tier, err := resolver.Recompute(ctx, "acct-1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if tier != 1 {
		t.Fatalf("expected demotion to tier 1, got %d", tier)
	}
}

func TestRecompute_UnknownAccount(t *testing.T) {
	resolver := NewResolver(account.NewMemoryRepository(), referral.NewMemoryProvider(), false, logging.Discard())

	if _, err := resolver.Recompute(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown account")
	}
}
