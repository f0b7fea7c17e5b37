package reward

import (
	"context"
	"testing"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/commission"
	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/logging"
	"github.com/gainvault/gainvault/internal/referral"
)

func newTestService(t *testing.T) (*Service, ledger.Ledger, *referral.MemoryProvider, account.Repository) {
	t.Helper()
	ledgerBackend := ledger.NewInMemory()
	accounts := account.NewMemoryRepository()
	graph := referral.NewMemoryProvider()
	logger := logging.Discard()
	commissions := commission.NewService(ledgerBackend, accounts, graph, commission.NewMemoryRepository(), nil, logger)
	return NewService(ledgerBackend, commissions, logger), ledgerBackend, graph, accounts
}

func addAccount(t *testing.T, l ledger.Ledger, accounts account.Repository, graph *referral.MemoryProvider, id string, parentID string) {
	t.Helper()
	if err := accounts.Create(context.Background(), account.Account{ID: id, ReferralCode: "code-" + id, ReferredBy: parentID}); err != nil {
		t.Fatalf("create account %s: %v", id, err)
	}
	if err := l.Register(context.Background(), id); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	if parentID != "" {
		graph.Link(id, parentID)
	}
}

func TestGrantTask_CreditsAndPropagates(t *testing.T) {
	svc, ledgerBackend, graph, accounts := newTestService(t)
	ctx := context.Background()

	addAccount(t, ledgerBackend, accounts, graph, "acct-up", "")
	addAccount(t, ledgerBackend, accounts, graph, "acct-a", "acct-up")

	entry, err := svc.GrantTask(ctx, "acct-a", "USD", 10_000)
	if err != nil {
		t.Fatalf("grant task: %v", err)
	}
	if entry.Kind != ledger.KindTaskReward || !entry.Withdrawable {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	info, _ := ledgerBackend.BalanceInfo(ctx, "acct-a", "USD")
	if info.Withdrawable != 10_000 {
		t.Fatalf("task reward must be withdrawable: %+v", info)
	}

	// Tier 0 level 1 rate is 5%.
	infoUp, _ := ledgerBackend.BalanceInfo(ctx, "acct-up", "USD")
	if infoUp.Withdrawable != 500 {
		t.Fatalf("expected upline commission of 500, got %+v", infoUp)
	}
}

func TestGrantLuckyDraw_NonWithdrawableAndSilent(t *testing.T) {
	svc, ledgerBackend, graph, accounts := newTestService(t)
	ctx := context.Background()

	addAccount(t, ledgerBackend, accounts, graph, "acct-up", "")
	addAccount(t, ledgerBackend, accounts, graph, "acct-a", "acct-up")

	entry, err := svc.GrantLuckyDraw(ctx, "acct-a", "USD", 10_000)
	if err != nil {
		t.Fatalf("grant lucky draw: %v", err)
	}
	if entry.Withdrawable {
		t.Fatalf("lucky draw must be bonus funds: %+v", entry)
	}

	info, _ := ledgerBackend.BalanceInfo(ctx, "acct-a", "USD")
	if info.NonWithdrawable != 10_000 || info.Withdrawable != 0 {
		t.Fatalf("unexpected balance split: %+v", info)
	}

	infoUp, _ := ledgerBackend.BalanceInfo(ctx, "acct-up", "USD")
	if infoUp.Total != 0 {
		t.Fatalf("lucky draw must not pay commission: %+v", infoUp)
	}
}
