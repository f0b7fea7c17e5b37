package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryLedger_CreditUpdatesSubBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.Register(ctx, "acct-1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 10_000, Kind: KindDeposit, Withdrawable: true}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 2_000, Kind: KindRegistrationBonus}); err != nil {
		t.Fatalf("bonus: %v", err)
	}

	info, err := l.BalanceInfo(ctx, "acct-1", "USD")
	if err != nil {
		t.Fatalf("balance info: %v", err)
	}
	if info.Withdrawable != 10_000 {
		t.Fatalf("expected withdrawable 10000, got %d", info.Withdrawable)
	}
	if info.NonWithdrawable != 2_000 {
		t.Fatalf("expected non-withdrawable 2000, got %d", info.NonWithdrawable)
	}
	if info.Total != info.Withdrawable+info.NonWithdrawable {
		t.Fatalf("split-balance invariant broken: total=%d", info.Total)
	}
}

func TestInMemoryLedger_DebitIgnoresBonusFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.Register(ctx, "acct-1")
	SeedBalance(l, "acct-1", "USD", 10_000, 2_000)

	// Total is 120.00 but only the withdrawable 100.00 may fund a debit.
	if _, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 11_000, Kind: KindWithdrawal}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	if _, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 10_000, Kind: KindWithdrawal}); err != nil {
		t.Fatalf("full withdrawable debit: %v", err)
	}

	info, _ := l.BalanceInfo(ctx, "acct-1", "USD")
	if info.Withdrawable != 0 || info.NonWithdrawable != 2_000 {
		t.Fatalf("unexpected balances after debit: %+v", info)
	}
}

func TestInMemoryLedger_InvalidAmount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.Register(ctx, "acct-1")

	for _, amount := range []int64{0, -500} {
		if _, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: amount, Kind: KindDeposit, Withdrawable: true}); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected invalid amount, got %v", amount, err)
		}
	}
}

func TestInMemoryLedger_UnknownAccount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Apply(ctx, Posting{AccountID: "ghost", Currency: "USD", Amount: 100, Kind: KindDeposit, Withdrawable: true}); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}
}

func TestInMemoryLedger_DuplicateClientTx(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.Register(ctx, "acct-1")

	first, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 5_000, Kind: KindDeposit, Withdrawable: true, ClientTxID: "dep-1"})
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}

	replay, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 5_000, Kind: KindDeposit, Withdrawable: true, ClientTxID: "dep-1"})
	if !errors.Is(err, ErrDuplicateEntry) {
		t.Fatalf("expected duplicate entry, got %v", err)
	}
	if replay.ID != first.ID {
		t.Fatalf("expected original entry on replay, got %s vs %s", replay.ID, first.ID)
	}

	info, _ := l.BalanceInfo(ctx, "acct-1", "USD")
	if info.Withdrawable != 5_000 {
		t.Fatalf("replay must not double-credit, got %d", info.Withdrawable)
	}
}

func TestInMemoryLedger_LifetimeCounters(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.Register(ctx, "acct-1")

	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 10_000, Kind: KindDeposit, Withdrawable: true})
	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 250, Kind: KindInterest, Withdrawable: true})
	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 500, Kind: KindCommission, Withdrawable: true})
	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 1_000, Kind: KindWithdrawal})

	c, err := l.Counters(ctx, "acct-1")
	if err != nil {
		t.Fatalf("counters: %v", err)
	}
	if c.TotalDeposited != 10_000 || c.TotalProfit != 250 || c.TotalReferralEarnings != 500 || c.TotalWithdrawn != 1_000 {
		t.Fatalf("unexpected counters: %+v", c)
	}
}

func TestInMemoryLedger_EntriesSumToBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.Register(ctx, "acct-1")

	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 10_000, Kind: KindDeposit, Withdrawable: true})
	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 1_500, Kind: KindLuckyDraw})
	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 3_000, Kind: KindWithdrawal})
	l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 250, Kind: KindInterest, Withdrawable: true})

	entries, err := l.Entries(ctx, "acct-1")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}

	var sum int64
	for _, e := range entries {
		sum += e.Amount
	}

	info, _ := l.BalanceInfo(ctx, "acct-1", "USD")
	if sum != info.Total {
		t.Fatalf("entry sum %d does not match balance %d", sum, info.Total)
	}
}

func TestInMemoryLedger_ConcurrentApplies(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.Register(ctx, "acct-1")
	SeedBalance(l, "acct-1", "USD", 100_000, 0)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txID := fmt.Sprintf("wd-%d", i)
			if _, err := l.Apply(ctx, Posting{AccountID: "acct-1", Currency: "USD", Amount: 500, Kind: KindWithdrawal, ClientTxID: txID}); err != nil {
				t.Errorf("apply %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	info, _ := l.BalanceInfo(ctx, "acct-1", "USD")
	if info.Withdrawable != 100_000-workers*500 {
		t.Fatalf("lost update under concurrency, withdrawable=%d", info.Withdrawable)
	}
}

func TestInMemoryLedger_ActiveBalances(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	l.Register(ctx, "acct-1")
	l.Register(ctx, "acct-2")
	l.Register(ctx, "acct-3")
	SeedBalance(l, "acct-1", "USD", 5_000, 0)
	SeedBalance(l, "acct-2", "EUR", 0, 300)

	balances, err := l.ActiveBalances(ctx)
	if err != nil {
		t.Fatalf("active balances: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 positive balances, got %d", len(balances))
	}
	for _, b := range balances {
		if b.Total <= 0 {
			t.Fatalf("non-positive balance listed: %+v", b)
		}
	}
}
