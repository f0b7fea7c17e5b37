package interest

import (
	"context"
	"errors"
	"testing"

	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/logging"
	"github.com/gainvault/gainvault/internal/ratepolicy"
)

func newTestJob(t *testing.T) (*Job, ledger.Ledger, Repository) {
	t.Helper()
	ledgerBackend := ledger.NewInMemory()
	repo := NewMemoryRepository()
	job := NewJob(ledgerBackend, repo, ratepolicy.DefaultInterestPolicy(), logging.Discard())
	return job, ledgerBackend, repo
}

func TestJob_CreditsBelowThresholdBalance(t *testing.T) {
	job, ledgerBackend, repo := newTestJob(t)
	ctx := context.Background()

	ledgerBackend.Register(ctx, "acct-1")
	// 50.00 at the 2.5% base rate earns exactly 1.25.
	ledger.SeedBalance(ledgerBackend, "acct-1", "USD", 5_000, 0)

	summary, err := job.RunForPeriod(ctx, "2026-08-31")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Credited != 1 {
		t.Fatalf("expected 1 credit, got %+v", summary)
	}

	info, _ := ledgerBackend.BalanceInfo(ctx, "acct-1", "USD")
	if info.Withdrawable != 5_125 {
		t.Fatalf("expected balance 5125 after interest, got %d", info.Withdrawable)
	}

	records, _ := repo.ByAccount(ctx, "acct-1")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].RateBPS != 250 || records[0].Amount != 125 {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestJob_RerunIsIdempotent(t *testing.T) {
	job, ledgerBackend, repo := newTestJob(t)
	ctx := context.Background()

	ledgerBackend.Register(ctx, "acct-1")
	ledger.SeedBalance(ledgerBackend, "acct-1", "USD", 5_000, 0)

	if _, err := job.RunForPeriod(ctx, "2026-08-31"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	summary, err := job.RunForPeriod(ctx, "2026-08-31")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Credited != 0 || summary.Skipped != 1 {
		t.Fatalf("rerun must skip, got %+v", summary)
	}

	info, _ := ledgerBackend.BalanceInfo(ctx, "acct-1", "USD")
	if info.Withdrawable != 5_125 {
		t.Fatalf("rerun double-credited: %d", info.Withdrawable)
	}

	records, _ := repo.ByAccount(ctx, "acct-1")
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
}

func TestJob_NewPeriodCreditsAgain(t *testing.T) {
	job, ledgerBackend, _ := newTestJob(t)
	ctx := context.Background()

	ledgerBackend.Register(ctx, "acct-1")
	ledger.SeedBalance(ledgerBackend, "acct-1", "USD", 5_000, 0)

	job.RunForPeriod(ctx, "2026-08-30")
	summary, err := job.RunForPeriod(ctx, "2026-08-31")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Credited != 1 {
		t.Fatalf("new period must credit, got %+v", summary)
	}
}

func TestJob_RecoversMissingRecordAfterCrash(t *testing.T) {
	job, ledgerBackend, repo := newTestJob(t)
	ctx := context.Background()

	ledgerBackend.Register(ctx, "acct-1")
	ledger.SeedBalance(ledgerBackend, "acct-1", "USD", 5_000, 0)

	// Simulate a crash between the ledger credit and the record write: the
	// credit exists under the period's client tx id but no record does.
	if _, err := ledgerBackend.Apply(ctx, ledger.Posting{
		AccountID:    "acct-1",
		Currency:     "USD",
		Amount:       125,
		Kind:         ledger.KindInterest,
		Withdrawable: true,
		ClientTxID:   "interest:acct-1:USD:2026-08-31",
	}); err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	summary, err := job.RunForPeriod(ctx, "2026-08-31")
	if err != nil {
		t.Fatalf("recovery run: %v", err)
	}
	if summary.Failed != 0 {
		t.Fatalf("recovery must not fail, got %+v", summary)
	}

	info, _ := ledgerBackend.BalanceInfo(ctx, "acct-1", "USD")
	if info.Withdrawable != 5_125 {
		t.Fatalf("recovery double-credited: %d", info.Withdrawable)
	}

	records, _ := repo.ByAccount(ctx, "acct-1")
	if len(records) != 1 {
		t.Fatalf("expected recovered record, got %d", len(records))
	}
}

type faultyRepo struct {
	Repository
	failFor string
}

func (r *faultyRepo) Exists(ctx context.Context, accountID, currency, period string) (bool, error) {
	if accountID == r.failFor {
		return false, errors.New("store unavailable")
	}
	return r.Repository.Exists(ctx, accountID, currency, period)
}

func TestJob_OneFailureDoesNotAbortRun(t *testing.T) {
	ledgerBackend := ledger.NewInMemory()
	repo := &faultyRepo{Repository: NewMemoryRepository(), failFor: "acct-bad"}
	job := NewJob(ledgerBackend, repo, ratepolicy.DefaultInterestPolicy(), logging.Discard())
	ctx := context.Background()

	ledgerBackend.Register(ctx, "acct-bad")
	ledgerBackend.Register(ctx, "acct-good")
	ledger.SeedBalance(ledgerBackend, "acct-bad", "USD", 5_000, 0)
	ledger.SeedBalance(ledgerBackend, "acct-good", "USD", 5_000, 0)

	summary, err := job.RunForPeriod(ctx, "2026-08-31")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed != 1 || summary.Credited != 1 {
		t.Fatalf("expected 1 failure and 1 credit, got %+v", summary)
	}

	info, _ := ledgerBackend.BalanceInfo(ctx, "acct-good", "USD")
	if info.Withdrawable != 5_125 {
		t.Fatalf("healthy account missed its credit: %d", info.Withdrawable)
	}
}
