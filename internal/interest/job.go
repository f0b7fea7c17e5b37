package interest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/ratepolicy"
)

// Job applies daily interest to every positive balance exactly once per
// accrual period.
type Job struct {
	ledger ledger.Ledger
	repo   Repository
	policy ratepolicy.InterestPolicy
	logger *slog.Logger
}

// NewJob constructs the accrual job.
func NewJob(ledgerBackend ledger.Ledger, repo Repository, policy ratepolicy.InterestPolicy, logger *slog.Logger) *Job {
	return &Job{ledger: ledgerBackend, repo: repo, policy: policy, logger: logger}
}

// Summary reports the outcome of one accrual run.
type Summary struct {
	Period   string
	Credited int
	Skipped  int
	Failed   int
}

// RunForPeriod sweeps every positive (account, currency) balance. Pairs that
// already carry a record for the period are skipped, which makes reruns and
// crash recovery safe; a failure on one pair is logged and never aborts the
// rest of the run.
func (j *Job) RunForPeriod(ctx context.Context, period string) (Summary, error) {
	summary := Summary{Period: period}

	balances, err := j.ledger.ActiveBalances(ctx)
	if err != nil {
		return summary, fmt.Errorf("list active balances: %w", err)
	}

	for _, bal := range balances {
		applied, err := j.accrueOne(ctx, bal, period)
		if err != nil {
			summary.Failed++
			j.logger.Error("interest accrual failed",
				"account_id", bal.AccountID, "currency", bal.Currency, "period", period, "error", err)
			continue
		}
		if applied {
			summary.Credited++
		} else {
			summary.Skipped++
		}
	}

	j.logger.Info("interest accrual run finished",
		"period", period, "credited", summary.Credited, "skipped", summary.Skipped, "failed", summary.Failed)

	return summary, nil
}

// accrueOne credits one (account, currency) pair. The ledger's client-tx
// dedupe is the primary idempotence barrier: if a previous run crashed
// between the credit and the record write, the replayed posting returns the
// original entry and only the record is (re)persisted.
func (j *Job) accrueOne(ctx context.Context, bal ledger.AccountBalance, period string) (bool, error) {
	exists, err := j.repo.Exists(ctx, bal.AccountID, bal.Currency, period)
	if err != nil {
		return false, fmt.Errorf("check record: %w", err)
	}
	if exists {
		return false, nil
	}

	rate := j.policy.DailyRateBPS(bal.Total)
	amount := ratepolicy.InterestDue(bal.Total, rate)
	if amount <= 0 {
		return false, nil
	}

	clientTxID := fmt.Sprintf("interest:%s:%s:%s", bal.AccountID, bal.Currency, period)
	entry, err := j.ledger.Apply(ctx, ledger.Posting{
		AccountID:    bal.AccountID,
		Currency:     bal.Currency,
		Amount:       amount,
		Kind:         ledger.KindInterest,
		Withdrawable: true,
		ClientTxID:   clientTxID,
		Reference:    period,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateEntry) {
			// Credit from a crashed run; recover the missing record below.
			amount = entry.Amount
			j.logger.Warn("recovering interest record for already-applied credit",
				"account_id", bal.AccountID, "currency", bal.Currency, "period", period)
		} else {
			return false, fmt.Errorf("apply interest: %w", err)
		}
	}

	rec := Record{
		ID:        uuid.NewString(),
		AccountID: bal.AccountID,
		Currency:  bal.Currency,
		Period:    period,
		RateBPS:   rate,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := j.repo.Create(ctx, rec); err != nil {
		return false, fmt.Errorf("persist record: %w", err)
	}

	return true, nil
}

// History lists the accrual records of an account.
func (j *Job) History(ctx context.Context, accountID string) ([]Record, error) {
	return j.repo.ByAccount(ctx, accountID)
}
