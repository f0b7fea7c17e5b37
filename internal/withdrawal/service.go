package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/notification"
	"github.com/gainvault/gainvault/internal/ratepolicy"
)

// ErrBelowMinimum occurs when the requested amount is under the configured
// minimum withdrawal.
var ErrBelowMinimum = errors.New("amount below minimum withdrawal")

// Service enforces withdrawal eligibility and drives the request lifecycle.
// Funds are debited only at approval: the amount as a withdrawal-kind entry
// and the fee as a separate fee-kind entry, both drawn from the withdrawable
// sub-balance.
type Service struct {
	ledger    ledger.Ledger
	repo      Repository
	fees      ratepolicy.FeePolicy
	minAmount int64
	notifier  notification.Notifier
	logger    *slog.Logger
}

// NewService constructs a withdrawal service.
func NewService(ledgerBackend ledger.Ledger, repo Repository, fees ratepolicy.FeePolicy, minAmount int64, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		ledger:    ledgerBackend,
		repo:      repo,
		fees:      fees,
		minAmount: minAmount,
		notifier:  notifier,
		logger:    logger,
	}
}

// Validate checks eligibility without mutating anything: one pending request
// per account, the configured minimum, and coverage of amount plus fee by
// the withdrawable sub-balance alone.
func (s *Service) Validate(ctx context.Context, accountID, currency string, amount int64) error {
	if amount <= 0 {
		return ledger.ErrInvalidAmount
	}
	if amount < s.minAmount {
		return ErrBelowMinimum
	}

	pending, err := s.repo.HasPending(ctx, accountID)
	if err != nil {
		return fmt.Errorf("check pending: %w", err)
	}
	if pending {
		return ErrPendingExists
	}

	info, err := s.ledger.BalanceInfo(ctx, accountID, currency)
	if err != nil {
		return err
	}
	if info.Withdrawable < amount+s.fees.Fee(amount) {
		return ledger.ErrInsufficientFunds
	}

	return nil
}

// Request validates and creates the pending withdrawal. Nothing is debited
// until approval.
func (s *Service) Request(ctx context.Context, accountID, currency string, amount int64) (Withdrawal, error) {
	if err := s.Validate(ctx, accountID, currency, amount); err != nil {
		return Withdrawal{}, err
	}

	w := Withdrawal{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Currency:  currency,
		Amount:    amount,
		Fee:       s.fees.Fee(amount),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return Withdrawal{}, err
	}

	return w, nil
}

// Approve debits the amount and the fee, then marks the request approved.
// Both postings carry the withdrawal id as client transaction id, so a retry
// after a partial failure resumes instead of double-debiting.
func (s *Service) Approve(ctx context.Context, id string) (Withdrawal, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return Withdrawal{}, err
	}
	if w.Status != StatusPending {
		return w, ErrNotFound
	}

	if _, err := s.ledger.Apply(ctx, ledger.Posting{
		AccountID:  w.AccountID,
		Currency:   w.Currency,
		Amount:     w.Amount,
		Kind:       ledger.KindWithdrawal,
		ClientTxID: "withdrawal:" + w.ID,
		Reference:  w.ID,
	}); err != nil && !errors.Is(err, ledger.ErrDuplicateEntry) {
		return w, err
	}

	if w.Fee > 0 {
		if _, err := s.ledger.Apply(ctx, ledger.Posting{
			AccountID:  w.AccountID,
			Currency:   w.Currency,
			Amount:     w.Fee,
			Kind:       ledger.KindFee,
			ClientTxID: "withdrawal-fee:" + w.ID,
			Reference:  w.ID,
		}); err != nil && !errors.Is(err, ledger.ErrDuplicateEntry) {
			return w, err
		}
	}

	now := time.Now().UTC()
	if err := s.repo.Resolve(ctx, w.ID, StatusApproved, now); err != nil {
		return w, err
	}
	w.Status = StatusApproved
	w.ResolvedAt = now

	s.notify(ctx, w, "approved")
	return w, nil
}

// Reject marks the request rejected; no funds were reserved, so nothing is
// returned to the balance.
func (s *Service) Reject(ctx context.Context, id string) (Withdrawal, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return Withdrawal{}, err
	}
	if w.Status != StatusPending {
		return w, ErrNotFound
	}

	now := time.Now().UTC()
	if err := s.repo.Resolve(ctx, w.ID, StatusRejected, now); err != nil {
		return w, err
	}
	w.Status = StatusRejected
	w.ResolvedAt = now

	s.notify(ctx, w, "rejected")
	return w, nil
}

// History lists the withdrawal requests of an account.
func (s *Service) History(ctx context.Context, accountID string) ([]Withdrawal, error) {
	return s.repo.ByAccount(ctx, accountID)
}

func (s *Service) notify(ctx context.Context, w Withdrawal, outcome string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindWithdrawalResolved,
		Destination: w.AccountID,
		Body:        fmt.Sprintf("Withdrawal of %d %s", w.Amount, outcome),
	})
}
