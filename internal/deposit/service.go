package deposit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/commission"
	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/membership"
	"github.com/gainvault/gainvault/internal/referral"
)

// Service drives the deposit lifecycle. Confirmation is the qualifying event
// that credits the ledger, pays upline commission and can promote the direct
// upline's membership tier.
type Service struct {
	repo        Repository
	ledger      ledger.Ledger
	accounts    account.Repository
	commissions *commission.Service
	membership  *membership.Resolver
	invalidator referral.Invalidator
	logger      *slog.Logger
}

// NewService constructs a deposit service.
func NewService(repo Repository, ledgerBackend ledger.Ledger, accounts account.Repository, commissions *commission.Service, resolver *membership.Resolver, invalidator referral.Invalidator, logger *slog.Logger) *Service {
	if invalidator == nil {
		invalidator = referral.NoopInvalidator{}
	}
	return &Service{
		repo:        repo,
		ledger:      ledgerBackend,
		accounts:    accounts,
		commissions: commissions,
		membership:  resolver,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Request records a pending deposit awaiting external confirmation.
func (s *Service) Request(ctx context.Context, accountID, currency string, amount int64) (Deposit, error) {
	if amount <= 0 {
		return Deposit{}, ledger.ErrInvalidAmount
	}
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		return Deposit{}, err
	}

	d := Deposit{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Currency:  currency,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return Deposit{}, err
	}
	return d, nil
}

// Confirm applies an externally confirmed deposit: the ledger credit, the
// commission walk, and the upline tier recompute when this deposit turns the
// account into an active referral. Confirming an already completed deposit
// is a no-op.
func (s *Service) Confirm(ctx context.Context, depositID string) (Deposit, error) {
	d, err := s.repo.Get(ctx, depositID)
	if err != nil {
		return Deposit{}, err
	}
	if d.Status == StatusCompleted {
		return d, nil
	}

	firstDeposit, err := s.repo.HasCompleted(ctx, d.AccountID)
	if err != nil {
		return d, err
	}
	firstDeposit = !firstDeposit

	if _, err := s.ledger.Apply(ctx, ledger.Posting{
		AccountID:    d.AccountID,
		Currency:     d.Currency,
		Amount:       d.Amount,
		Kind:         ledger.KindDeposit,
		Withdrawable: true,
		ClientTxID:   "deposit:" + d.ID,
		Reference:    d.ID,
	}); err != nil && !errors.Is(err, ledger.ErrDuplicateEntry) {
		return d, fmt.Errorf("credit deposit: %w", err)
	}

	now := time.Now().UTC()
	if _, err := s.repo.MarkCompleted(ctx, d.ID, now); err != nil {
		return d, err
	}
	d.Status = StatusCompleted
	d.ConfirmedAt = now

	// Commission failures are logged, not surfaced: the per-level client tx
	// ids make a later replay of the event safe.
	if _, err := s.commissions.Propagate(ctx, commission.Event{
		SourceAccountID: d.AccountID,
		EventID:         "deposit:" + d.ID,
		Currency:        d.Currency,
		Amount:          d.Amount,
		Kind:            ledger.KindDeposit,
	}); err != nil {
		s.logger.Error("commission propagation failed", "deposit_id", d.ID, "error", err)
	}

	if firstDeposit {
		s.onBecameActive(ctx, d.AccountID)
	}

	return d, nil
}

// onBecameActive refreshes the direct upline after this account's first
// completed deposit changed its active-referral count.
func (s *Service) onBecameActive(ctx context.Context, accountID string) {
	acct, err := s.accounts.Get(ctx, accountID)
	if err != nil || acct.ReferredBy == "" {
		return
	}
	if err := s.invalidator.Invalidate(ctx, acct.ReferredBy); err != nil {
		s.logger.Warn("referral count invalidation failed", "account_id", acct.ReferredBy, "error", err)
	}
	if _, err := s.membership.Recompute(ctx, acct.ReferredBy); err != nil {
		s.logger.Error("tier recompute failed", "account_id", acct.ReferredBy, "error", err)
	}
}

// Get retrieves one deposit.
func (s *Service) Get(ctx context.Context, id string) (Deposit, error) {
	return s.repo.Get(ctx, id)
}
