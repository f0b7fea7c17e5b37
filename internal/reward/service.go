package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gainvault/gainvault/internal/commission"
	"github.com/gainvault/gainvault/internal/ledger"
)

// Service credits non-deposit incentives. Task rewards are withdrawable and
// qualify for upline commission; lucky-draw winnings are bonus funds that
// stay non-withdrawable and never propagate.
type Service struct {
	ledger      ledger.Ledger
	commissions *commission.Service
	logger      *slog.Logger
}

// NewService constructs a reward service.
func NewService(ledgerBackend ledger.Ledger, commissions *commission.Service, logger *slog.Logger) *Service {
	return &Service{ledger: ledgerBackend, commissions: commissions, logger: logger}
}

// GrantTask credits a task reward and propagates commission for it.
func (s *Service) GrantTask(ctx context.Context, accountID, currency string, amount int64) (ledger.Entry, error) {
	eventID := uuid.NewString()
	entry, err := s.ledger.Apply(ctx, ledger.Posting{
		AccountID:    accountID,
		Currency:     currency,
		Amount:       amount,
		Kind:         ledger.KindTaskReward,
		Withdrawable: true,
		ClientTxID:   "task:" + eventID,
		Reference:    eventID,
	})
	if err != nil && !errors.Is(err, ledger.ErrDuplicateEntry) {
		return ledger.Entry{}, fmt.Errorf("credit task reward: %w", err)
	}

	if _, err := s.commissions.Propagate(ctx, commission.Event{
		SourceAccountID: accountID,
		EventID:         "task:" + eventID,
		Currency:        currency,
		Amount:          amount,
		Kind:            ledger.KindTaskReward,
	}); err != nil {
		s.logger.Error("commission propagation failed", "event_id", eventID, "error", err)
	}

	return entry, nil
}

// GrantLuckyDraw credits non-withdrawable winnings. No commission walks.
func (s *Service) GrantLuckyDraw(ctx context.Context, accountID, currency string, amount int64) (ledger.Entry, error) {
	return s.ledger.Apply(ctx, ledger.Posting{
		AccountID:  accountID,
		Currency:   currency,
		Amount:     amount,
		Kind:       ledger.KindLuckyDraw,
		ClientTxID: "luckydraw:" + uuid.NewString(),
	})
}
