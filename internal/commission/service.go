package commission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gainvault/gainvault/internal/account"
	"github.com/gainvault/gainvault/internal/ledger"
	"github.com/gainvault/gainvault/internal/notification"
	"github.com/gainvault/gainvault/internal/ratepolicy"
	"github.com/gainvault/gainvault/internal/referral"
)

// Event is a qualifying occurrence that may pay commission up the referral
// chain: a confirmed deposit or a task reward.
type Event struct {
	SourceAccountID string
	EventID         string
	Currency        string
	Amount          int64
	Kind            ledger.Kind
}

// Service walks the upline of an event's source account and credits each
// eligible ancestor through the ledger.
type Service struct {
	ledger   ledger.Ledger
	accounts account.Repository
	graph    referral.Provider
	repo     Repository
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService constructs a commission propagation service.
func NewService(ledgerBackend ledger.Ledger, accounts account.Repository, graph referral.Provider, repo Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		ledger:   ledgerBackend,
		accounts: accounts,
		graph:    graph,
		repo:     repo,
		notifier: notifier,
		logger:   logger,
	}
}

// Propagate pays commission for one qualifying event. Interest and
// commission credits never propagate, so earnings cannot compound through
// the chain. The walk is bounded to six levels, a repeated id ends it, and a
// missing ancestor ends it without error. Each credit is idempotent per
// (event, level): the ledger posting always lands before its completed
// record is persisted.
func (s *Service) Propagate(ctx context.Context, event Event) ([]Commission, error) {
	if event.Kind == ledger.KindInterest || event.Kind == ledger.KindCommission {
		return nil, nil
	}
	if event.Amount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}
	if event.EventID == "" {
		return nil, fmt.Errorf("event id is required")
	}

	chain, err := s.graph.Upline(ctx, event.SourceAccountID, ratepolicy.MaxCommissionLevels)
	if err != nil {
		return nil, fmt.Errorf("resolve upline: %w", err)
	}

	seen := map[string]bool{event.SourceAccountID: true}
	var paid []Commission

	for i, beneficiaryID := range chain {
		level := i + 1
		if seen[beneficiaryID] {
			break
		}
		seen[beneficiaryID] = true

		beneficiary, err := s.accounts.Get(ctx, beneficiaryID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				// The ancestor no longer exists; stop here, keep what was paid.
				s.logger.Warn("upline unavailable, stopping propagation",
					"event_id", event.EventID, "level", level, "beneficiary_id", beneficiaryID)
				break
			}
			return paid, err
		}

		rate := ratepolicy.CommissionRateBPS(beneficiary.Tier, level)
		if rate == 0 {
			continue
		}
		amount := event.Amount * rate / ratepolicy.BPSDenominator
		if amount == 0 {
			continue
		}

		clientTxID := fmt.Sprintf("commission:%s:%d", event.EventID, level)
		entry, err := s.ledger.Apply(ctx, ledger.Posting{
			AccountID:    beneficiaryID,
			Currency:     event.Currency,
			Amount:       amount,
			Kind:         ledger.KindCommission,
			Withdrawable: true,
			ClientTxID:   clientTxID,
			Reference:    event.EventID,
		})
		if err != nil && !errors.Is(err, ledger.ErrDuplicateEntry) {
			return paid, fmt.Errorf("credit level %d: %w", level, err)
		}

		record := Commission{
			ID:              uuid.NewString(),
			BeneficiaryID:   beneficiaryID,
			SourceAccountID: event.SourceAccountID,
			EventID:         event.EventID,
			Level:           level,
			RateBPS:         rate,
			SourceAmount:    event.Amount,
			Amount:          amount,
			Currency:        event.Currency,
			Status:          StatusCompleted,
			CreatedAt:       entry.CreatedAt,
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now().UTC()
		}
		if err := s.repo.Create(ctx, record); err != nil {
			return paid, fmt.Errorf("persist commission level %d: %w", level, err)
		}
		paid = append(paid, record)

		if s.notifier != nil {
			_ = s.notifier.Send(ctx, notification.Message{
				Kind:        notification.KindCommissionEarned,
				Destination: beneficiaryID,
				Body:        fmt.Sprintf("Level %d commission of %d earned from a downline event", level, amount),
			})
		}
	}

	return paid, nil
}

// History lists the commissions earned by an account.
func (s *Service) History(ctx context.Context, accountID string) ([]Commission, error) {
	return s.repo.ByBeneficiary(ctx, accountID)
}
