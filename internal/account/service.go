package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gainvault/gainvault/internal/ledger"
)

// ErrUnknownReferralCode occurs when provisioning names a referral code that
// does not resolve to an existing account.
var ErrUnknownReferralCode = errors.New("unknown referral code")

const referralCodeLength = 8

// Service owns the account lifecycle. Provisioning is the single explicit
// entry point that creates account state; balance logic never creates
// accounts on the fly.
type Service struct {
	repo              Repository
	ledger            ledger.Ledger
	registrationBonus int64
	bonusCurrency     string
}

// NewService builds an account service. registrationBonus (in cents) is
// credited as non-withdrawable funds at provisioning; zero disables it.
func NewService(repo Repository, ledgerBackend ledger.Ledger, registrationBonus int64, bonusCurrency string) *Service {
	if bonusCurrency == "" {
		bonusCurrency = "USD"
	}
	return &Service{
		repo:              repo,
		ledger:            ledgerBackend,
		registrationBonus: registrationBonus,
		bonusCurrency:     bonusCurrency,
	}
}

// ProvisionInput carries the optional referral code of the inviting account.
type ProvisionInput struct {
	ReferralCode string
}

// Provision creates a new account with zero balances and tier 0, generates
// its unique referral code, binds the upline when an inviter code is given,
// and grants the configured registration bonus as non-withdrawable funds.
func (s *Service) Provision(ctx context.Context, input ProvisionInput) (Account, error) {
	referredBy := ""
	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		inviter, err := s.repo.FindByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Account{}, ErrUnknownReferralCode
			}
			return Account{}, err
		}
		referredBy = inviter.ID
	}

	acct := Account{
		ID:         uuid.NewString(),
		ReferredBy: referredBy,
		Tier:       0,
		CreatedAt:  time.Now().UTC(),
	}

	// Referral codes are derived from fresh uuids; on the rare collision the
	// unique index rejects the insert and we mint a new code.
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		acct.ReferralCode = newReferralCode()
		if err = s.repo.Create(ctx, acct); err == nil {
			break
		}
	}
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}

	if err := s.ledger.Register(ctx, acct.ID); err != nil {
		return Account{}, fmt.Errorf("register ledger account: %w", err)
	}

	if s.registrationBonus > 0 {
		_, err := s.ledger.Apply(ctx, ledger.Posting{
			AccountID:  acct.ID,
			Currency:   s.bonusCurrency,
			Amount:     s.registrationBonus,
			Kind:       ledger.KindRegistrationBonus,
			ClientTxID: "regbonus:" + acct.ID,
		})
		if err != nil && !errors.Is(err, ledger.ErrDuplicateEntry) {
			return Account{}, fmt.Errorf("grant registration bonus: %w", err)
		}
	}

	return acct, nil
}

// Get retrieves account metadata.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

func newReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:referralCodeLength])
}
