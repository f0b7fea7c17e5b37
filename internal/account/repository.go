package account

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound occurs when an account or referral code cannot be resolved.
var ErrNotFound = errors.New("account not found")

// Repository persists account metadata.
type Repository interface {
	Create(ctx context.Context, acct Account) error
	Get(ctx context.Context, id string) (Account, error)
	FindByReferralCode(ctx context.Context, code string) (Account, error)
	UpdateTier(ctx context.Context, id string, tier int) error
}

// PostgresRepository stores accounts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an account row with zeroed lifetime counters.
func (r *PostgresRepository) Create(ctx context.Context, acct Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (id, referral_code, referred_by, tier, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5)`,
		acct.ID, acct.ReferralCode, acct.ReferredBy, acct.Tier, acct.CreatedAt.UTC())
	return err
}

// Get fetches an account by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Account, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, referral_code, COALESCE(referred_by, ''), tier, created_at
        FROM accounts WHERE id = $1`, id))
}

// FindByReferralCode resolves an account from its unique referral code.
func (r *PostgresRepository) FindByReferralCode(ctx context.Context, code string) (Account, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, referral_code, COALESCE(referred_by, ''), tier, created_at
        FROM accounts WHERE referral_code = $1`, code))
}

// UpdateTier writes a recomputed membership tier.
func (r *PostgresRepository) UpdateTier(ctx context.Context, id string, tier int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET tier = $2 WHERE id = $1`, id, tier)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (Account, error) {
	var (
		acct      Account
		createdAt time.Time
	)
	if err := row.Scan(&acct.ID, &acct.ReferralCode, &acct.ReferredBy, &acct.Tier, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.CreatedAt = createdAt.UTC()
	return acct, nil
}
