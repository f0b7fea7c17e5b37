package referral

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider walks the referred_by graph stored on the accounts table.
type PostgresProvider struct {
	db *pgxpool.Pool
}

// NewPostgresProvider builds a Postgres-backed referral graph provider.
func NewPostgresProvider(db *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{db: db}
}

// Upline follows referred_by pointers one row at a time. The walk stops at
// the depth bound, at a missing ancestor, or when an id repeats.
func (p *PostgresProvider) Upline(ctx context.Context, accountID string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 || maxDepth > MaxUplineDepth {
		maxDepth = MaxUplineDepth
	}

	visited := map[string]bool{accountID: true}
	chain := make([]string, 0, maxDepth)
	current := accountID

	for len(chain) < maxDepth {
		var parent string
		err := p.db.QueryRow(ctx, `SELECT COALESCE(referred_by, '') FROM accounts WHERE id = $1`, current).Scan(&parent)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				break
			}
			return nil, err
		}
		if parent == "" || visited[parent] {
			break
		}
		visited[parent] = true
		chain = append(chain, parent)
		current = parent
	}

	return chain, nil
}

// ActiveReferralCount counts direct downline accounts with at least one
// completed deposit.
func (p *PostgresProvider) ActiveReferralCount(ctx context.Context, accountID string) (int, error) {
	const query = `
        SELECT COUNT(*)
        FROM accounts a
        WHERE a.referred_by = $1
          AND EXISTS (
              SELECT 1 FROM deposits d
              WHERE d.account_id = a.id AND d.status = 'completed'
          )`
	var count int
	if err := p.db.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
