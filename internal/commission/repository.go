package commission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists commission records.
type Repository interface {
	Create(ctx context.Context, c Commission) error
	Exists(ctx context.Context, eventID string, level int) (bool, error)
	ByBeneficiary(ctx context.Context, beneficiaryID string) ([]Commission, error)
}

// PostgresRepository stores commissions in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed commission repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a commission record.
func (r *PostgresRepository) Create(ctx context.Context, c Commission) error {
	_, err := r.db.Exec(ctx, `INSERT INTO commissions
        (id, beneficiary_id, source_account_id, event_id, level, rate_bps, source_amount, amount, currency, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (event_id, level) DO NOTHING`,
		c.ID, c.BeneficiaryID, c.SourceAccountID, c.EventID, c.Level, c.RateBPS, c.SourceAmount, c.Amount, c.Currency, c.Status, c.CreatedAt.UTC())
	return err
}

// Exists reports whether a record for the (event, level) pair is present.
func (r *PostgresRepository) Exists(ctx context.Context, eventID string, level int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM commissions WHERE event_id = $1 AND level = $2)`,
		eventID, level).Scan(&exists)
	return exists, err
}

// ByBeneficiary lists commissions earned by an account, newest first.
func (r *PostgresRepository) ByBeneficiary(ctx context.Context, beneficiaryID string) ([]Commission, error) {
	rows, err := r.db.Query(ctx, `SELECT id, beneficiary_id, source_account_id, event_id, level, rate_bps, source_amount, amount, currency, status, created_at
        FROM commissions WHERE beneficiary_id = $1 ORDER BY created_at DESC`, beneficiaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Commission
	for rows.Next() {
		var (
			c         Commission
			createdAt time.Time
		)
		if err := rows.Scan(&c.ID, &c.BeneficiaryID, &c.SourceAccountID, &c.EventID, &c.Level, &c.RateBPS, &c.SourceAmount, &c.Amount, &c.Currency, &c.Status, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt = createdAt.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

type memoryRepository struct {
	mu      sync.RWMutex
	records []Commission
	byEvent map[string]bool
}

// NewMemoryRepository constructs an in-memory commission repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{byEvent: make(map[string]bool)}
}

func eventKey(eventID string, level int) string {
	return fmt.Sprintf("%s:%d", eventID, level)
}

func (r *memoryRepository) Create(_ context.Context, c Commission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := eventKey(c.EventID, c.Level)
	if r.byEvent[key] {
		return nil
	}
	r.byEvent[key] = true
	r.records = append(r.records, c)
	return nil
}

func (r *memoryRepository) Exists(_ context.Context, eventID string, level int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byEvent[eventKey(eventID, level)], nil
}

func (r *memoryRepository) ByBeneficiary(_ context.Context, beneficiaryID string) ([]Commission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Commission
	for _, c := range r.records {
		if c.BeneficiaryID == beneficiaryID {
			out = append(out, c)
		}
	}
	return out, nil
}
