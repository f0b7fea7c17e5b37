package interest

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PeriodLayout formats accrual periods as calendar days.
const PeriodLayout = "2006-01-02"

// PeriodForTime returns the accrual period containing t.
func PeriodForTime(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// Record marks that interest was applied to one (account, currency) pair for
// one accrual period. Its existence makes reruns of the period no-ops.
type Record struct {
	ID        string
	AccountID string
	Currency  string
	Period    string
	RateBPS   int64
	Amount    int64
	CreatedAt time.Time
}

// Repository persists interest records.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	Exists(ctx context.Context, accountID, currency, period string) (bool, error)
	ByAccount(ctx context.Context, accountID string) ([]Record, error)
}

// PostgresRepository stores interest records in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed interest record repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a record; replays of the same (account, currency, period)
// are absorbed by the unique index.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	_, err := r.db.Exec(ctx, `INSERT INTO interest_records (id, account_id, currency, period, rate_bps, amount, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (account_id, currency, period) DO NOTHING`,
		rec.ID, rec.AccountID, rec.Currency, rec.Period, rec.RateBPS, rec.Amount, rec.CreatedAt.UTC())
	return err
}

// Exists reports whether the period was already accrued for the pair.
func (r *PostgresRepository) Exists(ctx context.Context, accountID, currency, period string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM interest_records
        WHERE account_id = $1 AND currency = $2 AND period = $3)`, accountID, currency, period).Scan(&exists)
	return exists, err
}

// ByAccount lists the accrual history of an account, newest first.
func (r *PostgresRepository) ByAccount(ctx context.Context, accountID string) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, currency, period, rate_bps, amount, created_at
        FROM interest_records WHERE account_id = $1 ORDER BY period DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			createdAt time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.Currency, &rec.Period, &rec.RateBPS, &rec.Amount, &createdAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = createdAt.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

type memoryRepository struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]bool
}

// NewMemoryRepository constructs an in-memory interest record repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{index: make(map[string]bool)}
}

func recordKey(accountID, currency, period string) string {
	return accountID + "|" + currency + "|" + period
}

func (r *memoryRepository) Create(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey(rec.AccountID, rec.Currency, rec.Period)
	if r.index[key] {
		return nil
	}
	r.index[key] = true
	r.records = append(r.records, rec)
	return nil
}

func (r *memoryRepository) Exists(_ context.Context, accountID, currency, period string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index[recordKey(accountID, currency, period)], nil
}

func (r *memoryRepository) ByAccount(_ context.Context, accountID string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	return out, nil
}
