package deposit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound occurs when a deposit id cannot be resolved.
var ErrNotFound = errors.New("deposit not found")

// Repository persists deposit requests.
type Repository interface {
	Create(ctx context.Context, d Deposit) error
	Get(ctx context.Context, id string) (Deposit, error)
	// MarkCompleted transitions a pending deposit; completing an already
	// completed deposit is a no-op reporting false.
	MarkCompleted(ctx context.Context, id string, at time.Time) (bool, error)
	// HasCompleted reports whether the account has any completed deposit.
	HasCompleted(ctx context.Context, accountID string) (bool, error)
}

// PostgresRepository stores deposits in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed deposit repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, d Deposit) error {
	_, err := r.db.Exec(ctx, `INSERT INTO deposits (id, account_id, currency, amount, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.AccountID, d.Currency, d.Amount, d.Status, d.CreatedAt.UTC())
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Deposit, error) {
	row := r.db.QueryRow(ctx, `SELECT id, account_id, currency, amount, status, created_at, COALESCE(confirmed_at, 'epoch'::timestamptz)
        FROM deposits WHERE id = $1`, id)
	var (
		d           Deposit
		createdAt   time.Time
		confirmedAt time.Time
	)
	if err := row.Scan(&d.ID, &d.AccountID, &d.Currency, &d.Amount, &d.Status, &createdAt, &confirmedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deposit{}, ErrNotFound
		}
		return Deposit{}, err
	}
	d.CreatedAt = createdAt.UTC()
	if confirmedAt.Unix() > 0 {
		d.ConfirmedAt = confirmedAt.UTC()
	}
	return d, nil
}

func (r *PostgresRepository) MarkCompleted(ctx context.Context, id string, at time.Time) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE deposits SET status = $2, confirmed_at = $3
        WHERE id = $1 AND status = $4`, id, StatusCompleted, at.UTC(), StatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PostgresRepository) HasCompleted(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM deposits WHERE account_id = $1 AND status = $2)`,
		accountID, StatusCompleted).Scan(&exists)
	return exists, err
}

type memoryRepository struct {
	mu   sync.RWMutex
	byID map[string]Deposit
}

// NewMemoryRepository constructs an in-memory deposit repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Deposit)}
}

func (r *memoryRepository) Create(_ context.Context, d Deposit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[d.ID]; exists {
		return errors.New("deposit exists")
	}
	r.byID[d.ID] = d
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Deposit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	if !ok {
		return Deposit{}, ErrNotFound
	}
	return d, nil
}

func (r *memoryRepository) MarkCompleted(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if d.Status != StatusPending {
		return false, nil
	}
	d.Status = StatusCompleted
	d.ConfirmedAt = at.UTC()
	r.byID[id] = d
	return true, nil
}

func (r *memoryRepository) HasCompleted(_ context.Context, accountID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.byID {
		if d.AccountID == accountID && d.Status == StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}
