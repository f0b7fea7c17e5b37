package withdrawal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound occurs when a withdrawal id cannot be resolved.
	ErrNotFound = errors.New("withdrawal not found")

	// ErrPendingExists occurs when an account already has a pending
	// withdrawal. A partial unique index enforces this in Postgres.
	ErrPendingExists = errors.New("pending withdrawal exists")
)

// Repository persists withdrawal requests.
type Repository interface {
	// Create inserts a pending withdrawal; it fails with ErrPendingExists if
	// the account already has one.
	Create(ctx context.Context, w Withdrawal) error
	Get(ctx context.Context, id string) (Withdrawal, error)
	HasPending(ctx context.Context, accountID string) (bool, error)
	// Resolve transitions a pending withdrawal to a terminal status; it
	// fails with ErrNotFound if the withdrawal is absent or already resolved.
	Resolve(ctx context.Context, id, status string, at time.Time) error
	ByAccount(ctx context.Context, accountID string) ([]Withdrawal, error)
}

// PostgresRepository stores withdrawals in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed withdrawal repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, w Withdrawal) error {
	_, err := r.db.Exec(ctx, `INSERT INTO withdrawals (id, account_id, currency, amount, fee, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.AccountID, w.Currency, w.Amount, w.Fee, w.Status, w.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: the one-pending-per-account partial unique index fired.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPendingExists
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Withdrawal, error) {
	row := r.db.QueryRow(ctx, `SELECT id, account_id, currency, amount, fee, status, created_at, COALESCE(resolved_at, 'epoch'::timestamptz)
        FROM withdrawals WHERE id = $1`, id)
	var (
		w          Withdrawal
		createdAt  time.Time
		resolvedAt time.Time
	)
	if err := row.Scan(&w.ID, &w.AccountID, &w.Currency, &w.Amount, &w.Fee, &w.Status, &createdAt, &resolvedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Withdrawal{}, ErrNotFound
		}
		return Withdrawal{}, err
	}
	w.CreatedAt = createdAt.UTC()
	if resolvedAt.Unix() > 0 {
		w.ResolvedAt = resolvedAt.UTC()
	}
	return w, nil
}

func (r *PostgresRepository) HasPending(ctx context.Context, accountID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM withdrawals WHERE account_id = $1 AND status = $2)`,
		accountID, StatusPending).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) Resolve(ctx context.Context, id, status string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE withdrawals SET status = $2, resolved_at = $3
        WHERE id = $1 AND status = $4`, id, status, at.UTC(), StatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ByAccount(ctx context.Context, accountID string) ([]Withdrawal, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, currency, amount, fee, status, created_at, COALESCE(resolved_at, 'epoch'::timestamptz)
        FROM withdrawals WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Withdrawal
	for rows.Next() {
		var (
			w          Withdrawal
			createdAt  time.Time
			resolvedAt time.Time
		)
		if err := rows.Scan(&w.ID, &w.AccountID, &w.Currency, &w.Amount, &w.Fee, &w.Status, &createdAt, &resolvedAt); err != nil {
			return nil, err
		}
		w.CreatedAt = createdAt.UTC()
		if resolvedAt.Unix() > 0 {
			w.ResolvedAt = resolvedAt.UTC()
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Withdrawal
	pending map[string]string
}

// NewMemoryRepository constructs an in-memory withdrawal repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]Withdrawal),
		pending: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, w Withdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pending[w.AccountID]; exists {
		return ErrPendingExists
	}
	r.byID[w.ID] = w
	if w.Status == StatusPending {
		r.pending[w.AccountID] = w.ID
	}
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byID[id]
	if !ok {
		return Withdrawal{}, ErrNotFound
	}
	return w, nil
}

func (r *memoryRepository) HasPending(_ context.Context, accountID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.pending[accountID]
	return exists, nil
}

func (r *memoryRepository) Resolve(_ context.Context, id, status string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[id]
	if !ok || w.Status != StatusPending {
		return ErrNotFound
	}
	w.Status = status
	w.ResolvedAt = at.UTC()
	r.byID[id] = w
	delete(r.pending, w.AccountID)
	return nil
}

func (r *memoryRepository) ByAccount(_ context.Context, accountID string) ([]Withdrawal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Withdrawal
	for _, w := range r.byID {
		if w.AccountID == accountID {
			out = append(out, w)
		}
	}
	return out, nil
}
