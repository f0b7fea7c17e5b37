package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultApplyRetries = 3

// PostgresLedger persists balances, counters and the append-only entry log
// in PostgreSQL. Single-account linearizability comes from locking the
// account row (SELECT ... FOR UPDATE) for the duration of each Apply
// transaction; serialization failures are retried a bounded number of times
// before surfacing ErrConflict.
type PostgresLedger struct {
	db         *pgxpool.Pool
	maxRetries int
}

// NewPostgresLedger constructs a Postgres-backed ledger. maxRetries bounds
// the internal conflict retries; values below 1 fall back to the default.
func NewPostgresLedger(db *pgxpool.Pool, maxRetries int) *PostgresLedger {
	if maxRetries < 1 {
		maxRetries = defaultApplyRetries
	}
	return &PostgresLedger{db: db, maxRetries: maxRetries}
}

// Register verifies the account row exists; balance rows are created lazily
// on first posting per currency.
func (l *PostgresLedger) Register(ctx context.Context, accountID string) error {
	var exists bool
	err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAccountNotFound
	}
	return nil
}

// Apply posts one mutation inside a single transaction.
func (l *PostgresLedger) Apply(ctx context.Context, p Posting) (Entry, error) {
	if err := validatePosting(p); err != nil {
		return Entry{}, err
	}

	var (
		entry Entry
		err   error
	)
	for attempt := 0; attempt < l.maxRetries; attempt++ {
		entry, err = l.applyOnce(ctx, p)
		if err == nil || !isSerializationFailure(err) {
			return entry, err
		}
	}
	if isSerializationFailure(err) {
		return Entry{}, ErrConflict
	}
	return entry, err
}

func (l *PostgresLedger) applyOnce(ctx context.Context, p Posting) (Entry, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// Lock the account row so concurrent postings to the same account
	// serialize instead of interleaving partial writes.
	var accountID string
	if err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, p.AccountID).Scan(&accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrAccountNotFound
		}
		return Entry{}, err
	}

	if p.ClientTxID != "" {
		prior, err := entryByClientTx(ctx, tx, p.Kind, p.ClientTxID)
		if err == nil {
			return prior, ErrDuplicateEntry
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, err
		}
	}

	if _, err := tx.Exec(ctx, `INSERT INTO account_balances (account_id, currency, withdrawable, non_withdrawable)
        VALUES ($1, $2, 0, 0) ON CONFLICT (account_id, currency) DO NOTHING`, p.AccountID, p.Currency); err != nil {
		return Entry{}, err
	}

	var withdrawable, nonWithdrawable int64
	if err := tx.QueryRow(ctx, `SELECT withdrawable, non_withdrawable FROM account_balances
        WHERE account_id = $1 AND currency = $2 FOR UPDATE`, p.AccountID, p.Currency).Scan(&withdrawable, &nonWithdrawable); err != nil {
		return Entry{}, err
	}

	if p.Kind.IsDebit() {
		if withdrawable < p.Amount {
			return Entry{}, ErrInsufficientFunds
		}
		withdrawable -= p.Amount
	} else if p.Withdrawable {
		withdrawable += p.Amount
	} else {
		nonWithdrawable += p.Amount
	}

	if _, err := tx.Exec(ctx, `UPDATE account_balances SET withdrawable = $3, non_withdrawable = $4
        WHERE account_id = $1 AND currency = $2`, p.AccountID, p.Currency, withdrawable, nonWithdrawable); err != nil {
		return Entry{}, err
	}

	if column := counterColumn(p.Kind); column != "" {
		if _, err := tx.Exec(ctx, `UPDATE accounts SET `+column+` = `+column+` + $2 WHERE id = $1`, p.AccountID, p.Amount); err != nil {
			return Entry{}, err
		}
	}

	entry := Entry{
		ID:           uuid.NewString(),
		AccountID:    p.AccountID,
		Currency:     p.Currency,
		Amount:       signedAmount(p),
		Kind:         p.Kind,
		Withdrawable: p.Withdrawable || p.Kind.IsDebit(),
		ClientTxID:   p.ClientTxID,
		Reference:    p.Reference,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := tx.Exec(ctx, `INSERT INTO ledger_entries (id, account_id, currency, amount, kind, withdrawable, client_tx_id, reference, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.AccountID, entry.Currency, entry.Amount, string(entry.Kind), entry.Withdrawable, entry.ClientTxID, entry.Reference, entry.CreatedAt); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// BalanceInfo returns the cached balance projection for one currency.
func (l *PostgresLedger) BalanceInfo(ctx context.Context, accountID, currency string) (BalanceInfo, error) {
	if err := l.Register(ctx, accountID); err != nil {
		return BalanceInfo{}, err
	}

	info := BalanceInfo{AccountID: accountID, Currency: currency, AsOf: time.Now().UTC()}
	err := l.db.QueryRow(ctx, `SELECT withdrawable, non_withdrawable FROM account_balances
        WHERE account_id = $1 AND currency = $2`, accountID, currency).Scan(&info.Withdrawable, &info.NonWithdrawable)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return BalanceInfo{}, err
	}
	info.Total = info.Withdrawable + info.NonWithdrawable
	return info, nil
}

// Counters returns the lifetime totals stored on the account row.
func (l *PostgresLedger) Counters(ctx context.Context, accountID string) (Counters, error) {
	var c Counters
	err := l.db.QueryRow(ctx, `SELECT total_deposited, total_withdrawn, total_profit, total_referral_earnings
        FROM accounts WHERE id = $1`, accountID).Scan(&c.TotalDeposited, &c.TotalWithdrawn, &c.TotalProfit, &c.TotalReferralEarnings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Counters{}, ErrAccountNotFound
		}
		return Counters{}, err
	}
	return c, nil
}

// Entries lists the append-only mutation log for an account, oldest first.
func (l *PostgresLedger) Entries(ctx context.Context, accountID string) ([]Entry, error) {
	rows, err := l.db.Query(ctx, `SELECT id, account_id, currency, amount, kind, withdrawable, client_tx_id, reference, created_at
        FROM ledger_entries WHERE account_id = $1 ORDER BY created_at`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			kind string
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Currency, &e.Amount, &kind, &e.Withdrawable, &e.ClientTxID, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ActiveBalances lists every positive (account, currency) balance.
func (l *PostgresLedger) ActiveBalances(ctx context.Context) ([]AccountBalance, error) {
	rows, err := l.db.Query(ctx, `SELECT account_id, currency, withdrawable + non_withdrawable
        FROM account_balances WHERE withdrawable + non_withdrawable > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Currency, &b.Total); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func entryByClientTx(ctx context.Context, tx pgx.Tx, kind Kind, clientTxID string) (Entry, error) {
	var (
		e       Entry
		kindVal string
	)
	err := tx.QueryRow(ctx, `SELECT id, account_id, currency, amount, kind, withdrawable, client_tx_id, reference, created_at
        FROM ledger_entries WHERE kind = $1 AND client_tx_id = $2`, string(kind), clientTxID).
		Scan(&e.ID, &e.AccountID, &e.Currency, &e.Amount, &kindVal, &e.Withdrawable, &e.ClientTxID, &e.Reference, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Kind = Kind(kindVal)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func counterColumn(kind Kind) string {
	switch kind {
	case KindDeposit:
		return "total_deposited"
	case KindWithdrawal:
		return "total_withdrawn"
	case KindInterest:
		return "total_profit"
	case KindCommission:
		return "total_referral_earnings"
	default:
		return ""
	}
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
