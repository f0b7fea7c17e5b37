package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type subBalances struct {
	withdrawable    int64
	nonWithdrawable int64
}

func (b subBalances) total() int64 {
	return b.withdrawable + b.nonWithdrawable
}

type inMemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]map[string]*subBalances
	counters map[string]*Counters
	entries  map[string][]Entry
	byTxID   map[string]Entry
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and local wiring.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances: make(map[string]map[string]*subBalances),
		counters: make(map[string]*Counters),
		entries:  make(map[string][]Entry),
		byTxID:   make(map[string]Entry),
	}
}

func (l *inMemoryLedger) Register(_ context.Context, accountID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.balances[accountID]; !exists {
		l.balances[accountID] = make(map[string]*subBalances)
		l.counters[accountID] = &Counters{}
	}
	return nil
}

func (l *inMemoryLedger) Apply(_ context.Context, p Posting) (Entry, error) {
	if err := validatePosting(p); err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	currencies, ok := l.balances[p.AccountID]
	if !ok {
		return Entry{}, ErrAccountNotFound
	}

	if p.ClientTxID != "" {
		if prior, exists := l.byTxID[string(p.Kind)+":"+p.ClientTxID]; exists {
			return prior, ErrDuplicateEntry
		}
	}

	bal, ok := currencies[p.Currency]
	if !ok {
		bal = &subBalances{}
		currencies[p.Currency] = bal
	}

	if p.Kind.IsDebit() {
		if bal.withdrawable < p.Amount {
			return Entry{}, ErrInsufficientFunds
		}
		bal.withdrawable -= p.Amount
	} else if p.Withdrawable {
		bal.withdrawable += p.Amount
	} else {
		bal.nonWithdrawable += p.Amount
	}

	bumpCounters(l.counters[p.AccountID], p.Kind, p.Amount)

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

	l.entries[p.AccountID] = append(l.entries[p.AccountID], entry)
	if p.ClientTxID != "" {
		l.byTxID[string(p.Kind)+":"+p.ClientTxID] = entry
	}

	return entry, nil
}

func (l *inMemoryLedger) BalanceInfo(_ context.Context, accountID, currency string) (BalanceInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	currencies, ok := l.balances[accountID]
	if !ok {
		return BalanceInfo{}, ErrAccountNotFound
	}

	info := BalanceInfo{AccountID: accountID, Currency: currency, AsOf: time.Now().UTC()}
	if bal, ok := currencies[currency]; ok {
		info.Withdrawable = bal.withdrawable
		info.NonWithdrawable = bal.nonWithdrawable
		info.Total = bal.total()
	}
	return info, nil
}

func (l *inMemoryLedger) Counters(_ context.Context, accountID string) (Counters, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counters, ok := l.counters[accountID]
	if !ok {
		return Counters{}, ErrAccountNotFound
	}
	return *counters, nil
}

func (l *inMemoryLedger) Entries(_ context.Context, accountID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.balances[accountID]; !ok {
		return nil, ErrAccountNotFound
	}
	entries := make([]Entry, len(l.entries[accountID]))
	copy(entries, l.entries[accountID])
	return entries, nil
}

func (l *inMemoryLedger) ActiveBalances(_ context.Context) ([]AccountBalance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []AccountBalance
	for accountID, currencies := range l.balances {
		for currency, bal := range currencies {
			if total := bal.total(); total > 0 {
				out = append(out, AccountBalance{AccountID: accountID, Currency: currency, Total: total})
			}
		}
	}
	return out, nil
}
