package account

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]Account
	byCode map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[string]Account),
		byCode: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, acct Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[acct.ID]; exists {
		return errors.New("account exists")
	}
	if _, exists := r.byCode[acct.ReferralCode]; exists {
		return errors.New("referral code taken")
	}
	r.byID[acct.ID] = acct
	r.byCode[acct.ReferralCode] = acct.ID
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *memoryRepository) FindByReferralCode(_ context.Context, code string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) UpdateTier(_ context.Context, id string, tier int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	acct.Tier = tier
	r.byID[id] = acct
	return nil
}
