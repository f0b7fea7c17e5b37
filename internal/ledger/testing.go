package ledger

// SeedBalance is a test helper that sets a sub-balance directly when using
// the in-memory ledger. It bypasses Apply and therefore writes no entry.
func SeedBalance(l Ledger, accountID, currency string, withdrawable, nonWithdrawable int64) {
	mem, ok := l.(*inMemoryLedger)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	currencies, ok := mem.balances[accountID]
	if !ok {
		currencies = make(map[string]*subBalances)
		mem.balances[accountID] = currencies
		mem.counters[accountID] = &Counters{}
	}
	currencies[currency] = &subBalances{withdrawable: withdrawable, nonWithdrawable: nonWithdrawable}
}
