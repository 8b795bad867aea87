package state

import (
	"fmt"
	"math/big"
)

// Withdrawable returns the amount credited to addr after a failed outbound
// payment.
func (m *Manager) Withdrawable(addr [20]byte) (*big.Int, error) {
	return m.loadAmount(prefixed(withdrawablePrefix, addr[:]))
}

// CreditWithdrawable adds amount to the withdrawable balance of addr and
// returns the new balance.
func (m *Manager) CreditWithdrawable(addr [20]byte, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("withdraw: credit must be positive")
	}
	key := prefixed(withdrawablePrefix, addr[:])
	balance, err := m.loadAmount(key)
	if err != nil {
		return nil, err
	}
	balance.Add(balance, amount)
	if err := m.storeAmount(key, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// TakeWithdrawable zeroes the withdrawable balance of addr and returns what
// it held.
func (m *Manager) TakeWithdrawable(addr [20]byte) (*big.Int, error) {
	key := prefixed(withdrawablePrefix, addr[:])
	balance, err := m.loadAmount(key)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return balance, nil
	}
	if err := m.KVDelete(key); err != nil {
		return nil, err
	}
	return balance, nil
}
