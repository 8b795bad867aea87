package state

import (
	"fmt"
	"math/big"
	"strings"
)

func normalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return "", fmt.Errorf("token symbol required")
	}
	return normalized, nil
}

func (m *Manager) loadAmount(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) storeAmount(key []byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return m.KVDelete(key)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative amount for %s", key)
	}
	return m.KVPut(key, amount)
}

// TokenBalance returns the balance of symbol held by addr. Missing entries
// default to zero.
func (m *Manager) TokenBalance(symbol string, addr [20]byte) (*big.Int, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return m.loadAmount(prefixed(tokenBalancePrefix, []byte(normalized), addr[:]))
}

// SetTokenBalance overwrites the balance of symbol held by addr.
func (m *Manager) SetTokenBalance(symbol string, addr [20]byte, amount *big.Int) error {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return m.storeAmount(prefixed(tokenBalancePrefix, []byte(normalized), addr[:]), amount)
}

// TokenSupply returns the persisted total supply for the provided token.
// Missing entries default to zero.
func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return m.loadAmount(prefixed(tokenSupplyPrefix, []byte(normalized)))
}

// SetTokenSupply overwrites the stored total supply for the token.
func (m *Manager) SetTokenSupply(symbol string, amount *big.Int) error {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return m.storeAmount(prefixed(tokenSupplyPrefix, []byte(normalized)), amount)
}
