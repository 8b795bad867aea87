package state

import (
	"math/big"

	"ricks/native/auction"
	"ricks/native/buyout"
	"ricks/native/custody"
	"ricks/native/pricing"
	"ricks/native/staking"
)

// AuctionRecord returns the stored auction or nil before activation.
func (m *Manager) AuctionRecord() (*auction.Auction, error) {
	record := new(auction.Auction)
	ok, err := m.KVGet(auctionRecordKey, record)
	if err != nil || !ok {
		return nil, err
	}
	return record, nil
}

func (m *Manager) PutAuctionRecord(record *auction.Auction) error {
	return m.KVPut(auctionRecordKey, record)
}

// PriceHistory returns the stored price window or nil when nothing has been
// recorded.
func (m *Manager) PriceHistory() (*pricing.History, error) {
	history := new(pricing.History)
	ok, err := m.KVGet(priceHistoryKey, history)
	if err != nil || !ok {
		return nil, err
	}
	return history, nil
}

func (m *Manager) PutPriceHistory(history *pricing.History) error {
	return m.KVPut(priceHistoryKey, history)
}

func (m *Manager) StakingPool() (*staking.Pool, error) {
	pool := new(staking.Pool)
	ok, err := m.KVGet(stakingPoolKey, pool)
	if err != nil || !ok {
		return nil, err
	}
	return pool, nil
}

func (m *Manager) PutStakingPool(pool *staking.Pool) error {
	return m.KVPut(stakingPoolKey, pool)
}

func (m *Manager) StakingAccount(addr [20]byte) (*staking.Account, error) {
	account := new(staking.Account)
	ok, err := m.KVGet(prefixed(stakingAccountPrefix, addr[:]), account)
	if err != nil || !ok {
		return nil, err
	}
	return account, nil
}

// PutStakingAccount persists the position. Entries are kept after unstaking
// with zeroed balances.
func (m *Manager) PutStakingAccount(addr [20]byte, account *staking.Account) error {
	if account == nil {
		account = &staking.Account{Staked: big.NewInt(0), RewardDebt: big.NewInt(0), Settled: big.NewInt(0)}
	}
	return m.KVPut(prefixed(stakingAccountPrefix, addr[:]), account)
}

// BuyoutRecord returns the terminal buyout record or nil.
func (m *Manager) BuyoutRecord() (*buyout.Record, error) {
	record := new(buyout.Record)
	ok, err := m.KVGet(buyoutRecordKey, record)
	if err != nil || !ok {
		return nil, err
	}
	return record, nil
}

func (m *Manager) PutBuyoutRecord(record *buyout.Record) error {
	return m.KVPut(buyoutRecordKey, record)
}

func (m *Manager) CustodyRecord() (*custody.Record, error) {
	record := new(custody.Record)
	ok, err := m.KVGet(custodyRecordKey, record)
	if err != nil || !ok {
		return nil, err
	}
	return record, nil
}

func (m *Manager) PutCustodyRecord(record *custody.Record) error {
	return m.KVPut(custodyRecordKey, record)
}
