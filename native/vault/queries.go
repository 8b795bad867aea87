package vault

import (
	"math/big"

	"ricks/native/auction"
	"ricks/native/bank"
	"ricks/native/buyout"
	"ricks/native/pricing"
	"ricks/native/staking"
)

// Auction returns a snapshot of the auction record.
func (v *Vault) Auction() (*auction.Auction, error) {
	var current *auction.Auction
	err := v.read(func() error {
		var err error
		current, err = v.auction.Current()
		return err
	})
	return current, err
}

// IsSettleable reports whether EndAuction would succeed on timing.
func (v *Vault) IsSettleable() (bool, error) {
	var ok bool
	err := v.read(func() error {
		var err error
		ok, err = v.auction.IsSettleable()
		return err
	})
	return ok, err
}

// TokenAmountForAuction returns the shares sold by the running or most recently
// settled auction.
func (v *Vault) TokenAmountForAuction() (*big.Int, error) {
	var amount *big.Int
	err := v.read(func() error {
		var err error
		amount, err = v.auction.TokenAmount()
		return err
	})
	return amount, err
}

// NextMintAmount returns the shares an auction started now would mint.
func (v *Vault) NextMintAmount() (*big.Int, error) {
	var amount *big.Int
	err := v.read(func() error {
		var err error
		amount, err = v.auction.NextMintAmount()
		return err
	})
	return amount, err
}

// MinNextBid returns the smallest acceptable bid for the running auction.
func (v *Vault) MinNextBid() (*big.Int, error) {
	var amount *big.Int
	err := v.read(func() error {
		var err error
		amount, err = v.auction.MinNextBid()
		return err
	})
	return amount, err
}

// AveragePrice fails until the price window is full.
func (v *Vault) AveragePrice() (*big.Int, error) {
	var avg *big.Int
	err := v.read(func() error {
		var err error
		avg, err = v.prices.Average()
		return err
	})
	return avg, err
}

// PriceHistory returns the recorded window, oldest first, and the number of
// auctions settled so far.
func (v *Vault) PriceHistory() ([]*big.Int, uint64, error) {
	var history *pricing.History
	err := v.read(func() error {
		var err error
		history, err = v.prices.History()
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return history.Values(), history.Settled, nil
}

// AuctionsSettled returns the number of settled auctions.
func (v *Vault) AuctionsSettled() (uint64, error) {
	var settled uint64
	err := v.read(func() error {
		var err error
		settled, err = v.prices.Settled()
		return err
	})
	return settled, err
}

// BuyoutRecord returns the buyout, or nil before one executed.
func (v *Vault) BuyoutRecord() (*buyout.Record, error) {
	var record *buyout.Record
	err := v.read(func() error {
		var err error
		record, err = v.buyout.Record()
		return err
	})
	return record, err
}

// FinalBuyoutPricePerToken returns the redemption price, zero before buyout.
func (v *Vault) FinalBuyoutPricePerToken() (*big.Int, error) {
	var price *big.Int
	err := v.read(func() error {
		var err error
		price, err = v.buyout.FinalPricePerShare()
		return err
	})
	return price, err
}

// Balances summarises one account across every ledger.
type Balances struct {
	Native         *big.Int
	Shares         *big.Int
	Weth           *big.Int
	Staked         *big.Int
	PendingRewards *big.Int
	Withdrawable   *big.Int
}

// Balances returns the holdings of addr.
func (v *Vault) Balances(addr [20]byte) (*Balances, error) {
	out := new(Balances)
	err := v.read(func() error {
		var err error
		if out.Native, err = v.state.TokenBalance(bank.NativeSymbol, addr); err != nil {
			return err
		}
		if out.Shares, err = v.shares.BalanceOf(addr); err != nil {
			return err
		}
		if out.Weth, err = v.weth.BalanceOf(addr); err != nil {
			return err
		}
		account, err := v.staking.Account(addr)
		if err != nil {
			return err
		}
		out.Staked = account.Staked
		if out.PendingRewards, err = v.staking.PendingRewards(addr); err != nil {
			return err
		}
		out.Withdrawable, err = v.state.Withdrawable(addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ShareSupply returns the total share supply.
func (v *Vault) ShareSupply() (*big.Int, error) {
	var supply *big.Int
	err := v.read(func() error {
		var err error
		supply, err = v.shares.TotalSupply()
		return err
	})
	return supply, err
}

// StakingPool returns the reward pool totals.
func (v *Vault) StakingPool() (*staking.Pool, error) {
	var pool *staking.Pool
	err := v.read(func() error {
		var err error
		pool, err = v.staking.Pool()
		return err
	})
	return pool, err
}

// Withdrawable returns the deferred payouts owed to addr.
func (v *Vault) Withdrawable(addr [20]byte) (*big.Int, error) {
	var amount *big.Int
	err := v.read(func() error {
		var err error
		amount, err = v.state.Withdrawable(addr)
		return err
	})
	return amount, err
}

// Paused reports whether module is paused.
func (v *Vault) Paused(module string) bool {
	var paused bool
	_ = v.read(func() error {
		paused = v.state.IsPaused(module)
		return nil
	})
	return paused
}
