package vault

import (
	"context"
	"math/big"

	"ricks/native/buyout"
)

// Buyout acquires every outstanding share for caller, spending at most
// maxPayment of caller's native balance. Exactly the quoted cost is
// collected.
func (v *Vault) Buyout(ctx context.Context, caller [20]byte, maxPayment *big.Int) (*buyout.Record, error) {
	var record *buyout.Record
	err := v.execute(ctx, "buyout", caller, func() (*big.Int, []payout, error) {
		if isVaultAccount(caller) {
			return nil, nil, errReservedRecipient
		}
		result, err := v.buyout.Execute(caller, maxPayment)
		if err != nil {
			return nil, nil, err
		}
		record = result
		v.logger.InfoContext(ctx, "buyout executed", "op", "buyout", "caller", addr(caller),
			"amount", result.Cost.String())
		return result.Cost, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Redeem burns caller's shares for WETH at the final buyout price and returns
// the WETH paid.
func (v *Vault) Redeem(ctx context.Context, caller [20]byte) (*big.Int, error) {
	var paid *big.Int
	err := v.execute(ctx, "redeem", caller, func() (*big.Int, []payout, error) {
		amount, err := v.buyout.Redeem(caller)
		if err != nil {
			return nil, nil, err
		}
		paid = amount
		v.logger.InfoContext(ctx, "shares redeemed", "op", "redeem", "caller", addr(caller), "amount", amount.String())
		return nil, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// QuoteBuyout prices a buyout for caller without executing it.
func (v *Vault) QuoteBuyout(caller [20]byte) (*buyout.Quote, error) {
	var quote *buyout.Quote
	err := v.read(func() error {
		var err error
		quote, err = v.buyout.Quote(caller)
		return err
	})
	return quote, err
}
