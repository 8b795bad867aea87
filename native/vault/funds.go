package vault

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"ricks/core/events"
)

// Wrap converts caller's native value into WETH.
func (v *Vault) Wrap(ctx context.Context, caller [20]byte, amount *big.Int) error {
	return v.execute(ctx, "wrap", caller, func() (*big.Int, []payout, error) {
		if err := validAmount(amount); err != nil {
			return nil, nil, err
		}
		if isVaultAccount(caller) {
			return nil, nil, errReservedRecipient
		}
		if _, err := v.weth.Wrap(caller, amount); err != nil {
			return nil, nil, err
		}
		return amount, nil, nil
	})
}

// UnwrapWeth burns amount of caller's WETH and pays the native value back.
func (v *Vault) UnwrapWeth(ctx context.Context, caller [20]byte, amount *big.Int) error {
	return v.execute(ctx, "unwrap", caller, func() (*big.Int, []payout, error) {
		if err := v.weth.Unwrap(caller, amount); err != nil {
			return nil, nil, err
		}
		return nil, []payout{{to: caller, amount: new(big.Int).Set(amount), reason: reasonUnwrap}}, nil
	})
}

// Withdraw pays out caller's withdrawable balance. A failed payment is
// credited back.
func (v *Vault) Withdraw(ctx context.Context, caller [20]byte) (*big.Int, error) {
	var amount *big.Int
	err := v.execute(ctx, "withdraw", caller, func() (*big.Int, []payout, error) {
		balance, err := v.state.TakeWithdrawable(caller)
		if err != nil {
			return nil, nil, err
		}
		if balance.Sign() == 0 {
			return nil, nil, ErrNothingToWithdraw
		}
		amount = balance
		return nil, []payout{{to: caller, amount: new(big.Int).Set(balance), reason: reasonWithdraw}}, nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// TransferShares moves shares between holders.
func (v *Vault) TransferShares(ctx context.Context, caller, to [20]byte, amount *big.Int) error {
	return v.execute(ctx, "transfer_shares", caller, func() (*big.Int, []payout, error) {
		if isVaultAccount(to) {
			return nil, nil, errReservedRecipient
		}
		return nil, nil, v.shares.Transfer(caller, to, amount)
	})
}

// SetPaused toggles an operator pause on module.
func (v *Vault) SetPaused(ctx context.Context, module string, paused bool) error {
	module = strings.ToLower(strings.TrimSpace(module))
	switch module {
	case ModuleAuction, ModuleStaking, ModuleBuyout:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return v.execute(ctx, "set_paused", [20]byte{}, func() (*big.Int, []payout, error) {
		if err := v.state.SetPaused(module, paused); err != nil {
			return nil, nil, err
		}
		v.buffer.Emit(events.ModulePaused{Module: module, Paused: paused})
		v.logger.WarnContext(ctx, "module pause toggled", "op", "set_paused", "reason", module, "paused", paused)
		return nil, nil, nil
	})
}

// Faucet credits native value to addr. Intended for development networks and
// genesis allocations.
func (v *Vault) Faucet(ctx context.Context, to [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	if isVaultAccount(to) {
		return errReservedRecipient
	}
	if err := v.ledger.Credit(to, amount); err != nil {
		return err
	}
	v.logger.InfoContext(ctx, "faucet credit", "op", "faucet", "addr", addr(to), "amount", amount.String())
	return nil
}
