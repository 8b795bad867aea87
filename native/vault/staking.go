package vault

import (
	"context"
	"math/big"
)

func (v *Vault) Stake(ctx context.Context, caller [20]byte, amount *big.Int) error {
	return v.execute(ctx, "stake", caller, func() (*big.Int, []payout, error) {
		if isVaultAccount(caller) {
			return nil, nil, errReservedRecipient
		}
		if err := v.staking.Stake(caller, amount); err != nil {
			return nil, nil, err
		}
		v.logger.InfoContext(ctx, "shares staked", "op", "stake", "caller", addr(caller), "amount", amount.String())
		return nil, nil, nil
	})
}

// Unstake returns every staked share and the settled reward.
func (v *Vault) Unstake(ctx context.Context, caller [20]byte) (*big.Int, *big.Int, error) {
	var amount, reward *big.Int
	err := v.execute(ctx, "unstake", caller, func() (*big.Int, []payout, error) {
		var err error
		amount, reward, err = v.staking.Unstake(caller)
		if err != nil {
			return nil, nil, err
		}
		v.logger.InfoContext(ctx, "shares unstaked", "op", "unstake", "caller", addr(caller),
			"amount", amount.String(), "reward", reward.String())
		return nil, nil, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return amount, reward, nil
}

// ClaimRewards pays settled WETH rewards and keeps the stake in place.
func (v *Vault) ClaimRewards(ctx context.Context, caller [20]byte) (*big.Int, error) {
	var reward *big.Int
	err := v.execute(ctx, "claim", caller, func() (*big.Int, []payout, error) {
		var err error
		reward, err = v.staking.ClaimRewards(caller)
		return nil, nil, err
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// DepositReward moves amount of caller's WETH into the reward pool.
func (v *Vault) DepositReward(ctx context.Context, caller [20]byte, amount *big.Int) error {
	return v.execute(ctx, "deposit_reward", caller, func() (*big.Int, []payout, error) {
		if err := v.staking.DepositReward(caller, amount); err != nil {
			return nil, nil, err
		}
		v.metrics.RecordRewardDeposit(amount)
		v.logger.InfoContext(ctx, "reward deposited", "op", "deposit_reward", "caller", addr(caller), "amount", amount.String())
		return nil, nil, nil
	})
}
