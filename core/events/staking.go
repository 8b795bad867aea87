package events

import (
	"math/big"

	"ricks/core/types"
)

const (
	TypeStakingStaked    = "staking.staked"
	TypeStakingClaimed   = "staking.claimed"
	TypeStakingUnstaked  = "staking.unstaked"
	TypeStakingDeposited = "staking.deposited"
)

// Staked captures shares locked into the reward pool.
type Staked struct {
	Account     [20]byte
	Amount      *big.Int
	TotalStaked *big.Int
}

func (Staked) EventType() string { return TypeStakingStaked }

func (e Staked) Event() *types.Event {
	return &types.Event{Type: TypeStakingStaked, Attributes: map[string]string{
		"account":     formatAddress(e.Account),
		"amount":      formatAmount(e.Amount),
		"totalStaked": formatAmount(e.TotalStaked),
	}}
}

// RewardsClaimed captures a reward payout from the pool.
type RewardsClaimed struct {
	Account [20]byte
	Reward  *big.Int
}

func (RewardsClaimed) EventType() string { return TypeStakingClaimed }

func (e RewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeStakingClaimed, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"reward":  formatAmount(e.Reward),
	}}
}

// Unstaked captures shares returned to their owner.
type Unstaked struct {
	Account     [20]byte
	Amount      *big.Int
	Reward      *big.Int
	TotalStaked *big.Int
}

func (Unstaked) EventType() string { return TypeStakingUnstaked }

func (e Unstaked) Event() *types.Event {
	return &types.Event{Type: TypeStakingUnstaked, Attributes: map[string]string{
		"account":     formatAddress(e.Account),
		"amount":      formatAmount(e.Amount),
		"reward":      formatAmount(e.Reward),
		"totalStaked": formatAmount(e.TotalStaked),
	}}
}

// RewardDeposited captures a deposit into the reward accumulator. Carry holds
// the scaled remainder not yet folded into the accumulator.
type RewardDeposited struct {
	Depositor         [20]byte
	Amount            *big.Int
	AccRewardPerShare *big.Int
	Carry             *big.Int
}

func (RewardDeposited) EventType() string { return TypeStakingDeposited }

func (e RewardDeposited) Event() *types.Event {
	return &types.Event{Type: TypeStakingDeposited, Attributes: map[string]string{
		"depositor":         formatAddress(e.Depositor),
		"amount":            formatAmount(e.Amount),
		"accRewardPerShare": formatAmount(e.AccRewardPerShare),
		"carry":             formatAmount(e.Carry),
	}}
}
