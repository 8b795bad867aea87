package staking

import "math/big"

// Scale is the fixed-point factor applied to the reward accumulator.
var Scale = big.NewInt(1_000_000_000_000_000_000)

// Pool is the global reward ledger state. CarryScaled holds reward not yet
// reflected in the accumulator, in accumulator units (reward × Scale). It
// absorbs deposits made while nothing is staked as well as the division
// remainder of every deposit.
type Pool struct {
	TotalStaked       *big.Int
	AccRewardPerShare *big.Int
	CarryScaled       *big.Int
	TotalDeposited    *big.Int
	TotalPaid         *big.Int
}

// Account is a staker's position. RewardDebt is the accumulator value at the
// last settlement and Settled holds rewards earned but not yet paid.
type Account struct {
	Staked     *big.Int
	RewardDebt *big.Int
	Settled    *big.Int
}

func (p *Pool) normalize() *Pool {
	if p == nil {
		p = &Pool{}
	}
	p.TotalStaked = orZero(p.TotalStaked)
	p.AccRewardPerShare = orZero(p.AccRewardPerShare)
	p.CarryScaled = orZero(p.CarryScaled)
	p.TotalDeposited = orZero(p.TotalDeposited)
	p.TotalPaid = orZero(p.TotalPaid)
	return p
}

func (a *Account) normalize() *Account {
	if a == nil {
		a = &Account{}
	}
	a.Staked = orZero(a.Staked)
	a.RewardDebt = orZero(a.RewardDebt)
	a.Settled = orZero(a.Settled)
	return a
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
