package staking

import (
	"errors"
	"math/big"

	"ricks/core/events"
	nativecommon "ricks/native/common"
)

const moduleName = "staking"

var (
	errNilState      = errors.New("staking pool: state not configured")
	errNilTokens     = errors.New("staking pool: token ledgers not configured")
	ErrInvalidAmount = nativecommon.Insufficient("staking pool: amount must be positive")
	ErrNothingStaked = nativecommon.Precondition("staking pool: nothing staked")
	ErrOverflow      = nativecommon.Arithmetic("staking pool: accumulator overflow")
	ErrUnderflow     = nativecommon.Arithmetic("staking pool: total staked underflow")
)

type engineState interface {
	StakingPool() (*Pool, error)
	PutStakingPool(*Pool) error
	StakingAccount(addr [20]byte) (*Account, error)
	PutStakingAccount(addr [20]byte, account *Account) error
}

type tokenLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) error
	BalanceOf(addr [20]byte) (*big.Int, error)
}

// Engine is the reward ledger. Staked shares and deposited rewards are held
// by the pool address; the accumulator tracks reward per staked share.
type Engine struct {
	state   engineState
	shares  tokenLedger
	rewards tokenLedger
	pool    [20]byte
	emitter events.Emitter
	pauses  nativecommon.PauseView
}

// NewEngine constructs a reward ledger whose holdings live at pool.
func NewEngine(pool [20]byte) *Engine {
	return &Engine{pool: pool, emitter: events.NoopEmitter{}}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokens configures the staked token and the reward token ledgers.
func (e *Engine) SetTokens(shares, rewards tokenLedger) {
	e.shares = shares
	e.rewards = rewards
}

// SetEmitter configures the event emitter. Nil restores the no-op emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// PoolAddress returns the account holding staked shares and rewards.
func (e *Engine) PoolAddress() [20]byte { return e.pool }

func (e *Engine) ready() error {
	if e.state == nil {
		return errNilState
	}
	if e.shares == nil || e.rewards == nil {
		return errNilTokens
	}
	return nil
}

// Pool returns the normalised global pool state.
func (e *Engine) Pool() (*Pool, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool()
	if err != nil {
		return nil, err
	}
	return pool.normalize(), nil
}

// Account returns the normalised position for addr.
func (e *Engine) Account(addr [20]byte) (*Account, error) {
	if e.state == nil {
		return nil, errNilState
	}
	account, err := e.state.StakingAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.normalize(), nil
}

// settle moves rewards owed since the last settlement into Settled and resets
// the debt baseline to the current accumulator.
func settle(pool *Pool, account *Account) error {
	pending, err := owed(account.Staked, pool.AccRewardPerShare, account.RewardDebt)
	if err != nil {
		return err
	}
	account.Settled.Add(account.Settled, pending)
	account.RewardDebt = new(big.Int).Set(pool.AccRewardPerShare)
	return nil
}

// PendingRewards returns the reward addr would receive if it claimed now.
func (e *Engine) PendingRewards(addr [20]byte) (*big.Int, error) {
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	account, err := e.Account(addr)
	if err != nil {
		return nil, err
	}
	if err := settle(pool, account); err != nil {
		return nil, err
	}
	return account.Settled, nil
}

// Stake locks amount shares from addr into the pool.
func (e *Engine) Stake(addr [20]byte, amount *big.Int) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.Pool()
	if err != nil {
		return err
	}
	account, err := e.Account(addr)
	if err != nil {
		return err
	}
	if err := settle(pool, account); err != nil {
		return err
	}
	if err := e.shares.Transfer(addr, e.pool, amount); err != nil {
		return err
	}
	account.Staked.Add(account.Staked, amount)
	pool.TotalStaked.Add(pool.TotalStaked, amount)
	if err := e.state.PutStakingAccount(addr, account); err != nil {
		return err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	e.emitter.Emit(events.Staked{
		Account:     addr,
		Amount:      new(big.Int).Set(amount),
		TotalStaked: new(big.Int).Set(pool.TotalStaked),
	})
	return nil
}

func (e *Engine) payout(addr [20]byte, pool *Pool, account *Account) (*big.Int, error) {
	reward := new(big.Int).Set(account.Settled)
	if reward.Sign() == 0 {
		return reward, nil
	}
	if err := e.rewards.Transfer(e.pool, addr, reward); err != nil {
		return nil, err
	}
	account.Settled = big.NewInt(0)
	pool.TotalPaid.Add(pool.TotalPaid, reward)
	return reward, nil
}

// ClaimRewards pays settled rewards without changing the staked balance.
func (e *Engine) ClaimRewards(addr [20]byte) (*big.Int, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	pool, err := e.Pool()
	if err != nil {
		return nil, err
	}
	account, err := e.Account(addr)
	if err != nil {
		return nil, err
	}
	if err := settle(pool, account); err != nil {
		return nil, err
	}
	reward, err := e.payout(addr, pool, account)
	if err != nil {
		return nil, err
	}
	if err := e.state.PutStakingAccount(addr, account); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RewardsClaimed{Account: addr, Reward: new(big.Int).Set(reward)})
	return reward, nil
}

// Unstake returns every staked share to addr together with all settled
// rewards. The account entry is kept with a zero balance.
func (e *Engine) Unstake(addr [20]byte) (*big.Int, *big.Int, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, nil, err
	}
	if err := e.ready(); err != nil {
		return nil, nil, err
	}
	pool, err := e.Pool()
	if err != nil {
		return nil, nil, err
	}
	account, err := e.Account(addr)
	if err != nil {
		return nil, nil, err
	}
	if account.Staked.Sign() == 0 && account.Settled.Sign() == 0 {
		return nil, nil, ErrNothingStaked
	}
	if err := settle(pool, account); err != nil {
		return nil, nil, err
	}
	amount := new(big.Int).Set(account.Staked)
	if pool.TotalStaked.Cmp(amount) < 0 {
		return nil, nil, ErrUnderflow
	}
	reward, err := e.payout(addr, pool, account)
	if err != nil {
		return nil, nil, err
	}
	if amount.Sign() > 0 {
		if err := e.shares.Transfer(e.pool, addr, amount); err != nil {
			return nil, nil, err
		}
	}
	account.Staked = big.NewInt(0)
	pool.TotalStaked.Sub(pool.TotalStaked, amount)
	if err := e.state.PutStakingAccount(addr, account); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return nil, nil, err
	}
	e.emitter.Emit(events.Unstaked{
		Account:     addr,
		Amount:      amount,
		Reward:      new(big.Int).Set(reward),
		TotalStaked: new(big.Int).Set(pool.TotalStaked),
	})
	return amount, reward, nil
}

// DepositReward pulls amount reward tokens from depositor and distributes
// them across the current stake. With nothing staked the deposit is carried
// into the next distribution.
func (e *Engine) DepositReward(depositor [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	pool, err := e.Pool()
	if err != nil {
		return err
	}
	increment, carry, err := distribute(amount, pool.CarryScaled, pool.TotalStaked)
	if err != nil {
		return err
	}
	if err := e.rewards.Transfer(depositor, e.pool, amount); err != nil {
		return err
	}
	pool.AccRewardPerShare.Add(pool.AccRewardPerShare, increment)
	pool.CarryScaled = carry
	pool.TotalDeposited.Add(pool.TotalDeposited, amount)
	if err := e.state.PutStakingPool(pool); err != nil {
		return err
	}
	e.emitter.Emit(events.RewardDeposited{
		Depositor:         depositor,
		Amount:            new(big.Int).Set(amount),
		AccRewardPerShare: new(big.Int).Set(pool.AccRewardPerShare),
		Carry:             new(big.Int).Set(pool.CarryScaled),
	})
	return nil
}
