package staking

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	nativecommon "ricks/native/common"
)

type mockState struct {
	pool     *Pool
	accounts map[[20]byte]*Account
}

func newMockState() *mockState {
	return &mockState{accounts: make(map[[20]byte]*Account)}
}

func clonePool(p *Pool) *Pool {
	if p == nil {
		return nil
	}
	return (&Pool{
		TotalStaked:       p.TotalStaked,
		AccRewardPerShare: p.AccRewardPerShare,
		CarryScaled:       p.CarryScaled,
		TotalDeposited:    p.TotalDeposited,
		TotalPaid:         p.TotalPaid,
	}).normalize()
}

func (m *mockState) StakingPool() (*Pool, error) { return clonePool(m.pool), nil }

func (m *mockState) PutStakingPool(p *Pool) error {
	m.pool = clonePool(p)
	return nil
}

func (m *mockState) StakingAccount(addr [20]byte) (*Account, error) {
	acct, ok := m.accounts[addr]
	if !ok {
		return nil, nil
	}
	return (&Account{Staked: acct.Staked, RewardDebt: acct.RewardDebt, Settled: acct.Settled}).normalize(), nil
}

func (m *mockState) PutStakingAccount(addr [20]byte, a *Account) error {
	m.accounts[addr] = (&Account{Staked: a.Staked, RewardDebt: a.RewardDebt, Settled: a.Settled}).normalize()
	return nil
}

type tokenBook map[[20]byte]*big.Int

func (b tokenBook) BalanceOf(addr [20]byte) (*big.Int, error) {
	if bal, ok := b[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (b tokenBook) Transfer(from, to [20]byte, amount *big.Int) error {
	bal, _ := b.BalanceOf(from)
	if bal.Cmp(amount) < 0 {
		return errors.New("insufficient")
	}
	b[from] = bal.Sub(bal, amount)
	dst, _ := b.BalanceOf(to)
	b[to] = dst.Add(dst, amount)
	return nil
}

var (
	poolAddr  = [20]byte{0xff}
	alice     = [20]byte{0xa1}
	bob       = [20]byte{0xb0}
	depositor = [20]byte{0xde}
)

func newTestEngine(t *testing.T) (*Engine, tokenBook, tokenBook) {
	t.Helper()
	shares := tokenBook{alice: big.NewInt(1_000), bob: big.NewInt(1_000)}
	rewards := tokenBook{depositor: big.NewInt(1_000_000)}
	engine := NewEngine(poolAddr)
	engine.SetState(newMockState())
	engine.SetTokens(shares, rewards)
	return engine, shares, rewards
}

func TestRewardProportionality(t *testing.T) {
	engine, _, rewards := newTestEngine(t)
	require.NoError(t, engine.Stake(alice, big.NewInt(1)))
	require.NoError(t, engine.Stake(bob, big.NewInt(4)))
	require.NoError(t, engine.DepositReward(depositor, big.NewInt(100)))

	_, rewardA, err := engine.Unstake(alice)
	require.NoError(t, err)
	_, rewardB, err := engine.Unstake(bob)
	require.NoError(t, err)
	require.Equal(t, "20", rewardA.String())
	require.Equal(t, "80", rewardB.String())

	require.Equal(t, "20", rewards[alice].String())
	require.Equal(t, "80", rewards[bob].String())
	poolBalance, _ := rewards.BalanceOf(poolAddr)
	require.Zero(t, poolBalance.Sign())
}

func TestDepositsDoNotApplyRetroactively(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	require.NoError(t, engine.Stake(alice, big.NewInt(10)))
	require.NoError(t, engine.DepositReward(depositor, big.NewInt(100)))
	require.NoError(t, engine.Stake(bob, big.NewInt(10)))
	require.NoError(t, engine.DepositReward(depositor, big.NewInt(100)))

	pendingA, err := engine.PendingRewards(alice)
	require.NoError(t, err)
	pendingB, err := engine.PendingRewards(bob)
	require.NoError(t, err)
	require.Equal(t, "150", pendingA.String())
	require.Equal(t, "50", pendingB.String())
}

func TestRatioHoldsAcrossDeposits(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	require.NoError(t, engine.Stake(alice, big.NewInt(3)))
	require.NoError(t, engine.Stake(bob, big.NewInt(9)))
	for _, amount := range []int64{7, 120, 33, 1} {
		require.NoError(t, engine.DepositReward(depositor, big.NewInt(amount)))
	}
	pendingA, err := engine.PendingRewards(alice)
	require.NoError(t, err)
	pendingB, err := engine.PendingRewards(bob)
	require.NoError(t, err)
	require.Equal(t, "40", pendingA.String())
	require.Equal(t, "120", pendingB.String())
}

func TestZeroStakeDepositIsCarried(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	require.NoError(t, engine.DepositReward(depositor, big.NewInt(90)))
	pool, err := engine.Pool()
	require.NoError(t, err)
	require.Zero(t, pool.AccRewardPerShare.Sign())
	require.Equal(t, new(big.Int).Mul(big.NewInt(90), Scale), pool.CarryScaled)

	require.NoError(t, engine.Stake(alice, big.NewInt(4)))
	require.NoError(t, engine.DepositReward(depositor, big.NewInt(10)))
	pending, err := engine.PendingRewards(alice)
	require.NoError(t, err)
	require.Equal(t, "100", pending.String())
}

func TestRemainderIsCarried(t *testing.T) {
	engine, _, rewards := newTestEngine(t)
	require.NoError(t, engine.Stake(alice, big.NewInt(1)))
	require.NoError(t, engine.Stake(bob, big.NewInt(2)))
	require.NoError(t, engine.DepositReward(depositor, big.NewInt(1)))

	pendingA, _ := engine.PendingRewards(alice)
	pendingB, _ := engine.PendingRewards(bob)
	total := new(big.Int).Add(pendingA, pendingB)
	require.True(t, total.Cmp(big.NewInt(1)) <= 0)

	require.NoError(t, engine.DepositReward(depositor, big.NewInt(2)))
	pendingA, _ = engine.PendingRewards(alice)
	pendingB, _ = engine.PendingRewards(bob)
	require.Equal(t, "1", pendingA.String())
	require.Equal(t, "2", pendingB.String())

	poolBalance, _ := rewards.BalanceOf(poolAddr)
	require.Equal(t, "3", poolBalance.String())
}

func TestClaimKeepsStake(t *testing.T) {
	engine, shares, _ := newTestEngine(t)
	require.NoError(t, engine.Stake(alice, big.NewInt(5)))
	require.NoError(t, engine.DepositReward(depositor, big.NewInt(50)))

	reward, err := engine.ClaimRewards(alice)
	require.NoError(t, err)
	require.Equal(t, "50", reward.String())

	reward, err = engine.ClaimRewards(alice)
	require.NoError(t, err)
	require.Zero(t, reward.Sign())

	account, err := engine.Account(alice)
	require.NoError(t, err)
	require.Equal(t, "5", account.Staked.String())
	require.Equal(t, "995", shares[alice].String())
}

func TestUnstakeKeepsZeroedEntry(t *testing.T) {
	engine, shares, _ := newTestEngine(t)
	require.NoError(t, engine.Stake(alice, big.NewInt(5)))
	amount, reward, err := engine.Unstake(alice)
	require.NoError(t, err)
	require.Equal(t, "5", amount.String())
	require.Zero(t, reward.Sign())
	require.Equal(t, "1000", shares[alice].String())

	_, _, err = engine.Unstake(alice)
	require.ErrorIs(t, err, ErrNothingStaked)

	pool, err := engine.Pool()
	require.NoError(t, err)
	require.Zero(t, pool.TotalStaked.Sign())
}

func TestStakeValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	require.ErrorIs(t, engine.Stake(alice, big.NewInt(0)), ErrInvalidAmount)
	require.Error(t, engine.Stake(alice, big.NewInt(5_000)))
	require.ErrorIs(t, engine.DepositReward(depositor, nil), ErrInvalidAmount)

	engine.SetPauses(pauses{moduleName: true})
	err := engine.Stake(alice, big.NewInt(1))
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
}

type pauses map[string]bool

func (p pauses) IsPaused(module string) bool { return p[module] }
