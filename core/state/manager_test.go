package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"ricks/native/auction"
	"ricks/native/buyout"
	"ricks/native/custody"
	"ricks/native/pricing"
	"ricks/native/staking"
	"ricks/storage"
)

func newTestManager(t *testing.T) (*Manager, storage.Database) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewManager(db), db
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	mgr, db := newTestManager(t)
	key := []byte("example")

	require.NoError(t, mgr.KVPut(key, uint64(7)))
	require.Equal(t, 1, mgr.Pending())

	var out uint64
	ok, err := mgr.KVGet(key, &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), out)

	_, err = db.Get(kvKey(key))
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, mgr.Commit())
	require.Zero(t, mgr.Pending())
	_, err = db.Get(kvKey(key))
	require.NoError(t, err)

	require.NoError(t, mgr.KVPut(key, uint64(9)))
	require.NoError(t, mgr.KVDelete([]byte("missing")))
	mgr.Discard()
	ok, err = mgr.KVGet(key, &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), out)

	require.NoError(t, mgr.KVDelete(key))
	ok, err = mgr.KVGet(key, nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mgr.Commit())

	fresh := NewManager(db)
	ok, err = fresh.KVGet(key, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVRejectsEmptyKey(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.Error(t, mgr.KVPut(nil, uint64(1)))
	_, err := mgr.KVGet(nil, nil)
	require.Error(t, err)
}

func TestTokenBalancesAndSupply(t *testing.T) {
	mgr, _ := newTestManager(t)
	holder := [20]byte{1}

	balance, err := mgr.TokenBalance("weth", holder)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	require.NoError(t, mgr.SetTokenBalance("weth", holder, big.NewInt(12)))
	require.NoError(t, mgr.SetTokenSupply(" WETH ", big.NewInt(12)))

	balance, err = mgr.TokenBalance("WETH", holder)
	require.NoError(t, err)
	require.Equal(t, "12", balance.String())
	supply, err := mgr.TokenSupply("weth")
	require.NoError(t, err)
	require.Equal(t, "12", supply.String())

	other, err := mgr.TokenBalance("RICKS", holder)
	require.NoError(t, err)
	require.Zero(t, other.Sign())

	require.Error(t, mgr.SetTokenBalance("weth", holder, big.NewInt(-1)))
	_, err = mgr.TokenSupply("")
	require.Error(t, err)
}

func TestWithdrawableLedger(t *testing.T) {
	mgr, _ := newTestManager(t)
	addr := [20]byte{2}

	total, err := mgr.CreditWithdrawable(addr, big.NewInt(5))
	require.NoError(t, err)
	require.Equal(t, "5", total.String())
	total, err = mgr.CreditWithdrawable(addr, big.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, "8", total.String())

	taken, err := mgr.TakeWithdrawable(addr)
	require.NoError(t, err)
	require.Equal(t, "8", taken.String())
	remaining, err := mgr.Withdrawable(addr)
	require.NoError(t, err)
	require.Zero(t, remaining.Sign())

	_, err = mgr.CreditWithdrawable(addr, big.NewInt(0))
	require.Error(t, err)
}

func TestPauses(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.False(t, mgr.IsPaused("auction"))
	require.NoError(t, mgr.SetPaused("Auction", true))
	require.True(t, mgr.IsPaused("auction"))
	require.NoError(t, mgr.SetPaused("auction", false))
	require.False(t, mgr.IsPaused("auction"))
}

func TestNativeRecordsRoundTrip(t *testing.T) {
	mgr, db := newTestManager(t)

	record, err := mgr.AuctionRecord()
	require.NoError(t, err)
	require.Nil(t, record)

	require.NoError(t, mgr.PutAuctionRecord(&auction.Auction{
		State:         auction.StateActive,
		Round:         3,
		EndTime:       100,
		TokenAmount:   big.NewInt(5),
		HighestBid:    big.NewInt(900),
		HighestBidder: [20]byte{9},
		LastSettled:   40,
	}))

	history, err := pricing.NewHistory(2)
	require.NoError(t, err)
	require.NoError(t, history.Record(big.NewInt(11)))
	require.NoError(t, mgr.PutPriceHistory(history))

	require.NoError(t, mgr.PutStakingPool(&staking.Pool{
		TotalStaked:       big.NewInt(10),
		AccRewardPerShare: big.NewInt(20),
		CarryScaled:       big.NewInt(1),
		TotalDeposited:    big.NewInt(30),
		TotalPaid:         big.NewInt(0),
	}))
	require.NoError(t, mgr.PutStakingAccount([20]byte{4}, nil))
	require.NoError(t, mgr.PutBuyoutRecord(&buyout.Record{
		Buyer:             [20]byte{5},
		PricePerShare:     big.NewInt(6),
		OutstandingSupply: big.NewInt(7),
		Cost:              big.NewInt(42),
		PremiumBps:        12_000,
	}))
	require.NoError(t, mgr.PutCustodyRecord(&custody.Record{AssetID: "punk-1", Status: custody.StatusLocked}))
	require.NoError(t, mgr.Commit())

	reloaded := NewManager(db)
	gotAuction, err := reloaded.AuctionRecord()
	require.NoError(t, err)
	require.Equal(t, auction.StateActive, gotAuction.State)
	require.Equal(t, uint64(3), gotAuction.Round)
	require.Equal(t, "900", gotAuction.HighestBid.String())
	require.Equal(t, [20]byte{9}, gotAuction.HighestBidder)

	gotHistory, err := reloaded.PriceHistory()
	require.NoError(t, err)
	require.Equal(t, uint64(1), gotHistory.Settled)
	require.Equal(t, uint64(2), gotHistory.Window)

	pool, err := reloaded.StakingPool()
	require.NoError(t, err)
	require.Equal(t, "20", pool.AccRewardPerShare.String())

	account, err := reloaded.StakingAccount([20]byte{4})
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Zero(t, account.Staked.Sign())

	missing, err := reloaded.StakingAccount([20]byte{8})
	require.NoError(t, err)
	require.Nil(t, missing)

	gotBuyout, err := reloaded.BuyoutRecord()
	require.NoError(t, err)
	require.Equal(t, "42", gotBuyout.Cost.String())
	require.Equal(t, uint64(12_000), gotBuyout.PremiumBps)

	gotCustody, err := reloaded.CustodyRecord()
	require.NoError(t, err)
	require.Equal(t, "punk-1", gotCustody.AssetID)
	require.Equal(t, custody.StatusLocked, gotCustody.Status)
}

func TestEnsureStateVersion(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, EnsureStateVersion(mgr, false))
	version, ok, err := mgr.StateVersion()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateVersion, version)

	require.NoError(t, mgr.SetStateVersion(StateVersion+1))
	require.NoError(t, mgr.Commit())
	require.ErrorIs(t, EnsureStateVersion(mgr, false), ErrStateVersionMismatch)
	require.NoError(t, EnsureStateVersion(mgr, true))
}
