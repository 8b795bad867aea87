package buyout

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"ricks/native/auction"
	nativecommon "ricks/native/common"
	"ricks/native/pricing"
)

type mockState struct{ record *Record }

func (m *mockState) BuyoutRecord() (*Record, error) { return m.record.Clone(), nil }

func (m *mockState) PutBuyoutRecord(r *Record) error {
	m.record = r.Clone()
	return nil
}

type book map[[20]byte]*big.Int

func (b book) get(addr [20]byte) *big.Int {
	if bal, ok := b[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

func (b book) total() *big.Int {
	sum := new(big.Int)
	for _, bal := range b {
		sum.Add(sum, bal)
	}
	return sum
}

type mockShares struct{ book }

func (m mockShares) BalanceOf(addr [20]byte) (*big.Int, error) { return m.get(addr), nil }

func (m mockShares) TotalSupply() (*big.Int, error) { return m.total(), nil }

func (m mockShares) Burn(from [20]byte, amount *big.Int) error {
	bal := m.get(from)
	if bal.Cmp(amount) < 0 {
		return errors.New("insufficient")
	}
	m.book[from] = bal.Sub(bal, amount)
	return nil
}

type mockWeth struct{ book }

func (m mockWeth) Wrap(to [20]byte, amount *big.Int) (*big.Int, error) {
	m.book[to] = new(big.Int).Add(m.get(to), amount)
	return m.get(to), nil
}

func (m mockWeth) Transfer(from, to [20]byte, amount *big.Int) error {
	bal := m.get(from)
	if bal.Cmp(amount) < 0 {
		return errors.New("insufficient")
	}
	m.book[from] = bal.Sub(bal, amount)
	m.book[to] = new(big.Int).Add(m.get(to), amount)
	return nil
}

type auctionStub struct{ state auction.State }

func (a *auctionStub) Current() (*auction.Auction, error) {
	return &auction.Auction{State: a.state}, nil
}

type custodyStub struct {
	holder   [20]byte
	released bool
}

func (c *custodyStub) Release(assetID string, newOwner [20]byte) error {
	if c.released {
		return errors.New("already released")
	}
	c.holder = newOwner
	c.released = true
	return nil
}

var (
	ether    = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	alice    = [20]byte{0xa1}
	bob      = [20]byte{0xb0}
	carol    = [20]byte{0xca}
	treasury = [20]byte{0x7e}
)

type harness struct {
	controller *Controller
	shares     book
	weth       book
	history    *pricing.History
	auction    *auctionStub
	custody    *custodyStub
}

func newHarness(t *testing.T, holdings map[[20]byte]int64, prices ...int64) *harness {
	t.Helper()
	history, err := pricing.NewHistory(pricing.DefaultWindow)
	require.NoError(t, err)
	for _, p := range prices {
		require.NoError(t, history.Record(new(big.Int).Mul(big.NewInt(p), ether)))
	}
	h := &harness{
		shares:  book{},
		weth:    book{},
		history: history,
		auction: &auctionStub{state: auction.StateInactive},
		custody: &custodyStub{},
	}
	for addr, amount := range holdings {
		h.shares[addr] = big.NewInt(amount)
	}
	h.controller = NewController("punk-1", treasury, DefaultParams())
	h.controller.SetState(&mockState{})
	h.controller.SetCollaborators(mockShares{h.shares}, mockWeth{h.weth}, h.history, h.auction, h.custody)
	return h
}

func TestQuoteRequiresFullHistory(t *testing.T) {
	h := newHarness(t, map[[20]byte]int64{alice: 100}, 1, 2, 3, 4)
	_, err := h.controller.Quote(alice)
	require.ErrorIs(t, err, pricing.ErrInsufficientHistory)
	require.ErrorIs(t, err, nativecommon.ErrPreconditionViolation)
}

func TestQuoteRejectsActiveAuction(t *testing.T) {
	h := newHarness(t, map[[20]byte]int64{alice: 100}, 1, 2, 3, 4, 5)
	h.auction.state = auction.StateActive
	_, err := h.controller.Quote(alice)
	require.ErrorIs(t, err, ErrAuctionActive)

	h.auction.state = auction.StateEmpty
	_, err = h.controller.Quote(alice)
	require.ErrorIs(t, err, ErrNotActivated)
}

func TestBuyoutFreeWhenBuyerOwnsEverything(t *testing.T) {
	h := newHarness(t, map[[20]byte]int64{alice: 100}, 1, 2, 3, 4, 5)

	record, err := h.controller.Execute(alice, big.NewInt(0))
	require.NoError(t, err)
	require.Zero(t, record.Cost.Sign())
	require.Zero(t, record.OutstandingSupply.Sign())
	require.True(t, h.custody.released)
	require.Equal(t, alice, h.custody.holder)
	require.Zero(t, h.shares.total().Sign())

	done, err := h.controller.BoughtOut()
	require.NoError(t, err)
	require.True(t, done)

	_, err = h.controller.Execute(alice, big.NewInt(0))
	require.ErrorIs(t, err, ErrBoughtOut)
}

func TestPremiumFallsWithOwnedShares(t *testing.T) {
	fresh := newHarness(t, map[[20]byte]int64{alice: 0, carol: 110}, 1, 2, 3, 4, 5)
	owner := newHarness(t, map[[20]byte]int64{alice: 10, carol: 100}, 1, 2, 3, 4, 5)

	freshQuote, err := fresh.controller.Quote(alice)
	require.NoError(t, err)
	ownerQuote, err := owner.controller.Quote(alice)
	require.NoError(t, err)

	require.Equal(t, new(big.Int).Mul(big.NewInt(3), ether), freshQuote.AveragePrice)
	require.Equal(t, uint64(15_000), freshQuote.PremiumBps)
	require.Equal(t, "4500000000000000000", freshQuote.PricePerShare.String())
	require.True(t, ownerQuote.PricePerShare.Cmp(freshQuote.PricePerShare) < 0)
	require.True(t, ownerQuote.Cost.Cmp(freshQuote.Cost) < 0)
}

func TestParamsRequireFallingPremium(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	require.Error(t, Params{MaxPremiumBps: 12_000, MinPremiumBps: 12_000}.Validate())
	require.Error(t, Params{MaxPremiumBps: 11_000, MinPremiumBps: 12_000}.Validate())
	require.Error(t, Params{MaxPremiumBps: 15_000, MinPremiumBps: 10_000}.Validate())
}

func TestExecuteChargesExactCost(t *testing.T) {
	h := newHarness(t, map[[20]byte]int64{alice: 10, bob: 40, carol: 50}, 1, 2, 3, 4, 5)
	quote, err := h.controller.Quote(alice)
	require.NoError(t, err)

	short := new(big.Int).Sub(quote.Cost, big.NewInt(1))
	_, err = h.controller.Execute(alice, short)
	require.ErrorIs(t, err, ErrInsufficientPayment)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientValue)
	require.False(t, h.custody.released)

	surplus := new(big.Int).Add(quote.Cost, ether)
	record, err := h.controller.Execute(alice, surplus)
	require.NoError(t, err)
	require.Equal(t, quote.Cost, record.Cost)
	require.Equal(t, quote.Cost, h.weth.get(treasury))
	require.Equal(t, "90", record.OutstandingSupply.String())
	require.Zero(t, h.shares.get(alice).Sign())

	price, err := h.controller.FinalPricePerShare()
	require.NoError(t, err)
	require.Equal(t, quote.PricePerShare, price)
}

func TestRedemptionExactness(t *testing.T) {
	h := newHarness(t, map[[20]byte]int64{alice: 10, bob: 40, carol: 50}, 1, 2, 3, 4, 5)

	_, err := h.controller.Redeem(bob)
	require.ErrorIs(t, err, ErrNotBoughtOut)

	record, err := h.controller.Execute(alice, new(big.Int).Mul(big.NewInt(1_000), ether))
	require.NoError(t, err)

	payout, err := h.controller.Redeem(bob)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(big.NewInt(40), record.PricePerShare), payout)
	require.Equal(t, payout, h.weth.get(bob))
	require.Zero(t, h.shares.get(bob).Sign())

	_, err = h.controller.Redeem(bob)
	require.ErrorIs(t, err, ErrNothingToRedeem)

	_, err = h.controller.Redeem(carol)
	require.NoError(t, err)
	require.Zero(t, h.weth.get(treasury).Sign())
}
