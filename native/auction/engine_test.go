package auction

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"ricks/core/events"
	nativecommon "ricks/native/common"
)

const day = 86_400

var ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func etherTimes(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), ether) }

type mockState struct{ record *Auction }

func (m *mockState) AuctionRecord() (*Auction, error) { return m.record.Clone(), nil }

func (m *mockState) PutAuctionRecord(a *Auction) error {
	m.record = a.Clone()
	return nil
}

type mockShares struct {
	balances map[[20]byte]*big.Int
	supply   *big.Int
}

func (m *mockShares) balance(addr [20]byte) *big.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (m *mockShares) Mint(to [20]byte, amount *big.Int) error {
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	m.supply = new(big.Int).Add(m.supply, amount)
	return nil
}

func (m *mockShares) Transfer(from, to [20]byte, amount *big.Int) error {
	if m.balance(from).Cmp(amount) < 0 {
		return errors.New("insufficient")
	}
	m.balances[from] = new(big.Int).Sub(m.balance(from), amount)
	m.balances[to] = new(big.Int).Add(m.balance(to), amount)
	return nil
}

func (m *mockShares) TotalSupply() (*big.Int, error) { return new(big.Int).Set(m.supply), nil }

type mockSink struct {
	wrapped   *big.Int
	deposited *big.Int
	prices    []*big.Int
	failWrap  bool
}

func (m *mockSink) Wrap(_ [20]byte, amount *big.Int) (*big.Int, error) {
	if m.failWrap {
		return nil, nativecommon.TransferFailed("wrap failed")
	}
	m.wrapped.Add(m.wrapped, amount)
	return new(big.Int).Set(m.wrapped), nil
}

func (m *mockSink) DepositReward(_ [20]byte, amount *big.Int) error {
	m.deposited.Add(m.deposited, amount)
	return nil
}

func (m *mockSink) Record(price *big.Int, _ uint64) error {
	m.prices = append(m.prices, new(big.Int).Set(price))
	return nil
}

type staticBuyout bool

func (s staticBuyout) BoughtOut() (bool, error) { return bool(s), nil }

type captureEmitter struct{ events []events.Event }

func (c *captureEmitter) Emit(evt events.Event) { c.events = append(c.events, evt) }

var (
	curator  = [20]byte{0xc0}
	alice    = [20]byte{0xa1}
	bob      = [20]byte{0xb0}
	escrow   = [20]byte{0xe5}
	treasury = [20]byte{0x7e}
)

type harness struct {
	engine  *Engine
	state   *mockState
	shares  *mockShares
	sink    *mockSink
	emitter *captureEmitter
	now     int64
}

func newHarness(t *testing.T, supply *big.Int) *harness {
	t.Helper()
	h := &harness{
		state:   &mockState{},
		shares:  &mockShares{balances: map[[20]byte]*big.Int{curator: new(big.Int).Set(supply)}, supply: new(big.Int).Set(supply)},
		sink:    &mockSink{wrapped: big.NewInt(0), deposited: big.NewInt(0)},
		emitter: &captureEmitter{},
	}
	h.engine = NewEngine(escrow, treasury, DefaultParams())
	h.engine.SetState(h.state)
	h.engine.SetCollaborators(h.shares, h.sink, h.sink, h.sink)
	h.engine.SetEmitter(h.emitter)
	h.engine.SetNowFunc(func() int64 { return h.now })
	require.NoError(t, h.engine.Activate())
	return h
}

func TestStartRequiresActivation(t *testing.T) {
	engine := NewEngine(escrow, treasury, DefaultParams())
	engine.SetState(&mockState{})
	engine.SetCollaborators(&mockShares{balances: map[[20]byte]*big.Int{}, supply: big.NewInt(0)}, &mockSink{}, &mockSink{}, &mockSink{})
	_, err := engine.Start(alice, big.NewInt(1))
	require.ErrorIs(t, err, ErrNotActivated)

	require.NoError(t, engine.Activate())
	require.ErrorIs(t, engine.Activate(), ErrAlreadyActivated)
}

func TestCooldownInvariant(t *testing.T) {
	h := newHarness(t, big.NewInt(100))

	for _, ts := range []int64{0, 1, day / 2, day - 1} {
		h.now = ts
		_, err := h.engine.Start(alice, big.NewInt(100))
		require.ErrorIs(t, err, ErrCooldown)
		require.ErrorIs(t, err, nativecommon.ErrPreconditionViolation)
	}

	h.now = day
	started, err := h.engine.Start(alice, big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, StateActive, started.State)
	require.Equal(t, "5", started.TokenAmount.String())
	require.Equal(t, uint64(day+4*3_600), started.EndTime)
	require.Equal(t, "5", h.shares.balance(escrow).String())

	_, err = h.engine.Start(bob, big.NewInt(200))
	require.ErrorIs(t, err, ErrAuctionActive)
}

func TestMonotonicBidding(t *testing.T) {
	h := newHarness(t, big.NewInt(100))
	h.now = day
	_, err := h.engine.Start(alice, big.NewInt(100))
	require.NoError(t, err)

	next, err := h.engine.MinNextBid()
	require.NoError(t, err)
	require.Equal(t, "105", next.String())

	_, err = h.engine.Bid(bob, big.NewInt(104))
	require.ErrorIs(t, err, ErrBidTooLow)
	require.ErrorIs(t, err, nativecommon.ErrInsufficientValue)
	current, err := h.engine.Current()
	require.NoError(t, err)
	require.Equal(t, alice, current.HighestBidder)

	refund, err := h.engine.Bid(bob, big.NewInt(105))
	require.NoError(t, err)
	require.Equal(t, alice, refund.Recipient)
	require.Equal(t, "100", refund.Amount.String())

	refund, err = h.engine.Bid(alice, big.NewInt(1_000))
	require.NoError(t, err)
	require.Equal(t, bob, refund.Recipient)
	require.Equal(t, "105", refund.Amount.String())

	h.now = day + 4*3_600
	_, err = h.engine.Bid(bob, big.NewInt(5_000))
	require.ErrorIs(t, err, ErrAuctionEnded)
}

func TestMinNextBidRounding(t *testing.T) {
	engine := NewEngine(escrow, treasury, DefaultParams())
	require.Equal(t, "2", engine.minNextBid(big.NewInt(1)).String())
	require.Equal(t, "1050", engine.minNextBid(big.NewInt(1_000)).String())
	require.Equal(t, "1052", engine.minNextBid(big.NewInt(1_001)).String())
}

func TestEndRoutesProceeds(t *testing.T) {
	h := newHarness(t, big.NewInt(100))
	h.now = day
	_, err := h.engine.Start(alice, big.NewInt(100))
	require.NoError(t, err)

	settleable, err := h.engine.IsSettleable()
	require.NoError(t, err)
	require.False(t, settleable)
	_, err = h.engine.End()
	require.ErrorIs(t, err, ErrAuctionNotEnded)

	h.now = day + 4*3_600
	settleable, err = h.engine.IsSettleable()
	require.NoError(t, err)
	require.True(t, settleable)

	settlement, err := h.engine.End()
	require.NoError(t, err)
	require.Equal(t, alice, settlement.Winner)
	require.Equal(t, "20", settlement.PricePerShare.String())
	require.Equal(t, "100", h.sink.wrapped.String())
	require.Equal(t, "100", h.sink.deposited.String())
	require.Equal(t, "5", h.shares.balance(alice).String())
	require.Zero(t, h.shares.balance(escrow).Sign())
	require.Len(t, h.sink.prices, 1)

	current, err := h.engine.Current()
	require.NoError(t, err)
	require.Equal(t, StateInactive, current.State)
	require.Equal(t, uint64(day+4*3_600), current.LastSettled)

	_, err = h.engine.End()
	require.ErrorIs(t, err, ErrNotActive)

	h.now += day - 1
	_, err = h.engine.Start(bob, big.NewInt(1))
	require.ErrorIs(t, err, ErrCooldown)

	last := h.emitter.events[len(h.emitter.events)-1]
	require.Equal(t, events.TypeAuctionSettled, last.EventType())
}

func TestInflationCompounds(t *testing.T) {
	h := newHarness(t, etherTimes(1_000))

	h.now = day
	first, err := h.engine.Start(alice, ether)
	require.NoError(t, err)
	require.Equal(t, etherTimes(50), first.TokenAmount)
	h.now += 4 * 3_600
	_, err = h.engine.End()
	require.NoError(t, err)

	h.now += day
	second, err := h.engine.Start(alice, ether)
	require.NoError(t, err)
	expected := new(big.Int).Quo(new(big.Int).Mul(etherTimes(1_050), big.NewInt(50)), big.NewInt(1_000))
	require.Equal(t, expected, second.TokenAmount)
	require.Equal(t, "52500000000000000000", second.TokenAmount.String())
}

func TestInflationScalesWithElapsedTime(t *testing.T) {
	h := newHarness(t, big.NewInt(1_000))
	h.now = 2 * day
	amount, err := h.engine.NextMintAmount()
	require.NoError(t, err)
	require.Equal(t, "100", amount.String())
}

func TestStartRejectedAfterBuyout(t *testing.T) {
	h := newHarness(t, big.NewInt(100))
	h.engine.SetBuyoutView(staticBuyout(true))
	h.now = day
	_, err := h.engine.Start(alice, big.NewInt(100))
	require.ErrorIs(t, err, ErrBoughtOut)
}

func TestStartEnforcesReserveAndPause(t *testing.T) {
	h := newHarness(t, big.NewInt(100))
	h.now = day
	_, err := h.engine.Start(alice, big.NewInt(0))
	require.ErrorIs(t, err, ErrBidTooLow)

	h.engine.SetPauses(pauses{moduleName: true})
	_, err = h.engine.Start(alice, big.NewInt(100))
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
}

func TestZeroMintRejected(t *testing.T) {
	h := newHarness(t, big.NewInt(10))
	h.now = day
	_, err := h.engine.Start(alice, big.NewInt(100))
	require.ErrorIs(t, err, ErrZeroMint)
	require.ErrorIs(t, err, nativecommon.ErrArithmeticViolation)
}

type pauses map[string]bool

func (p pauses) IsPaused(module string) bool { return p[module] }
