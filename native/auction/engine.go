package auction

import (
	"errors"
	"math/big"

	"ricks/core/events"
	nativecommon "ricks/native/common"
)

const moduleName = "auction"

var (
	errNilState        = errors.New("auction engine: state not configured")
	errNilCollaborator = errors.New("auction engine: collaborators not configured")

	ErrNotActivated     = nativecommon.Precondition("auction engine: vault not activated")
	ErrAlreadyActivated = nativecommon.Precondition("auction engine: vault already activated")
	ErrBoughtOut        = nativecommon.Precondition("auction engine: buyout completed")
	ErrCooldown         = nativecommon.Precondition("auction engine: cannot start auction yet")
	ErrAuctionActive    = nativecommon.Precondition("auction engine: auction already active")
	ErrNotActive        = nativecommon.Precondition("auction engine: auction not active")
	ErrAuctionEnded     = nativecommon.Precondition("auction engine: auction ended")
	ErrAuctionNotEnded  = nativecommon.Precondition("auction engine: auction not over yet")
	ErrBidTooLow        = nativecommon.Insufficient("auction engine: bid too low")
	ErrZeroMint         = nativecommon.Arithmetic("auction engine: inflation mint is zero")
	ErrZeroSupply       = nativecommon.Arithmetic("auction engine: share supply is zero")
	ErrClockRegression  = nativecommon.Arithmetic("auction engine: clock moved backwards")
)

var basisPoints = big.NewInt(10_000)

type engineState interface {
	AuctionRecord() (*Auction, error)
	PutAuctionRecord(*Auction) error
}

type shareLedger interface {
	Mint(to [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int) error
	TotalSupply() (*big.Int, error)
}

type paymentWrapper interface {
	Wrap(to [20]byte, amount *big.Int) (*big.Int, error)
}

type rewardSink interface {
	DepositReward(depositor [20]byte, amount *big.Int) error
}

type priceRecorder interface {
	Record(price *big.Int, settledAt uint64) error
}

// BuyoutView reports whether the vault has been bought out.
type BuyoutView interface {
	BoughtOut() (bool, error)
}

// Engine drives one auction at a time. Minted shares wait in escrow until
// settlement; bid value is held by treasury and wrapped there on settlement.
type Engine struct {
	state    engineState
	params   Params
	escrow   [20]byte
	treasury [20]byte
	shares   shareLedger
	wrapper  paymentWrapper
	rewards  rewardSink
	prices   priceRecorder
	buyout   BuyoutView
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	nowFn    func() int64
}

// NewEngine constructs an auction engine with the supplied parameters.
func NewEngine(escrow, treasury [20]byte, params Params) *Engine {
	if params.ReservePrice == nil {
		params.ReservePrice = big.NewInt(1)
	}
	return &Engine{
		params:   params,
		escrow:   escrow,
		treasury: treasury,
		emitter:  events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetCollaborators wires the share ledger, the payment wrapper, the reward
// pool and the price history.
func (e *Engine) SetCollaborators(shares shareLedger, wrapper paymentWrapper, rewards rewardSink, prices priceRecorder) {
	e.shares = shares
	e.wrapper = wrapper
	e.rewards = rewards
	e.prices = prices
}

// SetBuyoutView wires the terminal buyout check.
func (e *Engine) SetBuyoutView(view BuyoutView) { e.buyout = view }

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

// SetNowFunc overrides the clock used by the engine.
func (e *Engine) SetNowFunc(now func() int64) { e.nowFn = now }

// Params returns the configured parameters.
func (e *Engine) Params() Params {
	params := e.params
	params.ReservePrice = copyInt(e.params.ReservePrice)
	return params
}

// Escrow returns the account holding shares minted for the running auction.
func (e *Engine) Escrow() [20]byte { return e.escrow }

func (e *Engine) now() uint64 {
	if e.nowFn == nil {
		return 0
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) ready() error {
	if e.state == nil {
		return errNilState
	}
	if e.shares == nil || e.wrapper == nil || e.rewards == nil || e.prices == nil {
		return errNilCollaborator
	}
	return nil
}

// Current returns the auction record, or an Empty record before activation.
func (e *Engine) Current() (*Auction, error) {
	if e.state == nil {
		return nil, errNilState
	}
	record, err := e.state.AuctionRecord()
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &Auction{TokenAmount: big.NewInt(0), HighestBid: big.NewInt(0)}, nil
	}
	record = record.Clone()
	return record, nil
}

// Activate moves the vault from Empty to Inactive and starts the first
// cooldown.
func (e *Engine) Activate() error {
	current, err := e.Current()
	if err != nil {
		return err
	}
	if current.State != StateEmpty {
		return ErrAlreadyActivated
	}
	current.State = StateInactive
	current.LastSettled = e.now()
	return e.state.PutAuctionRecord(current)
}

func (e *Engine) boughtOut() (bool, error) {
	if e.buyout == nil {
		return false, nil
	}
	return e.buyout.BoughtOut()
}

// TokenAmount returns the shares sold by the running auction, or by the last
// settled one while Inactive. It is zero before the first auction.
func (e *Engine) TokenAmount() (*big.Int, error) {
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	return copyInt(current.TokenAmount), nil
}

// NextMintAmount projects the shares an auction started now would mint:
// supply × rate × elapsed / (1000 × period), elapsed counted from the last
// settlement. It is only meaningful while no auction is running.
func (e *Engine) NextMintAmount() (*big.Int, error) {
	if e.shares == nil {
		return nil, errNilCollaborator
	}
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	return e.mintAmount(current, e.now())
}

func (e *Engine) mintAmount(current *Auction, now uint64) (*big.Int, error) {
	if now < current.LastSettled {
		return nil, ErrClockRegression
	}
	supply, err := e.shares.TotalSupply()
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return nil, ErrZeroSupply
	}
	elapsed := new(big.Int).SetUint64(now - current.LastSettled)
	amount := new(big.Int).Mul(supply, new(big.Int).SetUint64(e.params.InflationRate))
	amount.Mul(amount, elapsed)
	denominator := new(big.Int).Mul(big.NewInt(1_000), new(big.Int).SetUint64(e.params.InflationPeriod))
	return amount.Quo(amount, denominator), nil
}

// MinNextBid returns the lowest amount that would be accepted as the next bid.
func (e *Engine) MinNextBid() (*big.Int, error) {
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	if current.State != StateActive {
		return copyInt(e.params.ReservePrice), nil
	}
	return e.minNextBid(current.HighestBid), nil
}

// minNextBid is ceil(highest × (10000 + bps) / 10000), and always strictly
// above highest.
func (e *Engine) minNextBid(highest *big.Int) *big.Int {
	factor := new(big.Int).Add(basisPoints, new(big.Int).SetUint64(e.params.MinIncrementBps))
	threshold := new(big.Int).Mul(highest, factor)
	threshold.Add(threshold, new(big.Int).Sub(basisPoints, big.NewInt(1)))
	threshold.Quo(threshold, basisPoints)
	floor := new(big.Int).Add(highest, big.NewInt(1))
	if threshold.Cmp(floor) < 0 {
		return floor
	}
	return threshold
}

// Start opens a new auction with bidder's opening bid. The inflation mint is
// credited to escrow.
func (e *Engine) Start(bidder [20]byte, amount *big.Int) (*Auction, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	done, err := e.boughtOut()
	if err != nil {
		return nil, err
	}
	if done {
		return nil, ErrBoughtOut
	}
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	switch current.State {
	case StateEmpty:
		return nil, ErrNotActivated
	case StateActive:
		return nil, ErrAuctionActive
	}
	now := e.now()
	if now < current.LastSettled+e.params.Cooldown {
		return nil, ErrCooldown
	}
	if amount == nil || amount.Cmp(e.params.ReservePrice) < 0 {
		return nil, ErrBidTooLow
	}
	tokenAmount, err := e.mintAmount(current, now)
	if err != nil {
		return nil, err
	}
	if tokenAmount.Sign() == 0 {
		return nil, ErrZeroMint
	}
	if err := e.shares.Mint(e.escrow, tokenAmount); err != nil {
		return nil, err
	}
	current.State = StateActive
	current.Round++
	current.EndTime = now + e.params.Duration
	current.TokenAmount = tokenAmount
	current.HighestBid = new(big.Int).Set(amount)
	current.HighestBidder = bidder
	if err := e.state.PutAuctionRecord(current); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AuctionStarted{
		Round:       current.Round,
		Bidder:      bidder,
		Bid:         new(big.Int).Set(amount),
		TokenAmount: new(big.Int).Set(tokenAmount),
		EndTime:     current.EndTime,
	})
	return current.Clone(), nil
}

// Bid replaces the highest bid. The returned refund is owed to the previous
// highest bidder and must be paid by the caller once state is committed.
func (e *Engine) Bid(bidder [20]byte, amount *big.Int) (*Refund, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	if current.State != StateActive {
		return nil, ErrNotActive
	}
	if e.now() >= current.EndTime {
		return nil, ErrAuctionEnded
	}
	if amount == nil || amount.Cmp(e.minNextBid(current.HighestBid)) < 0 {
		return nil, ErrBidTooLow
	}
	refund := &Refund{Recipient: current.HighestBidder, Amount: new(big.Int).Set(current.HighestBid)}
	current.HighestBid = new(big.Int).Set(amount)
	current.HighestBidder = bidder
	if err := e.state.PutAuctionRecord(current); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.AuctionBid{
		Round:          current.Round,
		Bidder:         bidder,
		Amount:         new(big.Int).Set(amount),
		PreviousBidder: refund.Recipient,
		PreviousBid:    new(big.Int).Set(refund.Amount),
	})
	return refund, nil
}

// IsSettleable reports whether End would currently succeed on timing.
func (e *Engine) IsSettleable() (bool, error) {
	current, err := e.Current()
	if err != nil {
		return false, err
	}
	return current.State == StateActive && e.now() >= current.EndTime, nil
}

// End settles an expired auction: proceeds are wrapped and deposited into the
// reward pool, escrowed shares go to the winner and the per-share price is
// recorded.
func (e *Engine) End() (*Settlement, error) {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	current, err := e.Current()
	if err != nil {
		return nil, err
	}
	if current.State != StateActive {
		return nil, ErrNotActive
	}
	now := e.now()
	if now < current.EndTime {
		return nil, ErrAuctionNotEnded
	}
	if current.TokenAmount.Sign() == 0 {
		return nil, ErrZeroMint
	}
	current.State = StateFinalized
	proceeds := new(big.Int).Set(current.HighestBid)
	if _, err := e.wrapper.Wrap(e.treasury, proceeds); err != nil {
		return nil, err
	}
	if err := e.rewards.DepositReward(e.treasury, proceeds); err != nil {
		return nil, err
	}
	if err := e.shares.Transfer(e.escrow, current.HighestBidder, current.TokenAmount); err != nil {
		return nil, err
	}
	price := new(big.Int).Quo(proceeds, current.TokenAmount)
	if err := e.prices.Record(price, now); err != nil {
		return nil, err
	}
	current.State = StateInactive
	current.LastSettled = now
	if err := e.state.PutAuctionRecord(current); err != nil {
		return nil, err
	}
	settlement := &Settlement{
		Round:         current.Round,
		Winner:        current.HighestBidder,
		Proceeds:      proceeds,
		TokenAmount:   new(big.Int).Set(current.TokenAmount),
		PricePerShare: price,
		SettledAt:     now,
	}
	e.emitter.Emit(events.AuctionSettled{
		Round:         settlement.Round,
		Winner:        settlement.Winner,
		Proceeds:      new(big.Int).Set(proceeds),
		TokenAmount:   new(big.Int).Set(settlement.TokenAmount),
		PricePerShare: new(big.Int).Set(price),
		SettledAt:     now,
	})
	return settlement, nil
}
