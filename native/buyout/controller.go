package buyout

import (
	"errors"
	"math/big"
	"strings"

	"ricks/core/events"
	"ricks/native/auction"
	nativecommon "ricks/native/common"
)

const moduleName = "buyout"

var (
	errNilState        = errors.New("buyout controller: state not configured")
	errNilCollaborator = errors.New("buyout controller: collaborators not configured")

	ErrBoughtOut           = nativecommon.Precondition("buyout controller: buyout already executed")
	ErrNotBoughtOut        = nativecommon.Precondition("buyout controller: buyout has not occurred")
	ErrAuctionActive       = nativecommon.Precondition("buyout controller: auction in progress")
	ErrNotActivated        = nativecommon.Precondition("buyout controller: vault not activated")
	ErrInsufficientPayment = nativecommon.Insufficient("buyout controller: not enough to complete buyout")
	ErrNothingToRedeem     = nativecommon.Precondition("buyout controller: nothing to redeem")
	ErrZeroSupply          = nativecommon.Arithmetic("buyout controller: share supply is zero")
)

var basisPoints = big.NewInt(10_000)

type engineState interface {
	BuyoutRecord() (*Record, error)
	PutBuyoutRecord(*Record) error
}

type shareLedger interface {
	BalanceOf(addr [20]byte) (*big.Int, error)
	TotalSupply() (*big.Int, error)
	Burn(from [20]byte, amount *big.Int) error
}

type paymentToken interface {
	Wrap(to [20]byte, amount *big.Int) (*big.Int, error)
	Transfer(from, to [20]byte, amount *big.Int) error
}

type priceSource interface {
	Average() (*big.Int, error)
}

type auctionView interface {
	Current() (*auction.Auction, error)
}

type custodian interface {
	Release(assetID string, newOwner [20]byte) error
}

// Controller prices and executes the one-shot buyout and serves redemptions
// of the remaining shares afterwards.
type Controller struct {
	state    engineState
	params   Params
	assetID  string
	treasury [20]byte
	shares   shareLedger
	payment  paymentToken
	prices   priceSource
	auctions auctionView
	custody  custodian
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	nowFn    func() int64
}

// NewController constructs a buyout controller for assetID. The redemption
// pool is held by treasury.
func NewController(assetID string, treasury [20]byte, params Params) *Controller {
	return &Controller{
		params:   params,
		assetID:  strings.TrimSpace(assetID),
		treasury: treasury,
		emitter:  events.NoopEmitter{},
	}
}

// SetState wires the controller to the external persistence layer.
func (c *Controller) SetState(state engineState) { c.state = state }

// SetCollaborators wires the ledgers, the price history, the auction engine
// and custody.
func (c *Controller) SetCollaborators(shares shareLedger, payment paymentToken, prices priceSource, auctions auctionView, custody custodian) {
	c.shares = shares
	c.payment = payment
	c.prices = prices
	c.auctions = auctions
	c.custody = custody
}

// SetEmitter configures the event emitter. Nil restores the no-op emitter.
func (c *Controller) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	c.emitter = emitter
}

func (c *Controller) SetPauses(p nativecommon.PauseView) {
	if c == nil {
		return
	}
	c.pauses = p
}

// SetNowFunc overrides the clock used for the buyout timestamp.
func (c *Controller) SetNowFunc(now func() int64) { c.nowFn = now }

func (c *Controller) now() uint64 {
	if c.nowFn == nil {
		return 0
	}
	ts := c.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (c *Controller) ready() error {
	if c.state == nil {
		return errNilState
	}
	if c.shares == nil || c.payment == nil || c.prices == nil || c.auctions == nil || c.custody == nil {
		return errNilCollaborator
	}
	return nil
}

// Record returns the buyout record, or nil when no buyout happened.
func (c *Controller) Record() (*Record, error) {
	if c.state == nil {
		return nil, errNilState
	}
	record, err := c.state.BuyoutRecord()
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// BoughtOut reports whether the buyout has executed.
func (c *Controller) BoughtOut() (bool, error) {
	record, err := c.Record()
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

// FinalPricePerShare returns the redemption price, zero before a buyout.
func (c *Controller) FinalPricePerShare() (*big.Int, error) {
	record, err := c.Record()
	if err != nil {
		return nil, err
	}
	if record == nil {
		return big.NewInt(0), nil
	}
	return record.PricePerShare, nil
}

// Quote prices a buyout by buyer. The per-share price is
// avg × (max × supply − (max − min) × owned) / (10000 × supply), so it
// strictly falls as the buyer's pre-owned fraction grows.
func (c *Controller) Quote(buyer [20]byte) (*Quote, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	record, err := c.state.BuyoutRecord()
	if err != nil {
		return nil, err
	}
	if record != nil {
		return nil, ErrBoughtOut
	}
	current, err := c.auctions.Current()
	if err != nil {
		return nil, err
	}
	switch current.State {
	case auction.StateEmpty:
		return nil, ErrNotActivated
	case auction.StateActive, auction.StateFinalized:
		return nil, ErrAuctionActive
	}
	average, err := c.prices.Average()
	if err != nil {
		return nil, err
	}
	supply, err := c.shares.TotalSupply()
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return nil, ErrZeroSupply
	}
	owned, err := c.shares.BalanceOf(buyer)
	if err != nil {
		return nil, err
	}
	unowned := new(big.Int).Sub(supply, owned)

	spread := new(big.Int)
	if c.params.MaxPremiumBps > c.params.MinPremiumBps {
		spread.SetUint64(c.params.MaxPremiumBps - c.params.MinPremiumBps)
	}
	weighted := new(big.Int).Mul(new(big.Int).SetUint64(c.params.MaxPremiumBps), supply)
	weighted.Sub(weighted, new(big.Int).Mul(spread, owned))

	price := new(big.Int).Mul(average, weighted)
	price.Quo(price, new(big.Int).Mul(basisPoints, supply))

	premium := new(big.Int).Quo(weighted, supply)
	return &Quote{
		Owned:         owned,
		Supply:        supply,
		Unowned:       unowned,
		AveragePrice:  average,
		PremiumBps:    premium.Uint64(),
		PricePerShare: price,
		Cost:          new(big.Int).Mul(unowned, price),
	}, nil
}

// Execute performs the buyout for buyer, who is willing to spend up to
// maxPayment. The buyer's own shares are burned, the cost is wrapped into the
// redemption pool and the asset is released to the buyer. The returned record
// carries the exact cost the caller must collect.
func (c *Controller) Execute(buyer [20]byte, maxPayment *big.Int) (*Record, error) {
	if err := nativecommon.Guard(c.pauses, moduleName); err != nil {
		return nil, err
	}
	quote, err := c.Quote(buyer)
	if err != nil {
		return nil, err
	}
	if maxPayment == nil {
		maxPayment = big.NewInt(0)
	}
	if maxPayment.Cmp(quote.Cost) < 0 {
		return nil, ErrInsufficientPayment
	}
	if quote.Owned.Sign() > 0 {
		if err := c.shares.Burn(buyer, quote.Owned); err != nil {
			return nil, err
		}
	}
	if quote.Cost.Sign() > 0 {
		if _, err := c.payment.Wrap(c.treasury, quote.Cost); err != nil {
			return nil, err
		}
	}
	if err := c.custody.Release(c.assetID, buyer); err != nil {
		return nil, err
	}
	record := &Record{
		Buyer:             buyer,
		PricePerShare:     quote.PricePerShare,
		OutstandingSupply: quote.Unowned,
		Cost:              quote.Cost,
		PremiumBps:        quote.PremiumBps,
		ExecutedAt:        c.now(),
	}
	if err := c.state.PutBuyoutRecord(record); err != nil {
		return nil, err
	}
	c.emitter.Emit(events.BuyoutExecuted{
		Buyer:             buyer,
		AssetID:           c.assetID,
		PricePerShare:     new(big.Int).Set(record.PricePerShare),
		OutstandingSupply: new(big.Int).Set(record.OutstandingSupply),
		Cost:              new(big.Int).Set(record.Cost),
		PremiumBps:        record.PremiumBps,
	})
	return record.Clone(), nil
}

// Redeem burns the holder's whole share balance and pays balance × price in
// the wrapped payment token from the redemption pool. The pool holds exactly
// the outstanding supply at buyout times the price, so it cannot be overdrawn.
func (c *Controller) Redeem(holder [20]byte) (*big.Int, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	record, err := c.state.BuyoutRecord()
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotBoughtOut
	}
	balance, err := c.shares.BalanceOf(holder)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, ErrNothingToRedeem
	}
	payout := new(big.Int).Mul(balance, record.PricePerShare)
	if err := c.shares.Burn(holder, balance); err != nil {
		return nil, err
	}
	if payout.Sign() > 0 {
		if err := c.payment.Transfer(c.treasury, holder, payout); err != nil {
			return nil, err
		}
	}
	c.emitter.Emit(events.SharesRedeemed{
		Holder: holder,
		Shares: new(big.Int).Set(balance),
		Payout: new(big.Int).Set(payout),
	})
	return payout, nil
}
