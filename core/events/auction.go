package events

import (
	"math/big"

	"ricks/core/types"
)

const (
	TypeAuctionStarted        = "auction.started"
	TypeAuctionBid            = "auction.bid"
	TypeAuctionRefundDeferred = "auction.refund_deferred"
	TypeAuctionSettled        = "auction.settled"
	TypePriceRecorded         = "pricing.recorded"
)

// AuctionStarted is emitted when an auction opens with its first bid.
type AuctionStarted struct {
	Round       uint64
	Bidder      [20]byte
	Bid         *big.Int
	TokenAmount *big.Int
	EndTime     uint64
}

func (AuctionStarted) EventType() string { return TypeAuctionStarted }

func (e AuctionStarted) Event() *types.Event {
	return &types.Event{Type: TypeAuctionStarted, Attributes: map[string]string{
		"round":       uintToString(e.Round),
		"bidder":      formatAddress(e.Bidder),
		"bid":         formatAmount(e.Bid),
		"tokenAmount": formatAmount(e.TokenAmount),
		"endTime":     uintToString(e.EndTime),
	}}
}

// AuctionBid is emitted when a bid replaces the highest bid.
type AuctionBid struct {
	Round          uint64
	Bidder         [20]byte
	Amount         *big.Int
	PreviousBidder [20]byte
	PreviousBid    *big.Int
}

func (AuctionBid) EventType() string { return TypeAuctionBid }

func (e AuctionBid) Event() *types.Event {
	return &types.Event{Type: TypeAuctionBid, Attributes: map[string]string{
		"round":          uintToString(e.Round),
		"bidder":         formatAddress(e.Bidder),
		"amount":         formatAmount(e.Amount),
		"previousBidder": formatAddress(e.PreviousBidder),
		"previousBid":    formatAmount(e.PreviousBid),
	}}
}

// RefundDeferred is emitted when an outbound payment failed and the amount
// was credited to the recipient's withdrawable balance instead.
type RefundDeferred struct {
	Recipient [20]byte
	Amount    *big.Int
	Reason    string
}

func (RefundDeferred) EventType() string { return TypeAuctionRefundDeferred }

func (e RefundDeferred) Event() *types.Event {
	return &types.Event{Type: TypeAuctionRefundDeferred, Attributes: map[string]string{
		"recipient": formatAddress(e.Recipient),
		"amount":    formatAmount(e.Amount),
		"reason":    e.Reason,
	}}
}

// AuctionSettled is emitted once proceeds and shares have been routed.
type AuctionSettled struct {
	Round         uint64
	Winner        [20]byte
	Proceeds      *big.Int
	TokenAmount   *big.Int
	PricePerShare *big.Int
	SettledAt     uint64
}

func (AuctionSettled) EventType() string { return TypeAuctionSettled }

func (e AuctionSettled) Event() *types.Event {
	return &types.Event{Type: TypeAuctionSettled, Attributes: map[string]string{
		"round":         uintToString(e.Round),
		"winner":        formatAddress(e.Winner),
		"proceeds":      formatAmount(e.Proceeds),
		"tokenAmount":   formatAmount(e.TokenAmount),
		"pricePerShare": formatAmount(e.PricePerShare),
		"settledAt":     uintToString(e.SettledAt),
	}}
}

// PriceRecorded is emitted when a settled price enters the rolling window.
type PriceRecorded struct {
	Price   *big.Int
	Settled uint64
}

func (PriceRecorded) EventType() string { return TypePriceRecorded }

func (e PriceRecorded) Event() *types.Event {
	return &types.Event{Type: TypePriceRecorded, Attributes: map[string]string{
		"price":   formatAmount(e.Price),
		"settled": uintToString(e.Settled),
	}}
}
