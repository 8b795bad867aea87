package auction

import (
	"errors"
	"math/big"
)

// State enumerates the lifecycle of the auction record.
type State uint8

const (
	StateEmpty State = iota
	StateInactive
	StateActive
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	default:
		return "empty"
	}
}

// Auction is the running or most recently settled auction. LastSettled is the
// reference point for both the cooldown and the inflation accrual.
type Auction struct {
	State         State
	Round         uint64
	EndTime       uint64
	TokenAmount   *big.Int
	HighestBid    *big.Int
	HighestBidder [20]byte
	LastSettled   uint64
}

// Clone returns a deep copy of the auction.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	clone.TokenAmount = copyInt(a.TokenAmount)
	clone.HighestBid = copyInt(a.HighestBid)
	return &clone
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Params are fixed at deployment. InflationRate is expressed in tenths of a
// percent per InflationPeriod seconds.
type Params struct {
	InflationRate   uint64
	InflationPeriod uint64
	Cooldown        uint64
	Duration        uint64
	MinIncrementBps uint64
	ReservePrice    *big.Int
}

// DefaultParams mirrors the reference deployment: 5% daily inflation, a 24h
// cooldown, 4h auctions and a 5% minimum raise.
func DefaultParams() Params {
	return Params{
		InflationRate:   50,
		InflationPeriod: 86_400,
		Cooldown:        86_400,
		Duration:        4 * 3_600,
		MinIncrementBps: 500,
		ReservePrice:    big.NewInt(1),
	}
}

// Validate checks the parameters for internal consistency.
func (p Params) Validate() error {
	if p.InflationRate == 0 {
		return errors.New("auction params: inflation rate must be positive")
	}
	if p.InflationPeriod == 0 {
		return errors.New("auction params: inflation period must be positive")
	}
	if p.Duration == 0 {
		return errors.New("auction params: duration must be positive")
	}
	if p.ReservePrice == nil || p.ReservePrice.Sign() <= 0 {
		return errors.New("auction params: reserve price must be positive")
	}
	return nil
}

// Refund is an outbound payment owed to an outbid bidder.
type Refund struct {
	Recipient [20]byte
	Amount    *big.Int
}

// Settlement summarises how an auction was closed.
type Settlement struct {
	Round         uint64
	Winner        [20]byte
	Proceeds      *big.Int
	TokenAmount   *big.Int
	PricePerShare *big.Int
	SettledAt     uint64
}
