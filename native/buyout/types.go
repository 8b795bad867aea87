package buyout

import (
	"errors"
	"math/big"
)

// Record is the terminal buyout entry. Once written it never changes.
type Record struct {
	Buyer             [20]byte
	PricePerShare     *big.Int
	OutstandingSupply *big.Int
	Cost              *big.Int
	PremiumBps        uint64
	ExecutedAt        uint64
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.PricePerShare = copyInt(r.PricePerShare)
	clone.OutstandingSupply = copyInt(r.OutstandingSupply)
	clone.Cost = copyInt(r.Cost)
	return &clone
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Params shape the premium curve. A buyer owning nothing pays MaxPremiumBps
// over the average price and a buyer owning everything would pay
// MinPremiumBps; the premium falls linearly with the owned fraction, so Max
// must be strictly above Min.
type Params struct {
	MaxPremiumBps uint64
	MinPremiumBps uint64
}

func DefaultParams() Params {
	return Params{MaxPremiumBps: 15_000, MinPremiumBps: 11_000}
}

func (p Params) Validate() error {
	if p.MinPremiumBps <= 10_000 {
		return errors.New("buyout params: minimum premium must exceed 100%")
	}
	if p.MaxPremiumBps <= p.MinPremiumBps {
		return errors.New("buyout params: maximum premium must exceed minimum")
	}
	return nil
}

// Quote is the price a buyer would pay right now.
type Quote struct {
	Owned         *big.Int
	Supply        *big.Int
	Unowned       *big.Int
	AveragePrice  *big.Int
	PremiumBps    uint64
	PricePerShare *big.Int
	Cost          *big.Int
}
