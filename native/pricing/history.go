package pricing

import (
	"errors"
	"math/big"

	nativecommon "ricks/native/common"
)

// DefaultWindow is the number of settled auctions averaged into the buyout
// reference price.
const DefaultWindow = 5

var (
	ErrInsufficientHistory = nativecommon.Precondition("price history: not enough auctions to establish price")
	ErrInvalidPrice        = nativecommon.Arithmetic("price history: price must not be negative")
	errInvalidWindow       = errors.New("price history: window must be positive")
)

// History is a fixed capacity ring buffer of settled per-share prices.
type History struct {
	Window  uint64
	Prices  []*big.Int
	Next    uint64
	Settled uint64
}

// NewHistory returns an empty history averaging over window prices.
func NewHistory(window uint64) (*History, error) {
	if window == 0 {
		return nil, errInvalidWindow
	}
	return &History{Window: window, Prices: make([]*big.Int, 0, window)}, nil
}

// Record appends price, overwriting the oldest entry once the window is full.
func (h *History) Record(price *big.Int) error {
	if h == nil || h.Window == 0 {
		return errInvalidWindow
	}
	if price == nil || price.Sign() < 0 {
		return ErrInvalidPrice
	}
	value := new(big.Int).Set(price)
	if uint64(len(h.Prices)) < h.Window {
		h.Prices = append(h.Prices, value)
	} else {
		h.Prices[h.Next] = value
	}
	h.Next = (h.Next + 1) % h.Window
	h.Settled++
	return nil
}

// Full reports whether window prices have been recorded.
func (h *History) Full() bool {
	return h != nil && h.Window > 0 && uint64(len(h.Prices)) >= h.Window
}

// Average returns the arithmetic mean of the window, truncated toward zero.
func (h *History) Average() (*big.Int, error) {
	if !h.Full() {
		return nil, ErrInsufficientHistory
	}
	sum := new(big.Int)
	for _, price := range h.Prices {
		sum.Add(sum, price)
	}
	return sum.Quo(sum, new(big.Int).SetUint64(h.Window)), nil
}

// Values returns the recorded prices ordered from oldest to newest.
func (h *History) Values() []*big.Int {
	if h == nil || len(h.Prices) == 0 {
		return []*big.Int{}
	}
	out := make([]*big.Int, 0, len(h.Prices))
	start := uint64(0)
	if h.Full() {
		start = h.Next
	}
	for i := uint64(0); i < uint64(len(h.Prices)); i++ {
		idx := (start + i) % uint64(len(h.Prices))
		out = append(out, new(big.Int).Set(h.Prices[idx]))
	}
	return out
}

// Clone returns a deep copy of the history.
func (h *History) Clone() *History {
	if h == nil {
		return nil
	}
	clone := &History{Window: h.Window, Next: h.Next, Settled: h.Settled, Prices: make([]*big.Int, len(h.Prices), h.Window)}
	for i, price := range h.Prices {
		clone.Prices[i] = new(big.Int).Set(price)
	}
	return clone
}
