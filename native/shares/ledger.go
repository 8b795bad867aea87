package shares

import (
	"errors"
	"math/big"

	"ricks/core/events"
	nativecommon "ricks/native/common"
)

// Symbol identifies the fractional share token in state and events.
const Symbol = "RICKS"

var (
	errNilState            = errors.New("share ledger: state not configured")
	ErrInvalidAmount       = nativecommon.Insufficient("share ledger: amount must be positive")
	ErrInsufficientBalance = nativecommon.Arithmetic("share ledger: insufficient balance")
	ErrSupplyUnderflow     = nativecommon.Arithmetic("share ledger: supply underflow")
)

type engineState interface {
	TokenBalance(symbol string, addr [20]byte) (*big.Int, error)
	SetTokenBalance(symbol string, addr [20]byte, amount *big.Int) error
	TokenSupply(symbol string) (*big.Int, error)
	SetTokenSupply(symbol string, amount *big.Int) error
}

// Ledger is the fungible share balance primitive. Every mutation either
// completes fully or leaves balances untouched.
type Ledger struct {
	state   engineState
	emitter events.Emitter
}

// NewLedger constructs an unwired share ledger.
func NewLedger() *Ledger {
	return &Ledger{emitter: events.NoopEmitter{}}
}

// SetState wires the ledger to the external persistence layer.
func (l *Ledger) SetState(state engineState) { l.state = state }

// SetEmitter configures the event emitter. Nil restores the no-op emitter.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	l.emitter = emitter
}

// BalanceOf returns the share balance held by addr.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenBalance(Symbol, addr)
}

// TotalSupply returns the outstanding share supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenSupply(Symbol)
}

// Mint creates amount new shares owned by to.
func (l *Ledger) Mint(to [20]byte, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.state.TokenBalance(Symbol, to)
	if err != nil {
		return err
	}
	supply, err := l.state.TokenSupply(Symbol)
	if err != nil {
		return err
	}
	balance = new(big.Int).Add(balance, amount)
	supply = new(big.Int).Add(supply, amount)
	if err := l.state.SetTokenBalance(Symbol, to, balance); err != nil {
		return err
	}
	if err := l.state.SetTokenSupply(Symbol, supply); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenSupply{
		Token:   Symbol,
		Account: to,
		Total:   supply,
		Delta:   new(big.Int).Set(amount),
		Reason:  events.SupplyReasonMint,
	})
	return nil
}

// Burn destroys amount shares held by from.
func (l *Ledger) Burn(from [20]byte, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.state.TokenBalance(Symbol, from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := l.state.TokenSupply(Symbol)
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return ErrSupplyUnderflow
	}
	balance = new(big.Int).Sub(balance, amount)
	supply = new(big.Int).Sub(supply, amount)
	if err := l.state.SetTokenBalance(Symbol, from, balance); err != nil {
		return err
	}
	if err := l.state.SetTokenSupply(Symbol, supply); err != nil {
		return err
	}
	l.emitter.Emit(events.TokenSupply{
		Token:   Symbol,
		Account: from,
		Total:   supply,
		Delta:   new(big.Int).Neg(amount),
		Reason:  events.SupplyReasonBurn,
	})
	return nil
}

// Transfer moves amount shares from one account to another.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := l.state.TokenBalance(Symbol, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBalance, err := l.state.TokenBalance(Symbol, to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(Symbol, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.state.SetTokenBalance(Symbol, to, new(big.Int).Add(toBalance, amount))
}
