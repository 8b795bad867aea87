package weth

import (
	"errors"
	"math/big"

	"ricks/core/events"
	nativecommon "ricks/native/common"
)

// Symbol identifies the wrapped payment token.
const Symbol = "WETH"

var (
	errNilState            = errors.New("weth: state not configured")
	ErrInvalidAmount       = nativecommon.Insufficient("weth: amount must be positive")
	ErrInsufficientBalance = nativecommon.Arithmetic("weth: insufficient balance")
)

type engineState interface {
	TokenBalance(symbol string, addr [20]byte) (*big.Int, error)
	SetTokenBalance(symbol string, addr [20]byte, amount *big.Int) error
	TokenSupply(symbol string) (*big.Int, error)
	SetTokenSupply(symbol string, amount *big.Int) error
}

// Token converts native payment into a fungible balance. The supply always
// equals the native value held as backing by the caller of Wrap.
type Token struct {
	state   engineState
	emitter events.Emitter
}

func NewToken() *Token {
	return &Token{emitter: events.NoopEmitter{}}
}

// SetState wires the token to the external persistence layer.
func (t *Token) SetState(state engineState) { t.state = state }

// SetEmitter configures the event emitter. Nil restores the no-op emitter.
func (t *Token) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	t.emitter = emitter
}

func (t *Token) BalanceOf(addr [20]byte) (*big.Int, error) {
	if t.state == nil {
		return nil, errNilState
	}
	return t.state.TokenBalance(Symbol, addr)
}

func (t *Token) TotalSupply() (*big.Int, error) {
	if t.state == nil {
		return nil, errNilState
	}
	return t.state.TokenSupply(Symbol)
}

// Wrap credits amount to the account whose native value was deposited and
// returns the credited balance.
func (t *Token) Wrap(to [20]byte, amount *big.Int) (*big.Int, error) {
	if t.state == nil {
		return nil, errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	balance, err := t.state.TokenBalance(Symbol, to)
	if err != nil {
		return nil, err
	}
	supply, err := t.state.TokenSupply(Symbol)
	if err != nil {
		return nil, err
	}
	balance = new(big.Int).Add(balance, amount)
	supply = new(big.Int).Add(supply, amount)
	if err := t.state.SetTokenBalance(Symbol, to, balance); err != nil {
		return nil, err
	}
	if err := t.state.SetTokenSupply(Symbol, supply); err != nil {
		return nil, err
	}
	t.emitter.Emit(events.TokenSupply{
		Token:   Symbol,
		Account: to,
		Total:   supply,
		Delta:   new(big.Int).Set(amount),
		Reason:  events.SupplyReasonWrap,
	})
	return balance, nil
}

// Unwrap burns amount from the account. The caller is responsible for
// releasing the matching native value.
func (t *Token) Unwrap(from [20]byte, amount *big.Int) error {
	if t.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := t.state.TokenBalance(Symbol, from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := t.state.TokenSupply(Symbol)
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply = new(big.Int).Sub(supply, amount)
	if err := t.state.SetTokenBalance(Symbol, from, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	if err := t.state.SetTokenSupply(Symbol, supply); err != nil {
		return err
	}
	t.emitter.Emit(events.TokenSupply{
		Token:   Symbol,
		Account: from,
		Total:   supply,
		Delta:   new(big.Int).Neg(amount),
		Reason:  events.SupplyReasonUnwrap,
	})
	return nil
}

// Transfer moves wrapped balance between accounts.
func (t *Token) Transfer(from, to [20]byte, amount *big.Int) error {
	if t.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := t.state.TokenBalance(Symbol, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBalance, err := t.state.TokenBalance(Symbol, to)
	if err != nil {
		return err
	}
	if err := t.state.SetTokenBalance(Symbol, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return t.state.SetTokenBalance(Symbol, to, new(big.Int).Add(toBalance, amount))
}
