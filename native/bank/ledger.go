package bank

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	vaultstate "ricks/core/state"
	nativecommon "ricks/native/common"
)

// NativeSymbol keys native payment balances in state.
const NativeSymbol = "NATIVE"

var (
	errNilState          = errors.New("bank: state manager required")
	ErrInvalidAmount     = nativecommon.Insufficient("bank: amount must be positive")
	ErrInsufficientFunds = nativecommon.Insufficient("bank: insufficient funds")
	ErrPaymentRejected   = nativecommon.TransferFailed("bank: payment rejected by recipient")
)

// Receiver is consulted before value lands in an account. Returning an error
// rejects the payment; the receiver may call back into other services while
// deciding.
type Receiver interface {
	Receive(ctx context.Context, from [20]byte, amount *big.Int) error
}

// ReceiverFunc adapts a function into a Receiver.
type ReceiverFunc func(ctx context.Context, from [20]byte, amount *big.Int) error

func (f ReceiverFunc) Receive(ctx context.Context, from [20]byte, amount *big.Int) error {
	return f(ctx, from, amount)
}

// Ledger holds native payment balances. Every transfer commits the shared
// state overlay, so callers staging their own writes in the same manager
// must hold Locker while doing so.
type Ledger struct {
	mu        sync.Mutex
	state     *vaultstate.Manager
	receivers sync.Map
}

func NewLedger(state *vaultstate.Manager) *Ledger {
	return &Ledger{state: state}
}

// Locker returns the lock guarding the ledger's state manager.
func (l *Ledger) Locker() sync.Locker { return &l.mu }

// SetReceiver registers a receiver hook for addr. Nil removes it.
func (l *Ledger) SetReceiver(addr [20]byte, receiver Receiver) {
	if receiver == nil {
		l.receivers.Delete(addr)
		return
	}
	l.receivers.Store(addr, receiver)
}

func (l *Ledger) receiver(addr [20]byte) Receiver {
	value, ok := l.receivers.Load(addr)
	if !ok {
		return nil
	}
	return value.(Receiver)
}

// Balance returns the native balance of addr.
func (l *Ledger) Balance(addr [20]byte) (*big.Int, error) {
	if l.state == nil {
		return nil, errNilState
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.TokenBalance(NativeSymbol, addr)
}

// Credit mints native value into addr. Used for genesis funding and the
// development faucet.
func (l *Ledger) Credit(addr [20]byte, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, err := l.state.TokenBalance(NativeSymbol, addr)
	if err != nil {
		return err
	}
	supply, err := l.state.TokenSupply(NativeSymbol)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(NativeSymbol, addr, balance.Add(balance, amount)); err != nil {
		l.state.Discard()
		return err
	}
	if err := l.state.SetTokenSupply(NativeSymbol, supply.Add(supply, amount)); err != nil {
		l.state.Discard()
		return err
	}
	return l.commit()
}

func (l *Ledger) commit() error {
	if err := l.state.Commit(); err != nil {
		l.state.Discard()
		return err
	}
	return nil
}

// Transfer moves amount from one account to another. A receiver registered
// for the destination is consulted first, without any lock held.
func (l *Ledger) Transfer(ctx context.Context, from, to [20]byte, amount *big.Int) error {
	if l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if receiver := l.receiver(to); receiver != nil {
		if err := receiver.Receive(ctx, from, new(big.Int).Set(amount)); err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentRejected, err)
		}
	}
	return l.move(from, to, amount)
}

func (l *Ledger) move(from, to [20]byte, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.moveLocked(from, to, amount)
}

// moveLocked moves value and commits every staged write. On a failed balance
// check nothing is staged, leaving the overlay to the caller.
func (l *Ledger) moveLocked(from, to [20]byte, amount *big.Int) error {
	fromBalance, err := l.state.TokenBalance(NativeSymbol, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	if from == to {
		return l.commit()
	}
	toBalance, err := l.state.TokenBalance(NativeSymbol, to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(NativeSymbol, from, fromBalance.Sub(fromBalance, amount)); err != nil {
		l.state.Discard()
		return err
	}
	if err := l.state.SetTokenBalance(NativeSymbol, to, toBalance.Add(toBalance, amount)); err != nil {
		l.state.Discard()
		return err
	}
	return l.commit()
}
