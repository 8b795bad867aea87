package bank

import (
	"context"
	"math/big"
)

// Rail moves native value between callers and a reserve account that backs
// bids, wrapped balances and withdrawals.
type Rail struct {
	ledger  *Ledger
	reserve [20]byte
}

func NewRail(ledger *Ledger, reserve [20]byte) *Rail {
	return &Rail{ledger: ledger, reserve: reserve}
}

// Reserve returns the reserve account.
func (r *Rail) Reserve() [20]byte { return r.reserve }

// Ledger returns the underlying ledger.
func (r *Rail) Ledger() *Ledger { return r.ledger }

// Collect pulls amount from the payer into the reserve. Receiver hooks are not
// consulted for the reserve.
func (r *Rail) Collect(_ context.Context, from [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return r.ledger.move(from, r.reserve, amount)
}

// CollectLocked is Collect for callers already holding the ledger lock. The
// payment commits together with whatever the caller staged; when the payer is
// short nothing is committed. A nil or zero amount only commits.
func (r *Rail) CollectLocked(from [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return r.ledger.commit()
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return r.ledger.moveLocked(from, r.reserve, amount)
}

// Pay sends amount from the reserve to the recipient.
func (r *Rail) Pay(ctx context.Context, to [20]byte, amount *big.Int) error {
	return r.ledger.Transfer(ctx, r.reserve, to, amount)
}

// Held returns the native value currently held by the reserve.
func (r *Rail) Held() (*big.Int, error) {
	return r.ledger.Balance(r.reserve)
}
