package vault

import (
	"context"
	"math/big"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ricks/core/events"
	"ricks/crypto"
	nativecommon "ricks/native/common"
	"ricks/observability/metrics"
	"ricks/observability/otel"
)

// payout is native value owed once the call has committed.
type payout struct {
	to     [20]byte
	amount *big.Int
	reason string
}

const (
	reasonOutbid   = "outbid"
	reasonUnwrap   = "unwrap"
	reasonWithdraw = "withdraw"
)

// call is the body of a state-changing operation. It stages writes and
// returns the native value to collect from the caller together with the
// payouts owed after commit.
type call func() (collect *big.Int, payouts []payout, err error)

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch nativecommon.Class(err) {
	case nativecommon.ErrPreconditionViolation:
		return "precondition"
	case nativecommon.ErrInsufficientValue:
		return "insufficient"
	case nativecommon.ErrArithmeticViolation:
		return "arithmetic"
	case nativecommon.ErrTransferFailure:
		return "transfer"
	default:
		return "error"
	}
}

func addr(a [20]byte) string {
	return crypto.FromRaw(a).String()
}

// execute runs fn under the vault lock. Its writes and the inbound payment
// commit together; on any failure the overlay and buffered events are
// dropped. Payouts run after the lock is released so recipients may call
// back into the vault.
func (v *Vault) execute(ctx context.Context, op string, caller [20]byte, fn call) (err error) {
	start := time.Now()
	ctx, span := otel.StartOperation(ctx, op, attribute.String("vault.caller", addr(caller)))
	defer func() {
		v.metrics.ObserveOperation(op, outcome(err), time.Since(start))
		otel.CountOperation(ctx, op, outcome(err))
		otel.EndOperation(span, err)
		if err != nil {
			v.logger.DebugContext(ctx, "vault operation rejected", "op", op, "caller", addr(caller), "error", err)
		}
	}()

	v.mu.Lock()
	collect, payouts, err := fn()
	if err == nil {
		err = v.rail.CollectLocked(caller, collect)
	}
	if err != nil {
		v.state.Discard()
		v.buffer.Reset()
		v.mu.Unlock()
		return err
	}
	emitter := v.emitter
	v.buffer.Flush(emitter)
	v.metrics.SetSnapshot(v.snapshotLocked())
	v.mu.Unlock()

	v.pay(ctx, emitter, payouts)
	return nil
}

// pay sends each payout from the reserve. A failed payment is credited to the
// recipient's withdrawable balance instead of failing the call.
func (v *Vault) pay(ctx context.Context, emitter events.Emitter, payouts []payout) {
	for _, p := range payouts {
		if p.amount == nil || p.amount.Sign() == 0 {
			continue
		}
		if err := v.rail.Pay(ctx, p.to, p.amount); err != nil {
			v.deferPayout(ctx, p, err)
			continue
		}
		if p.reason == reasonWithdraw {
			v.metrics.RecordWithdrawal("paid")
			emitter.Emit(events.Withdrawn{Account: p.to, Amount: new(big.Int).Set(p.amount)})
		}
		v.logger.InfoContext(ctx, "payout sent", "reason", p.reason, "addr", addr(p.to), "amount", p.amount.String())
	}
}

func (v *Vault) deferPayout(ctx context.Context, p payout, cause error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := v.state.CreditWithdrawable(p.to, p.amount); err != nil {
		v.state.Discard()
		v.logger.ErrorContext(ctx, "credit withdrawable", "addr", addr(p.to), "amount", p.amount.String(), "error", err)
		return
	}
	if err := v.state.Commit(); err != nil {
		v.state.Discard()
		v.logger.ErrorContext(ctx, "commit withdrawable credit", "addr", addr(p.to), "amount", p.amount.String(), "error", err)
		return
	}
	if p.reason == reasonWithdraw {
		v.metrics.RecordWithdrawal("deferred")
	}
	v.metrics.RecordRefundDeferred()
	v.emitter.Emit(events.RefundDeferred{
		Recipient: p.to,
		Amount:    new(big.Int).Set(p.amount),
		Reason:    p.reason,
	})
	v.logger.WarnContext(ctx, "payout deferred", "reason", p.reason, "addr", addr(p.to), "amount", p.amount.String(), "error", cause)
}

// snapshotLocked reads the gauges exported after each committed call.
func (v *Vault) snapshotLocked() metrics.Snapshot {
	var snap metrics.Snapshot
	if avg, err := v.prices.Average(); err == nil {
		snap.AveragePrice = avg
	}
	if pool, err := v.staking.Pool(); err == nil {
		snap.TotalStaked = pool.TotalStaked
	}
	if supply, err := v.shares.TotalSupply(); err == nil {
		snap.ShareSupply = supply
	}
	if current, err := v.auction.Current(); err == nil {
		snap.AuctionRound = current.Round
	}
	if done, err := v.buyout.BoughtOut(); err == nil {
		snap.BoughtOut = done
	}
	return snap
}

// read runs fn under the vault lock without staging anything.
func (v *Vault) read(fn func() error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fn()
}
