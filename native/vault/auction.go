package vault

import (
	"context"
	"errors"
	"math/big"

	"ricks/core/events"
	"ricks/native/auction"
	"ricks/native/bank"
)

// Activate locks the asset under caller, mints the initial supply to caller
// and opens the first cooldown.
func (v *Vault) Activate(ctx context.Context, caller [20]byte) error {
	return v.execute(ctx, "activate", caller, func() (*big.Int, []payout, error) {
		if v.hasCurator && caller != v.curator {
			return nil, nil, ErrCuratorOnly
		}
		if isVaultAccount(caller) {
			return nil, nil, errReservedRecipient
		}
		if err := v.auction.Activate(); err != nil {
			return nil, nil, err
		}
		if err := v.custody.Lock(caller, v.assetID); err != nil {
			return nil, nil, err
		}
		if err := v.shares.Mint(caller, v.initialSupply); err != nil {
			return nil, nil, err
		}
		v.buffer.Emit(events.VaultActivated{
			Curator:       caller,
			AssetID:       v.assetID,
			InitialSupply: new(big.Int).Set(v.initialSupply),
			ActivatedAt:   v.now(),
		})
		v.logger.InfoContext(ctx, "vault activated", "op", "activate", "caller", addr(caller), "amount", v.initialSupply.String())
		return nil, nil, nil
	})
}

// StartAuction opens an auction with caller's opening bid. The bid is
// collected from caller's native balance.
func (v *Vault) StartAuction(ctx context.Context, caller [20]byte, bid *big.Int) (*auction.Auction, error) {
	var started *auction.Auction
	err := v.execute(ctx, "start_auction", caller, func() (*big.Int, []payout, error) {
		if isVaultAccount(caller) {
			return nil, nil, errReservedRecipient
		}
		record, err := v.auction.Start(caller, bid)
		if err != nil {
			return nil, nil, err
		}
		started = record
		v.logger.InfoContext(ctx, "auction started", "op", "start_auction", "caller", addr(caller),
			"amount", bid.String(), "round", record.Round)
		return bid, nil, nil
	})
	if err != nil {
		v.recordBidRejection(err)
		return nil, err
	}
	return started, nil
}

// Bid raises the highest bid. The previous highest bidder is refunded after
// the bid commits; a refund the recipient rejects becomes withdrawable.
func (v *Vault) Bid(ctx context.Context, caller [20]byte, amount *big.Int) error {
	err := v.execute(ctx, "bid", caller, func() (*big.Int, []payout, error) {
		if isVaultAccount(caller) {
			return nil, nil, errReservedRecipient
		}
		refund, err := v.auction.Bid(caller, amount)
		if err != nil {
			return nil, nil, err
		}
		v.logger.InfoContext(ctx, "bid accepted", "op", "bid", "caller", addr(caller), "amount", amount.String())
		return amount, []payout{{to: refund.Recipient, amount: refund.Amount, reason: reasonOutbid}}, nil
	})
	if err != nil {
		v.recordBidRejection(err)
	}
	return err
}

func (v *Vault) recordBidRejection(err error) {
	switch {
	case errors.Is(err, auction.ErrBidTooLow):
		v.metrics.RecordBidRejected("too_low")
	case errors.Is(err, auction.ErrAuctionEnded):
		v.metrics.RecordBidRejected("ended")
	case errors.Is(err, auction.ErrNotActive):
		v.metrics.RecordBidRejected("not_active")
	case errors.Is(err, bank.ErrInsufficientFunds):
		v.metrics.RecordBidRejected("unfunded")
	}
}

// EndAuction settles an expired auction. Anyone may call it.
func (v *Vault) EndAuction(ctx context.Context, caller [20]byte) (*auction.Settlement, error) {
	var settlement *auction.Settlement
	err := v.execute(ctx, "end_auction", caller, func() (*big.Int, []payout, error) {
		result, err := v.auction.End()
		if err != nil {
			return nil, nil, err
		}
		settlement = result
		v.metrics.RecordRewardDeposit(result.Proceeds)
		v.logger.InfoContext(ctx, "auction settled", "op", "end_auction", "caller", addr(caller),
			"round", result.Round, "amount", result.Proceeds.String())
		return nil, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}
