package rpc

import (
	"fmt"
	"math/big"
	"strings"

	"ricks/crypto"
	"ricks/native/auction"
	"ricks/native/buyout"
	"ricks/native/vault"
)

// AmountRequest carries a single decimal amount in base units.
type AmountRequest struct {
	Amount string `json:"amount"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type PauseRequest struct {
	Module string `json:"module"`
	Paused bool   `json:"paused"`
}

type FaucetRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// AuctionResult reflects the auction record.
type AuctionResult struct {
	State         string `json:"state"`
	Round         uint64 `json:"round"`
	EndTime       uint64 `json:"endTime"`
	TokenAmount   string `json:"tokenAmount"`
	HighestBid    string `json:"highestBid"`
	HighestBidder string `json:"highestBidder,omitempty"`
	LastSettled   uint64 `json:"lastSettled"`
	Settleable    bool   `json:"settleable"`
	MinNextBid    string `json:"minNextBid,omitempty"`
	NextMint      string `json:"nextMint,omitempty"`
}

type SettlementResult struct {
	Round         uint64 `json:"round"`
	Winner        string `json:"winner"`
	Proceeds      string `json:"proceeds"`
	TokenAmount   string `json:"tokenAmount"`
	PricePerShare string `json:"pricePerShare"`
	SettledAt     uint64 `json:"settledAt"`
}

type PriceHistoryResult struct {
	Prices  []string `json:"prices"`
	Settled uint64   `json:"settled"`
}

type BuyoutResult struct {
	Executed          bool   `json:"executed"`
	Buyer             string `json:"buyer,omitempty"`
	PricePerShare     string `json:"pricePerShare"`
	OutstandingSupply string `json:"outstandingSupply,omitempty"`
	Cost              string `json:"cost,omitempty"`
	PremiumBps        uint64 `json:"premiumBps,omitempty"`
	ExecutedAt        uint64 `json:"executedAt,omitempty"`
}

type BalancesResult struct {
	Address        string `json:"address"`
	Native         string `json:"native"`
	Shares         string `json:"shares"`
	Weth           string `json:"weth"`
	Staked         string `json:"staked"`
	PendingRewards string `json:"pendingRewards"`
	Withdrawable   string `json:"withdrawable"`
}

type UnstakeResult struct {
	Amount string `json:"amount"`
	Reward string `json:"reward"`
}

// ErrorResult is the body of every failed request.
type ErrorResult struct {
	Error string `json:"error"`
	Class string `json:"class,omitempty"`
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return value, nil
}

func parseAddress(raw string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid address: %w", err)
	}
	return addr.Raw(), nil
}

func formatAddress(addr [20]byte) string {
	if addr == ([20]byte{}) {
		return ""
	}
	return crypto.FromRaw(addr).String()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func auctionResult(a *auction.Auction) AuctionResult {
	return AuctionResult{
		State:         a.State.String(),
		Round:         a.Round,
		EndTime:       a.EndTime,
		TokenAmount:   formatAmount(a.TokenAmount),
		HighestBid:    formatAmount(a.HighestBid),
		HighestBidder: formatAddress(a.HighestBidder),
		LastSettled:   a.LastSettled,
	}
}

func settlementResult(s *auction.Settlement) SettlementResult {
	return SettlementResult{
		Round:         s.Round,
		Winner:        formatAddress(s.Winner),
		Proceeds:      formatAmount(s.Proceeds),
		TokenAmount:   formatAmount(s.TokenAmount),
		PricePerShare: formatAmount(s.PricePerShare),
		SettledAt:     s.SettledAt,
	}
}

func buyoutResult(r *buyout.Record) BuyoutResult {
	if r == nil {
		return BuyoutResult{PricePerShare: "0"}
	}
	return BuyoutResult{
		Executed:          true,
		Buyer:             formatAddress(r.Buyer),
		PricePerShare:     formatAmount(r.PricePerShare),
		OutstandingSupply: formatAmount(r.OutstandingSupply),
		Cost:              formatAmount(r.Cost),
		PremiumBps:        r.PremiumBps,
		ExecutedAt:        r.ExecutedAt,
	}
}

func balancesResult(addr [20]byte, b *vault.Balances) BalancesResult {
	return BalancesResult{
		Address:        crypto.FromRaw(addr).String(),
		Native:         formatAmount(b.Native),
		Shares:         formatAmount(b.Shares),
		Weth:           formatAmount(b.Weth),
		Staked:         formatAmount(b.Staked),
		PendingRewards: formatAmount(b.PendingRewards),
		Withdrawable:   formatAmount(b.Withdrawable),
	}
}
