package events

import (
	"math/big"

	"ricks/core/types"
)

const (
	TypeBuyoutExecuted = "buyout.executed"
	TypeBuyoutRedeemed = "buyout.redeemed"
)

// BuyoutExecuted is emitted once when the asset leaves custody.
type BuyoutExecuted struct {
	Buyer             [20]byte
	AssetID           string
	PricePerShare     *big.Int
	OutstandingSupply *big.Int
	Cost              *big.Int
	PremiumBps        uint64
}

func (BuyoutExecuted) EventType() string { return TypeBuyoutExecuted }

func (e BuyoutExecuted) Event() *types.Event {
	return &types.Event{Type: TypeBuyoutExecuted, Attributes: map[string]string{
		"buyer":             formatAddress(e.Buyer),
		"assetId":           e.AssetID,
		"pricePerShare":     formatAmount(e.PricePerShare),
		"outstandingSupply": formatAmount(e.OutstandingSupply),
		"cost":              formatAmount(e.Cost),
		"premiumBps":        uintToString(e.PremiumBps),
	}}
}

// SharesRedeemed is emitted when a holder exchanges shares for WETH.
type SharesRedeemed struct {
	Holder [20]byte
	Shares *big.Int
	Payout *big.Int
}

func (SharesRedeemed) EventType() string { return TypeBuyoutRedeemed }

func (e SharesRedeemed) Event() *types.Event {
	return &types.Event{Type: TypeBuyoutRedeemed, Attributes: map[string]string{
		"holder": formatAddress(e.Holder),
		"shares": formatAmount(e.Shares),
		"payout": formatAmount(e.Payout),
	}}
}
