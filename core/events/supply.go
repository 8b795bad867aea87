package events

import (
	"math/big"

	"ricks/core/types"
)

const (
	// TypeTokenSupply is emitted whenever a token supply changes.
	TypeTokenSupply = "token.supply"

	// SupplyReasonMint identifies mint driven supply increases.
	SupplyReasonMint = "mint"
	// SupplyReasonBurn identifies burn driven supply decreases.
	SupplyReasonBurn = "burn"
	// SupplyReasonWrap identifies payment wrapped into WETH.
	SupplyReasonWrap = "wrap"
	// SupplyReasonUnwrap identifies WETH converted back to native payment.
	SupplyReasonUnwrap = "unwrap"
)

// TokenSupply captures a supply delta for a fungible token.
type TokenSupply struct {
	Token   string
	Account [20]byte
	Total   *big.Int
	Delta   *big.Int
	Reason  string
}

func (TokenSupply) EventType() string { return TypeTokenSupply }

// Event renders the structured supply change event for downstream consumers.
func (e TokenSupply) Event() *types.Event {
	token := normalizeAsset(e.Token)
	if token == "" {
		token = "UNKNOWN"
	}
	attrs := map[string]string{
		"token":   token,
		"account": formatAddress(e.Account),
		"total":   formatAmount(e.Total),
		"delta":   formatAmount(e.Delta),
	}
	if e.Reason != "" {
		attrs["reason"] = e.Reason
	}
	return &types.Event{Type: TypeTokenSupply, Attributes: attrs}
}
