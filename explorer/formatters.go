package explorer

import (
	"encoding/json"
	"strings"
	"time"

	"ricks/core/events"
)

var labels = map[string]string{
	events.TypeVaultActivated:        "Vault activated",
	events.TypeVaultWithdrawn:        "Withdrawal paid",
	events.TypeVaultPaused:           "Module pause changed",
	events.TypeAuctionStarted:        "Auction started",
	events.TypeAuctionBid:            "Bid placed",
	events.TypeAuctionRefundDeferred: "Refund deferred",
	events.TypeAuctionSettled:        "Auction settled",
	events.TypePriceRecorded:         "Price recorded",
	events.TypeStakingStaked:         "Shares staked",
	events.TypeStakingClaimed:        "Rewards claimed",
	events.TypeStakingUnstaked:       "Shares unstaked",
	events.TypeStakingDeposited:      "Reward deposited",
	events.TypeBuyoutExecuted:        "Buyout executed",
	events.TypeBuyoutRedeemed:        "Shares redeemed",
}

// EventLabel returns the explorer label for an event type.
func EventLabel(eventType string) string {
	if label, ok := labels[eventType]; ok {
		return label
	}
	if eventType == events.TypeTokenSupply {
		return "Supply changed"
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		return "Unknown event"
	}
	return normalized
}

// SupplyLabel returns the label for a token supply change.
func SupplyLabel(token, reason string) string {
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if normalized == "" {
		normalized = "RICKS"
	}
	switch reason {
	case events.SupplyReasonMint:
		return "Minted " + normalized
	case events.SupplyReasonBurn:
		return "Burned " + normalized
	case events.SupplyReasonWrap:
		return "Wrapped " + normalized
	case events.SupplyReasonUnwrap:
		return "Unwrapped " + normalized
	default:
		return "Updated " + normalized
	}
}

// EventView is the JSON shape served by the archive endpoint.
type EventView struct {
	ID         string            `json:"id"`
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Label      string            `json:"label"`
	Account    string            `json:"account,omitempty"`
	Attributes map[string]string `json:"attributes"`
	Digest     string            `json:"digest,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// View formats a stored record for API responses.
func View(record EventRecord) EventView {
	attrs := map[string]string{}
	if record.Attributes != "" {
		_ = json.Unmarshal([]byte(record.Attributes), &attrs)
	}
	label := EventLabel(record.Type)
	if record.Type == events.TypeTokenSupply {
		label = SupplyLabel(attrs["token"], attrs["reason"])
	}
	return EventView{
		ID:         record.ID.String(),
		Sequence:   record.Sequence,
		Type:       record.Type,
		Label:      label,
		Account:    record.Account,
		Attributes: attrs,
		Digest:     record.Digest,
		CreatedAt:  record.CreatedAt,
	}
}
