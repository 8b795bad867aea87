package events

import (
	"math/big"

	"ricks/core/types"
)

const (
	TypeVaultActivated = "vault.activated"
	TypeVaultWithdrawn = "vault.withdrawn"
	TypeVaultPaused    = "vault.paused"
)

// VaultActivated is emitted when the asset is locked and shares minted.
type VaultActivated struct {
	Curator       [20]byte
	AssetID       string
	InitialSupply *big.Int
	ActivatedAt   uint64
}

func (VaultActivated) EventType() string { return TypeVaultActivated }

func (e VaultActivated) Event() *types.Event {
	return &types.Event{Type: TypeVaultActivated, Attributes: map[string]string{
		"curator":       formatAddress(e.Curator),
		"assetId":       e.AssetID,
		"initialSupply": formatAmount(e.InitialSupply),
		"activatedAt":   uintToString(e.ActivatedAt),
	}}
}

// Withdrawn is emitted when a withdrawable balance is paid out.
type Withdrawn struct {
	Account [20]byte
	Amount  *big.Int
}

func (Withdrawn) EventType() string { return TypeVaultWithdrawn }

func (e Withdrawn) Event() *types.Event {
	return &types.Event{Type: TypeVaultWithdrawn, Attributes: map[string]string{
		"account": formatAddress(e.Account),
		"amount":  formatAmount(e.Amount),
	}}
}

// ModulePaused is emitted when an admin toggles a module pause.
type ModulePaused struct {
	Module string
	Paused bool
}

func (ModulePaused) EventType() string { return TypeVaultPaused }

func (e ModulePaused) Event() *types.Event {
	paused := "false"
	if e.Paused {
		paused = "true"
	}
	return &types.Event{Type: TypeVaultPaused, Attributes: map[string]string{
		"module": e.Module,
		"paused": paused,
	}}
}
