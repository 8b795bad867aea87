package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate rejects internally inconsistent configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vault.AssetID) == "" {
		return fmt.Errorf("vault: AssetID required")
	}
	supply, err := c.Vault.InitialSupplyAmount()
	if err != nil {
		return err
	}
	if supply.Sign() == 0 {
		return fmt.Errorf("vault: InitialSupply must be positive")
	}
	if _, _, err := c.Vault.CuratorAddress(); err != nil {
		return err
	}
	params, err := c.Vault.AuctionParams()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}
	if err := c.Vault.BuyoutParams().Validate(); err != nil {
		return err
	}
	if c.Vault.PriceWindow == 0 {
		return fmt.Errorf("vault: PriceWindow must be positive")
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "leveldb", "bolt":
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	switch strings.ToLower(strings.TrimSpace(c.Archive.Driver)) {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("archive: unknown driver %q", c.Archive.Driver)
	}
	if c.RPC.RequestsPerSecond < 0 || c.RPC.Burst < 0 {
		return fmt.Errorf("rpc: rate limits must not be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0, 1]")
	}
	if c.Keeper.Enabled {
		if _, err := cron.ParseStandard(c.Keeper.Schedule); err != nil {
			return fmt.Errorf("keeper: invalid schedule %q: %w", c.Keeper.Schedule, err)
		}
	}
	if _, err := c.Allocations(); err != nil {
		return err
	}
	return nil
}
