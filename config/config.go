package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ricks/crypto"
	"ricks/native/auction"
	"ricks/native/buyout"
	"ricks/native/pricing"
)

type Config struct {
	DataDir   string       `toml:"DataDir" yaml:"dataDir"`
	Vault     Vault        `toml:"Vault" yaml:"vault"`
	Storage   Storage      `toml:"Storage" yaml:"storage"`
	RPC       RPC          `toml:"RPC" yaml:"rpc"`
	Archive   Archive      `toml:"Archive" yaml:"archive"`
	Keeper    Keeper       `toml:"Keeper" yaml:"keeper"`
	Logging   Logging      `toml:"Logging" yaml:"logging"`
	Telemetry Telemetry    `toml:"Telemetry" yaml:"telemetry"`
	Genesis   []Allocation `toml:"Genesis" yaml:"genesis"`
}

// Default returns the reference deployment: 100 shares, 5% daily inflation,
// 24h cooldown, 4h auctions, a 5% minimum raise and a five-auction window.
func Default() *Config {
	params := auction.DefaultParams()
	premium := buyout.DefaultParams()
	return &Config{
		DataDir: "./ricks-data",
		Vault: Vault{
			AssetID:                "asset-1",
			InitialSupply:          "100",
			InflationRate:          params.InflationRate,
			InflationPeriodSeconds: params.InflationPeriod,
			CooldownSeconds:        params.Cooldown,
			DurationSeconds:        params.Duration,
			MinIncrementBps:        params.MinIncrementBps,
			ReservePrice:           params.ReservePrice.String(),
			PriceWindow:            pricing.DefaultWindow,
			MaxPremiumBps:          premium.MaxPremiumBps,
			MinPremiumBps:          premium.MinPremiumBps,
		},
		Storage: Storage{Backend: "leveldb"},
		RPC: RPC{
			ListenAddress:      ":8080",
			JWTSecretEnv:       "RICKS_JWT_SECRET",
			JWTIssuer:          "ricks",
			RequestsPerSecond:  10,
			Burst:              20,
			SignatureSkewSecs:  120,
			ReadTimeoutSeconds: 15,
		},
		Archive: Archive{Driver: "sqlite"},
		Keeper:  Keeper{Schedule: "@every 1m"},
		Logging: Logging{Env: "dev", Level: "info", MaxSizeMB: 100, MaxBackups: 5},
		Genesis: []Allocation{},
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load loads the configuration from the given path. A missing file is created
// with defaults. Files ending in .yaml or .yml are parsed as YAML, everything
// else as TOML.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./ricks-data"
	}
	if strings.TrimSpace(c.Storage.Backend) == "" {
		c.Storage.Backend = "leveldb"
	}
	if strings.TrimSpace(c.Storage.Path) == "" && c.Storage.Backend != "memory" {
		c.Storage.Path = filepath.Join(c.DataDir, "state")
	}
	if c.Vault.PriceWindow == 0 {
		c.Vault.PriceWindow = pricing.DefaultWindow
	}
	if strings.TrimSpace(c.Vault.ReservePrice) == "" {
		c.Vault.ReservePrice = "1"
	}
	if c.Genesis == nil {
		c.Genesis = []Allocation{}
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		defer enc.Close()
		return enc.Encode(cfg)
	}
	return toml.NewEncoder(f).Encode(cfg)
}

func parseAmount(field, raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", field, raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%s: amount must not be negative", field)
	}
	return value, nil
}

// InitialSupply returns the shares minted to the curator on activation.
func (v Vault) InitialSupplyAmount() (*big.Int, error) {
	return parseAmount("vault.InitialSupply", v.InitialSupply)
}

// CuratorAddress returns the configured curator. The boolean is false when
// anyone may activate.
func (v Vault) CuratorAddress() ([20]byte, bool, error) {
	raw := strings.TrimSpace(v.Curator)
	if raw == "" {
		return [20]byte{}, false, nil
	}
	addr, err := crypto.DecodeAddress(raw)
	if err != nil {
		return [20]byte{}, false, fmt.Errorf("vault.Curator: %w", err)
	}
	return addr.Raw(), true, nil
}

// AuctionParams converts the section into engine parameters.
func (v Vault) AuctionParams() (auction.Params, error) {
	reserve, err := parseAmount("vault.ReservePrice", v.ReservePrice)
	if err != nil {
		return auction.Params{}, err
	}
	return auction.Params{
		InflationRate:   v.InflationRate,
		InflationPeriod: v.InflationPeriodSeconds,
		Cooldown:        v.CooldownSeconds,
		Duration:        v.DurationSeconds,
		MinIncrementBps: v.MinIncrementBps,
		ReservePrice:    reserve,
	}, nil
}

func (v Vault) BuyoutParams() buyout.Params {
	return buyout.Params{MaxPremiumBps: v.MaxPremiumBps, MinPremiumBps: v.MinPremiumBps}
}

// Allocations decodes the genesis section.
func (c *Config) Allocations() (map[[20]byte]*big.Int, error) {
	out := make(map[[20]byte]*big.Int, len(c.Genesis))
	for i, alloc := range c.Genesis {
		addr, err := crypto.DecodeAddress(strings.TrimSpace(alloc.Address))
		if err != nil {
			return nil, fmt.Errorf("genesis[%d]: %w", i, err)
		}
		amount, err := parseAmount(fmt.Sprintf("genesis[%d]", i), alloc.Amount)
		if err != nil {
			return nil, err
		}
		key := addr.Raw()
		if existing, ok := out[key]; ok {
			amount = new(big.Int).Add(existing, amount)
		}
		out[key] = amount
	}
	return out, nil
}
