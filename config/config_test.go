package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ricks/crypto"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "100", cfg.Vault.InitialSupply)
	require.Equal(t, uint64(50), cfg.Vault.InflationRate)
	require.FileExists(t, path)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Vault, again.Vault)
	require.Equal(t, filepath.Join(cfg.DataDir, "state"), again.Storage.Path)
}

func TestLoadParsesTOML(t *testing.T) {
	curator := crypto.FromRaw([20]byte{0x42}).String()
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `DataDir = "/var/lib/ricks"

[Vault]
AssetID = "punk-7804"
Curator = "` + curator + `"
InitialSupply = "1000000000000000000000"
InflationRate = 50
InflationPeriodSeconds = 86400
CooldownSeconds = 3600
DurationSeconds = 600
MinIncrementBps = 250
ReservePrice = "1000"
MaxPremiumBps = 16000
MinPremiumBps = 12000

[Storage]
Backend = "bolt"

[Keeper]
Enabled = true
Schedule = "*/5 * * * *"

[[Genesis]]
Address = "` + curator + `"
Amount = "500"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/ricks/state", cfg.Storage.Path)
	require.Equal(t, uint64(5), cfg.Vault.PriceWindow)

	params, err := cfg.Vault.AuctionParams()
	require.NoError(t, err)
	require.Equal(t, uint64(3600), params.Cooldown)
	require.Equal(t, "1000", params.ReservePrice.String())

	addr, ok, err := cfg.Vault.CuratorAddress()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, [20]byte{0x42}, addr)

	allocs, err := cfg.Allocations()
	require.NoError(t, err)
	require.Equal(t, "500", allocs[addr].String())
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `vault:
  assetId: kitty-1
  initialSupply: "250"
  inflationRate: 30
  inflationPeriodSeconds: 86400
  durationSeconds: 60
  minIncrementBps: 500
  maxPremiumBps: 15000
  minPremiumBps: 11000
storage:
  backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "kitty-1", cfg.Vault.AssetID)
	require.Equal(t, uint64(30), cfg.Vault.InflationRate)
	require.Empty(t, cfg.Storage.Path)
}

func TestValidateRejectsInconsistentParams(t *testing.T) {
	cases := map[string]func(*Config){
		"zero supply":      func(c *Config) { c.Vault.InitialSupply = "0" },
		"zero duration":    func(c *Config) { c.Vault.DurationSeconds = 0 },
		"premium floor":    func(c *Config) { c.Vault.MinPremiumBps = 9_000 },
		"inverted premium": func(c *Config) { c.Vault.MaxPremiumBps = 10_500 },
		"flat premium":     func(c *Config) { c.Vault.MaxPremiumBps, c.Vault.MinPremiumBps = 12_000, 12_000 },
		"bad backend":      func(c *Config) { c.Storage.Backend = "redis" },
		"bad curator":      func(c *Config) { c.Vault.Curator = "nope" },
		"sample ratio":     func(c *Config) { c.Telemetry.SampleRatio = 2 },
		"bad schedule": func(c *Config) {
			c.Keeper.Enabled = true
			c.Keeper.Schedule = "whenever"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.applyDefaults()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsUnknownTOMLField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("ValidatorKey = \"abc\"\n"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
