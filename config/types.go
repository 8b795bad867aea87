package config

// Vault holds the deployment parameters of the fractional vault. Amounts are
// decimal strings in base units.
type Vault struct {
	AssetID                string `toml:"AssetID" yaml:"assetId"`
	Curator                string `toml:"Curator" yaml:"curator"`
	InitialSupply          string `toml:"InitialSupply" yaml:"initialSupply"`
	InflationRate          uint64 `toml:"InflationRate" yaml:"inflationRate"`
	InflationPeriodSeconds uint64 `toml:"InflationPeriodSeconds" yaml:"inflationPeriodSeconds"`
	CooldownSeconds        uint64 `toml:"CooldownSeconds" yaml:"cooldownSeconds"`
	DurationSeconds        uint64 `toml:"DurationSeconds" yaml:"durationSeconds"`
	MinIncrementBps        uint64 `toml:"MinIncrementBps" yaml:"minIncrementBps"`
	ReservePrice           string `toml:"ReservePrice" yaml:"reservePrice"`
	PriceWindow            uint64 `toml:"PriceWindow" yaml:"priceWindow"`
	MaxPremiumBps          uint64 `toml:"MaxPremiumBps" yaml:"maxPremiumBps"`
	MinPremiumBps          uint64 `toml:"MinPremiumBps" yaml:"minPremiumBps"`
}

// Storage selects the state backend.
type Storage struct {
	Backend string `toml:"Backend" yaml:"backend"`
	Path    string `toml:"Path" yaml:"path"`
}

// RPC configures the HTTP API.
type RPC struct {
	ListenAddress      string  `toml:"ListenAddress" yaml:"listenAddress"`
	JWTSecretEnv       string  `toml:"JWTSecretEnv" yaml:"jwtSecretEnv"`
	JWTIssuer          string  `toml:"JWTIssuer" yaml:"jwtIssuer"`
	RequestsPerSecond  float64 `toml:"RequestsPerSecond" yaml:"requestsPerSecond"`
	Burst              int     `toml:"Burst" yaml:"burst"`
	SignatureSkewSecs  int64   `toml:"SignatureSkewSeconds" yaml:"signatureSkewSeconds"`
	EnableFaucet       bool    `toml:"EnableFaucet" yaml:"enableFaucet"`
	ReadTimeoutSeconds int     `toml:"ReadTimeoutSeconds" yaml:"readTimeoutSeconds"`
	HealthAddress      string  `toml:"HealthAddress" yaml:"healthAddress"`
}

// Archive configures the event archive database. An empty DSN disables it.
type Archive struct {
	Driver string `toml:"Driver" yaml:"driver"`
	DSN    string `toml:"DSN" yaml:"dsn"`
}

// Keeper configures the optional settlement job.
type Keeper struct {
	Enabled  bool   `toml:"Enabled" yaml:"enabled"`
	Schedule string `toml:"Schedule" yaml:"schedule"`
}

type Logging struct {
	Env        string `toml:"Env" yaml:"env"`
	Level      string `toml:"Level" yaml:"level"`
	File       string `toml:"File" yaml:"file"`
	MaxSizeMB  int    `toml:"MaxSizeMB" yaml:"maxSizeMB"`
	MaxBackups int    `toml:"MaxBackups" yaml:"maxBackups"`
}

type Telemetry struct {
	Endpoint string `toml:"Endpoint" yaml:"endpoint"`
	Insecure bool   `toml:"Insecure" yaml:"insecure"`
	Headers  string `toml:"Headers" yaml:"headers"`
	Traces   bool   `toml:"Traces" yaml:"traces"`
	Metrics  bool   `toml:"Metrics" yaml:"metrics"`
	// SampleRatio is the fraction of root spans kept; 0 keeps all.
	SampleRatio float64 `toml:"SampleRatio" yaml:"sampleRatio"`
}

// Allocation pre-funds a native balance when the state is created.
type Allocation struct {
	Address string `toml:"Address" yaml:"address"`
	Amount  string `toml:"Amount" yaml:"amount"`
}
