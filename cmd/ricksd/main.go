package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ricks/config"
	"ricks/core/events"
	vaultstate "ricks/core/state"
	"ricks/crypto"
	"ricks/explorer"
	"ricks/native/vault"
	"ricks/observability"
	"ricks/observability/logging"
	telemetry "ricks/observability/otel"
	"ricks/rpc"
	"ricks/services/keeper"
	"ricks/storage"
)

const hubBuffer = 256

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	allowMigrate := flag.Bool("allow-migrate", false, "Allow starting with a mismatched state schema (manual migrations only)")
	exportPath := flag.String("export-events", "", "Write the event archive to this parquet file and exit")
	exportType := flag.String("export-type", "", "Only export events of this type")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	env := strings.TrimSpace(os.Getenv("RICKS_ENV"))
	if env == "" {
		env = cfg.Logging.Env
	}
	logger := logging.SetupWithOptions("ricksd", env, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if path := strings.TrimSpace(*exportPath); path != "" {
		if err := exportArchive(ctx, cfg, path, *exportType, logger); err != nil {
			logger.Error("archive export failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, env, *allowMigrate, logger); err != nil {
		logger.Error("ricksd exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, env string, allowMigrate bool, logger *slog.Logger) error {
	headers := telemetry.ParseHeaders(cfg.Telemetry.Headers)
	if cfg.Telemetry.Endpoint != "" {
		logger.Info("telemetry exporter",
			slog.String("endpoint", cfg.Telemetry.Endpoint),
			logging.MaskMap("headers", headers))
	}
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "ricksd",
		Environment: env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     headers,
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	state := vaultstate.NewManager(db)
	_, existing, err := state.StateVersion()
	if err != nil {
		return fmt.Errorf("read state version: %w", err)
	}
	if err := vaultstate.EnsureStateVersion(state, allowMigrate); err != nil {
		return err
	}

	hub := events.NewHub(hubBuffer)
	emitters := events.Fanout{hub, observability.Events()}

	archive, err := openArchive(cfg, logger)
	if err != nil {
		return err
	}
	if archive != nil {
		emitters = append(emitters, archive)
	}

	opts, err := vaultOptions(cfg)
	if err != nil {
		return err
	}
	opts.Emitter = emitters
	opts.Logger = logger
	v, err := vault.New(state, opts)
	if err != nil {
		return err
	}

	if !existing {
		if err := applyGenesis(ctx, v, cfg, logger); err != nil {
			return err
		}
	}

	if cfg.Keeper.Enabled {
		k, err := keeper.New(v, cfg.Keeper.Schedule, logger)
		if err != nil {
			return err
		}
		if err := k.Start(ctx); err != nil {
			return err
		}
		defer k.Stop()
	}

	server, err := rpc.NewServer(v, hub, archive, rpcConfig(cfg), logger)
	if err != nil {
		return err
	}
	if addr := strings.TrimSpace(cfg.RPC.HealthAddress); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen health: %w", err)
		}
		go func() {
			if err := server.ServeHealth(ctx, lis); err != nil {
				logger.Error("health server stopped", slog.Any("error", err))
			}
		}()
	}
	logger.Info("vault ready",
		slog.String("asset", v.AssetID()),
		slog.String("backend", cfg.Storage.Backend),
		slog.Bool("archive", archive != nil),
		slog.Bool("keeper", cfg.Keeper.Enabled))
	return server.Serve(ctx)
}

func vaultOptions(cfg *config.Config) (vault.Options, error) {
	opts := vault.DefaultOptions()
	opts.AssetID = cfg.Vault.AssetID
	supply, err := cfg.Vault.InitialSupplyAmount()
	if err != nil {
		return opts, err
	}
	opts.InitialSupply = supply
	if opts.Curator, opts.HasCurator, err = cfg.Vault.CuratorAddress(); err != nil {
		return opts, err
	}
	if opts.Auction, err = cfg.Vault.AuctionParams(); err != nil {
		return opts, err
	}
	opts.Buyout = cfg.Vault.BuyoutParams()
	opts.PriceWindow = cfg.Vault.PriceWindow
	return opts, nil
}

func rpcConfig(cfg *config.Config) rpc.Config {
	var secret []byte
	if name := strings.TrimSpace(cfg.RPC.JWTSecretEnv); name != "" {
		secret = []byte(strings.TrimSpace(os.Getenv(name)))
	}
	return rpc.Config{
		ListenAddress:     cfg.RPC.ListenAddress,
		JWTSecret:         secret,
		JWTIssuer:         cfg.RPC.JWTIssuer,
		RequestsPerSecond: cfg.RPC.RequestsPerSecond,
		Burst:             cfg.RPC.Burst,
		SignatureSkew:     time.Duration(cfg.RPC.SignatureSkewSecs) * time.Second,
		EnableFaucet:      cfg.RPC.EnableFaucet,
		ReadTimeout:       time.Duration(cfg.RPC.ReadTimeoutSeconds) * time.Second,
	}
}

// applyGenesis credits the configured allocations into a freshly created
// state.
func applyGenesis(ctx context.Context, v *vault.Vault, cfg *config.Config, logger *slog.Logger) error {
	allocations, err := cfg.Allocations()
	if err != nil {
		return err
	}
	for addr, amount := range allocations {
		if err := v.Faucet(ctx, addr, amount); err != nil {
			return fmt.Errorf("genesis allocation: %w", err)
		}
		logger.Info("genesis allocation",
			slog.String("address", crypto.FromRaw(addr).String()),
			slog.String("amount", amount.String()))
	}
	return nil
}

func openArchive(cfg *config.Config, logger *slog.Logger) (*explorer.Archive, error) {
	if strings.TrimSpace(cfg.Archive.DSN) == "" {
		return nil, nil
	}
	gdb, err := explorer.Open(cfg.Archive.Driver, cfg.Archive.DSN)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	archive, err := explorer.NewArchive(gdb, logger)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	return archive, nil
}

func exportArchive(ctx context.Context, cfg *config.Config, path, eventType string, logger *slog.Logger) error {
	archive, err := openArchive(cfg, logger)
	if err != nil {
		return err
	}
	if archive == nil {
		return fmt.Errorf("archive disabled; set Archive.DSN")
	}
	_, err = archive.ExportParquet(ctx, path, explorer.Filter{Type: strings.TrimSpace(eventType)})
	return err
}
