package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"namechain/config"
	"namechain/core"
	"namechain/core/genesis"
	"namechain/gateway/resolver"
	nativecommon "namechain/native/common"
	"namechain/observability"
	"namechain/observability/logging"
	telemetry "namechain/observability/otel"
	"namechain/rpc"
	"namechain/rpc/modules"
	"namechain/services/indexer"
	"namechain/storage"
)

const serviceName = "namechaind"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to the genesis YAML file (overrides config GenesisFile)")
	flag.Parse()

	if err := run(*configFile, *genesisFlag); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(configPath, genesisOverride string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := logging.SetupWithOptions(logging.Options{
		Service: serviceName,
		Env:     cfg.Environment,
		Level:   logging.ParseLevel(cfg.LogLevel),
		File:    config.ResolvePath(configPath, cfg.LogFile),
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	genesisPath := strings.TrimSpace(genesisOverride)
	if genesisPath == "" {
		genesisPath = config.ResolvePath(configPath, cfg.GenesisFile)
	}
	g, err := genesis.Load(genesisPath)
	if err != nil {
		return fmt.Errorf("load genesis: %w", err)
	}

	dataDir := config.ResolvePath(configPath, cfg.DataDir)
	db, err := storage.NewLevelDBWithOptions(dataDir, storage.LevelDBOptions{
		CacheMB: cfg.Storage.CacheMB,
		Handles: cfg.Storage.Handles,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	node, err := core.NewNode(db, g)
	if err != nil {
		return fmt.Errorf("open node: %w", err)
	}
	node.SetLogger(logger)
	if cfg.Registry.Paused {
		node.SetPauses(nativecommon.NewPauses("registry"))
		logger.Warn("registry paused by configuration")
	}
	node.AddSink(observability.Events())

	var history modules.HistorySource
	if dsn := strings.TrimSpace(cfg.IndexerDSN); dsn != "" {
		idx, err := indexer.Open(dsn, logger)
		if err != nil {
			return err
		}
		defer idx.Close()
		node.AddSink(idx)
		history = idx
	}

	logger.Info("node ready",
		slog.Uint64("chain_id", node.ChainID()),
		slog.String("tld", node.TLD()),
		slog.Uint64("height", node.GetHeight()),
		slog.String("state_root", node.StateRoot().Hex()),
		logging.MaskField("jwt_secret", cfg.RPC.JWTSecret))

	group, groupCtx := errgroup.WithContext(ctx)

	server := rpc.NewServer(node, history, serverConfig(cfg), logger)
	group.Go(func() error { return server.Start(groupCtx, cfg.RPCAddress) })

	if addr := strings.TrimSpace(cfg.DNSAddress); addr != "" {
		ttl := time.Duration(cfg.DNS.TTLSeconds) * time.Second
		dnsServer := resolver.NewServer(resolver.NewHandler(resolver.NewNodeBackend(node), ttl, logger), logger)
		group.Go(func() error { return dnsServer.Start(groupCtx, addr) })
	}

	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		group.Go(func() error { return serveMetrics(groupCtx, addr, logger) })
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics listening", slog.String("address", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
