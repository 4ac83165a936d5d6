package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/grandir66/dadude/internal/config"
	"github.com/grandir66/dadude/internal/event"
	"github.com/grandir66/dadude/internal/inventory"
	"github.com/grandir66/dadude/internal/monitor"
	"github.com/grandir66/dadude/internal/probe"
	"github.com/grandir66/dadude/internal/registry"
	"github.com/grandir66/dadude/internal/store"
	"github.com/grandir66/dadude/internal/version"
	"github.com/grandir66/dadude/pkg/plugin"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	scanTarget := flag.String("scan", "", "one-shot: SNMP-scan the target, merge the result into inventory, and exit")
	customerID := flag.String("customer", "default", "customer scope for one-shot operations")
	runCleanup := flag.Bool("cleanup", false, "one-shot: run a lifecycle sweep and exit")
	dryRun := flag.Bool("dry-run", false, "with -cleanup: report candidates without changing anything")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("DaDude starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	// Open database.
	dbPath := viperCfg.GetString("database.path")
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", dbPath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		logger.Fatal("schema version check failed", zap.Error(err))
	}

	// Shared services.
	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(logger.Named("registry"))

	// Register all plugins (compile-time composition).
	modules := []plugin.Plugin{
		inventory.New(),
		monitor.New(),
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		logger.Fatal("plugin validation failed", zap.Error(err))
	}

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg.Sub("plugins." + name),
			Logger:  logger.Named(name),
			Bus:     bus,
			Store:   db,
			Plugins: reg,
		}
	}); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	// One-shot modes exit before any background loops start.
	if *scanTarget != "" {
		os.Exit(runScan(ctx, viperCfg, resolveInventory(reg, logger), logger, *scanTarget, *customerID))
	}
	if *runCleanup {
		os.Exit(runCleanupSweep(ctx, resolveInventory(reg, logger), logger, *customerID, *dryRun))
	}

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	// Metrics and health endpoint.
	metricsAddr := viperCfg.GetString("metrics.addr")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reg.Health(r.Context()))
	})
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	logger.Info("DaDude ready", zap.String("metrics_addr", metricsAddr))

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reg.StopAll(shutdownCtx)
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", zap.Error(err))
	}

	logger.Info("DaDude stopped")
}

// resolveInventory looks the inventory module up through the registry's role
// index rather than a captured variable, so one-shot modes find it however
// the composition registered it.
func resolveInventory(reg *registry.Registry, logger *zap.Logger) *inventory.Module {
	for _, p := range reg.ResolveByRole("inventory") {
		if inv, ok := p.(*inventory.Module); ok {
			return inv
		}
	}
	logger.Fatal("no inventory module registered")
	return nil
}

// runScan performs one SNMP collection against the target and resolves the
// observation into the inventory.
func runScan(ctx context.Context, v *viper.Viper, inv *inventory.Module, logger *zap.Logger, target, customerID string) int {
	collector := probe.NewSNMPCollector(v.GetDuration("probe.snmp.timeout"), logger.Named("snmp"))
	attrs, err := collector.Collect(ctx, target, v.GetString("probe.snmp.community"))
	if err != nil {
		logger.Error("scan failed", zap.String("target", target), zap.Error(err))
		return 1
	}

	observation := inventory.MapAttributes(customerID, attrs)
	result, err := inv.Service().ResolveAndMerge(ctx, &observation)
	if err != nil {
		logger.Error("resolve failed", zap.String("target", target), zap.Error(err))
		return 1
	}

	logger.Info("scan resolved",
		zap.String("device_id", result.Device.ID),
		zap.Bool("created", result.Created),
		zap.String("strategy", string(result.Proposal.Strategy)),
	)
	return 0
}

// runCleanupSweep marks stale records and acts on expired marks, or with
// dryRun only reports what the sweep would touch.
func runCleanupSweep(ctx context.Context, inv *inventory.Module, logger *zap.Logger, customerID string, dryRun bool) int {
	mgr := inv.Cleanup()
	if !dryRun {
		marked, err := mgr.MarkForCleanup(ctx, customerID)
		if err != nil {
			logger.Error("mark sweep failed", zap.Error(err))
			return 1
		}
		logger.Info("mark sweep complete", zap.Int64("marked", marked))
	}

	report, err := mgr.CleanupMarked(ctx, customerID, dryRun)
	if err != nil {
		logger.Error("cleanup sweep failed", zap.Error(err))
		return 1
	}
	logger.Info("cleanup sweep complete",
		zap.Bool("dry_run", report.DryRun),
		zap.Int("candidates", len(report.Candidates)),
		zap.Int("deactivated", len(report.Deactivated)),
		zap.Int("demoted", len(report.Demoted)),
	)
	return 0
}
