package inventory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/grandir66/dadude/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// Module implements the Inventory identity-resolution plugin.
type Module struct {
	logger  *zap.Logger
	cfg     InventoryConfig
	store   *InventoryStore
	bus     plugin.EventBus
	service *Service
	cleanup *CleanupManager

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a new Inventory plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "inventory",
		Version:     "0.1.0",
		Description: "Device identity resolution and lifecycle",
		Roles:       []string{"inventory"},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	// Load config with defaults.
	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if v := deps.Config.GetFloat64("score_margin"); v > 0 {
			m.cfg.ScoreMargin = v
		}
		if d := deps.Config.GetDuration("cleanup_threshold"); d > 0 {
			m.cfg.CleanupThreshold = d
		}
		if d := deps.Config.GetDuration("cleanup_grace"); d > 0 {
			m.cfg.CleanupGrace = d
		}
		if d := deps.Config.GetDuration("cleanup_interval"); d > 0 {
			m.cfg.CleanupInterval = d
		}
		if deps.Config.IsSet("cleanup_enabled") {
			m.cfg.CleanupEnabled = deps.Config.GetBool("cleanup_enabled")
		}
	}

	// Run database migrations.
	if err := deps.Store.Migrate(ctx, "inventory", migrations()); err != nil {
		return err
	}

	m.store = NewInventoryStore(deps.Store)
	m.service = NewService(m.store, m.bus, m.cfg, m.logger.Named("resolve"))
	m.cleanup = NewCleanupManager(m.store, m.bus, m.cfg, m.logger.Named("cleanup"))

	m.logger.Info("inventory module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.runCtx, m.runCancel = context.WithCancel(context.Background())

	if m.cfg.CleanupEnabled {
		m.wg.Add(1)
		go m.runCleanupLoop()
	}

	m.logger.Info("inventory module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.runCancel != nil {
		m.runCancel()
	}
	m.wg.Wait()
	m.logger.Info("inventory module stopped")
	return nil
}

// Service returns the identity-resolution entry point for the probe-ingestion
// pipeline.
func (m *Module) Service() *Service {
	return m.service
}

// Cleanup returns the lifecycle manager, for CLI-triggered sweeps.
func (m *Module) Cleanup() *CleanupManager {
	return m.cleanup
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{
		Status: "ok",
		Details: map[string]string{
			"cleanup_enabled":  strconv.FormatBool(m.cfg.CleanupEnabled),
			"cleanup_interval": m.cfg.CleanupInterval.String(),
		},
	}
}

// runCleanupLoop drives the two-phase lifecycle sweep on a fixed interval.
func (m *Module) runCleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	m.logger.Info("cleanup sweep loop started",
		zap.Duration("interval", m.cfg.CleanupInterval),
		zap.Duration("threshold", m.cfg.CleanupThreshold),
		zap.Duration("grace", m.cfg.CleanupGrace),
	)

	for {
		select {
		case <-m.runCtx.Done():
			m.logger.Info("cleanup sweep loop stopped")
			return
		case <-ticker.C:
			if err := m.cleanup.RunSweep(m.runCtx); err != nil {
				m.logger.Error("cleanup sweep failed", zap.Error(err))
			}
		}
	}
}
