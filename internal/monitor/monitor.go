package monitor

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/grandir66/dadude/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// Module implements the Monitor liveness-checking plugin.
type Module struct {
	logger    *zap.Logger
	cfg       MonitorConfig
	store     *MonitorStore
	scheduler *Scheduler

	// agent is the optional remote-agent transport, injected before Init
	// by the composition root. Nil means local probes only.
	agent AgentClient
}

// New creates a new Monitor plugin instance.
func New() *Module {
	return &Module{}
}

// WithAgentClient injects the remote-agent transport. Must be called before
// Init.
func (m *Module) WithAgentClient(c AgentClient) *Module {
	m.agent = c
	return m
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "monitor",
		Version:      "0.1.0",
		Description:  "Periodic device liveness monitoring",
		Dependencies: []string{"inventory"},
		Roles:        []string{"monitoring"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	// Load config with defaults.
	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if d := deps.Config.GetDuration("check_interval"); d > 0 {
			m.cfg.CheckInterval = d
		}
		if d := deps.Config.GetDuration("check_timeout"); d > 0 {
			m.cfg.CheckTimeout = d
		}
		if v := deps.Config.GetInt("max_workers"); v > 0 {
			m.cfg.MaxWorkers = v
		}
		if v := deps.Config.GetInt("ping_count"); v > 0 {
			m.cfg.PingCount = v
		}
		if deps.Config.IsSet("default_agents") {
			var cfg MonitorConfig
			if err := deps.Config.Unmarshal(&cfg); err == nil {
				m.cfg.DefaultAgents = cfg.DefaultAgents
			}
		}
	}

	// The inventory module owns the device schema; monitor only reads and
	// writes liveness columns, so it has no migrations of its own.
	m.store = NewMonitorStore(deps.Store)
	resolver := NewResolver(m.agent, m.cfg)
	m.scheduler = NewScheduler(m.store, resolver, m.cfg, deps.Bus, m.logger.Named("tick"))

	m.logger.Info("monitor module initialized",
		zap.Duration("check_interval", m.cfg.CheckInterval),
		zap.Int("max_workers", m.cfg.MaxWorkers),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.scheduler.Start(context.Background())
	m.logger.Info("monitor module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.scheduler.Stop()
	m.logger.Info("monitor module stopped")
	return nil
}

// Scheduler returns the tick driver, for callers that trigger ticks manually.
func (m *Module) Scheduler() *Scheduler {
	return m.scheduler
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{
		Status: "ok",
		Details: map[string]string{
			"tick_running":   strconv.FormatBool(m.scheduler.Running()),
			"check_interval": m.cfg.CheckInterval.String(),
			"max_workers":    strconv.Itoa(m.cfg.MaxWorkers),
		},
	}
}
