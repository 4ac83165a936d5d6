package monitor

import "time"

type MonitorConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	// CheckTimeout bounds a single liveness check; a check that exceeds it
	// yields status unknown, never an aborted tick.
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	PingCount    int           `mapstructure:"ping_count"`
	// DefaultAgents maps a customer ID to the agent that handles liveness
	// checks for devices without an explicit agent assignment.
	DefaultAgents map[string]string `mapstructure:"default_agents"`
}

func DefaultConfig() MonitorConfig {
	return MonitorConfig{
		CheckInterval: 60 * time.Second,
		CheckTimeout:  15 * time.Second,
		MaxWorkers:    10,
		PingCount:     3,
	}
}
