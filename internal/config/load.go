package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/dadude.db")
	v.SetDefault("metrics.addr", "0.0.0.0:9090")

	// Plugin defaults
	v.SetDefault("plugins.inventory.enabled", true)
	v.SetDefault("plugins.inventory.score_margin", 0.1)
	v.SetDefault("plugins.inventory.cleanup_threshold", "2160h")
	v.SetDefault("plugins.inventory.cleanup_grace", "168h")
	v.SetDefault("plugins.inventory.cleanup_interval", "24h")
	v.SetDefault("plugins.inventory.cleanup_enabled", true)
	v.SetDefault("plugins.monitor.enabled", true)
	v.SetDefault("plugins.monitor.check_interval", "60s")
	v.SetDefault("plugins.monitor.check_timeout", "15s")
	v.SetDefault("plugins.monitor.max_workers", 10)
	v.SetDefault("plugins.monitor.ping_count", 3)
	v.SetDefault("probe.snmp.timeout", "5s")
	v.SetDefault("probe.snmp.community", "public")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dadude")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/dadude")
	}

	// Environment variable support: DD_DATABASE_PATH=/var/lib/dadude.db
	v.SetEnvPrefix("DD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
