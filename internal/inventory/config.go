package inventory

import "time"

type InventoryConfig struct {
	// ScoreMargin is the completeness advantage a discovered record needs
	// before overwrite is preferred over merge.
	ScoreMargin float64 `mapstructure:"score_margin"`
	// CleanupThreshold is how long a record may go unverified before it is
	// marked for cleanup.
	CleanupThreshold time.Duration `mapstructure:"cleanup_threshold"`
	// CleanupGrace is how long a marked record waits before the second
	// sweep acts on it. Any re-verification during the grace window clears
	// the mark.
	CleanupGrace    time.Duration `mapstructure:"cleanup_grace"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	CleanupEnabled  bool          `mapstructure:"cleanup_enabled"`
}

func DefaultConfig() InventoryConfig {
	return InventoryConfig{
		ScoreMargin:      DefaultScoreMargin,
		CleanupThreshold: 90 * 24 * time.Hour,
		CleanupGrace:     7 * 24 * time.Hour,
		CleanupInterval:  24 * time.Hour,
		CleanupEnabled:   true,
	}
}
