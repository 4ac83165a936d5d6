package inventory

import (
	"database/sql"

	"github.com/grandir66/dadude/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create inventory devices table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS inventory_devices (
						id TEXT PRIMARY KEY,
						customer_id TEXT NOT NULL,
						name TEXT NOT NULL,
						hostname TEXT,
						primary_ip TEXT,
						primary_mac TEXT,
						device_type TEXT NOT NULL DEFAULT 'other',
						category TEXT,
						manufacturer TEXT,
						model TEXT,
						serial_number TEXT,
						os_family TEXT,
						os_version TEXT,
						cpu_cores INTEGER,
						ram_total_gb REAL,
						open_ports TEXT,
						status TEXT NOT NULL DEFAULT 'unknown',
						monitored INTEGER NOT NULL DEFAULT 0,
						monitoring_kind TEXT NOT NULL DEFAULT 'none',
						monitoring_port INTEGER,
						monitoring_agent_id TEXT,
						last_seen DATETIME,
						last_check DATETIME,
						active INTEGER NOT NULL DEFAULT 1,
						created_at DATETIME NOT NULL,
						updated_at DATETIME NOT NULL,
						first_seen_at DATETIME,
						last_verified_at DATETIME,
						verification_count INTEGER NOT NULL DEFAULT 0,
						cleanup_marked_at DATETIME
					)`,
					`CREATE INDEX IF NOT EXISTS idx_inventory_customer_mac ON inventory_devices(customer_id, primary_mac)`,
					`CREATE INDEX IF NOT EXISTS idx_inventory_customer_ip ON inventory_devices(customer_id, primary_ip)`,
					`CREATE INDEX IF NOT EXISTS idx_inventory_customer_hostname ON inventory_devices(customer_id, hostname)`,
					`CREATE INDEX IF NOT EXISTS idx_inventory_cleanup ON inventory_devices(active, cleanup_marked_at)`,
					`CREATE INDEX IF NOT EXISTS idx_inventory_monitored ON inventory_devices(active, monitored, monitoring_kind)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
