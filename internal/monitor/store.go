package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/grandir66/dadude/pkg/models"
	"github.com/grandir66/dadude/pkg/plugin"
)

// MonitorStore reads and writes the liveness columns of the shared inventory
// table. The inventory module owns the schema; this store only touches
// status, last_check and last_seen.
type MonitorStore struct {
	store plugin.Store
	db    *sql.DB
}

func NewMonitorStore(s plugin.Store) *MonitorStore {
	return &MonitorStore{store: s, db: s.DB()}
}

// MonitoredDevice is the slice of an inventory record the scheduler needs to
// run and record one liveness check.
type MonitoredDevice struct {
	ID                string
	CustomerID        string
	Hostname          string
	PrimaryIP         string
	Status            models.DeviceStatus
	MonitoringKind    models.MonitoringKind
	MonitoringPort    int
	MonitoringAgentID string
}

// ListMonitoredDevices returns all active devices due for liveness checks:
// explicitly monitored ones plus legacy records whose monitoring kind is a
// live-checking kind.
func (s *MonitorStore) ListMonitoredDevices(ctx context.Context) ([]MonitoredDevice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, hostname, primary_ip, status,
		       monitoring_kind, monitoring_port, monitoring_agent_id
		FROM inventory_devices
		WHERE active = 1
		  AND (monitored = 1 OR monitoring_kind IN ('icmp', 'tcp', 'agent'))
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list monitored devices: %w", err)
	}
	defer rows.Close()

	var devices []MonitoredDevice
	for rows.Next() {
		var (
			d        MonitoredDevice
			hostname sql.NullString
			ip       sql.NullString
			status   string
			kind     string
			port     sql.NullInt64
			agentID  sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.CustomerID, &hostname, &ip, &status, &kind, &port, &agentID); err != nil {
			return nil, fmt.Errorf("scan monitored device: %w", err)
		}
		d.Hostname = hostname.String
		d.PrimaryIP = ip.String
		d.Status = models.DeviceStatus(status)
		d.MonitoringKind = models.MonitoringKind(kind)
		d.MonitoringPort = int(port.Int64)
		d.MonitoringAgentID = agentID.String
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// CheckOutcome is one device's completed liveness check, ready to persist.
type CheckOutcome struct {
	DeviceID   string
	CustomerID string
	Previous   models.DeviceStatus
	Status     models.DeviceStatus
	Latency    time.Duration
	Err        string
}

// Changed reports whether the check observed a status transition.
func (o CheckOutcome) Changed() bool {
	return o.Status != o.Previous
}

// ApplyOutcomes commits a tick's results as one transaction. last_check is
// always stamped; last_seen advances only on an up result.
func (s *MonitorStore) ApplyOutcomes(ctx context.Context, outcomes []CheckOutcome, now time.Time) error {
	if len(outcomes) == 0 {
		return nil
	}
	return s.store.Tx(ctx, func(tx *sql.Tx) error {
		for _, o := range outcomes {
			var err error
			if o.Status == models.DeviceStatusUp {
				_, err = tx.ExecContext(ctx, `
					UPDATE inventory_devices
					SET status = ?, last_check = ?, last_seen = ?, updated_at = ?
					WHERE id = ?`,
					string(o.Status), now, now, now, o.DeviceID)
			} else {
				_, err = tx.ExecContext(ctx, `
					UPDATE inventory_devices
					SET status = ?, last_check = ?, updated_at = ?
					WHERE id = ?`,
					string(o.Status), now, now, o.DeviceID)
			}
			if err != nil {
				return fmt.Errorf("apply check for device %s: %w", o.DeviceID, err)
			}
		}
		return nil
	})
}
