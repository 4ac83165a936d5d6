package monitor

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/grandir66/dadude/internal/store"
	"github.com/grandir66/dadude/pkg/models"
)

// testStore creates an in-memory store carrying the liveness slice of the
// device table this module reads and writes. The inventory module owns the
// full schema in production.
func testStore(t *testing.T) *MonitorStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.DB().Exec(`CREATE TABLE inventory_devices (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		hostname TEXT,
		primary_ip TEXT,
		status TEXT NOT NULL DEFAULT 'unknown',
		monitored INTEGER NOT NULL DEFAULT 0,
		monitoring_kind TEXT NOT NULL DEFAULT 'none',
		monitoring_port INTEGER,
		monitoring_agent_id TEXT,
		last_seen DATETIME,
		last_check DATETIME,
		active INTEGER NOT NULL DEFAULT 1,
		updated_at DATETIME
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return NewMonitorStore(db)
}

func insertMonitored(t *testing.T, s *MonitorStore, d MonitoredDevice, active bool, monitored bool) {
	t.Helper()
	activeInt := 0
	if active {
		activeInt = 1
	}
	monitoredInt := 0
	if monitored {
		monitoredInt = 1
	}
	status := d.Status
	if status == "" {
		status = models.DeviceStatusUnknown
	}
	kind := d.MonitoringKind
	if kind == "" {
		kind = models.MonitoringNone
	}
	_, err := s.db.Exec(`
		INSERT INTO inventory_devices
			(id, customer_id, hostname, primary_ip, status, monitored,
			 monitoring_kind, monitoring_port, monitoring_agent_id, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CustomerID, d.Hostname, d.PrimaryIP, string(status), monitoredInt,
		string(kind), d.MonitoringPort, d.MonitoringAgentID, activeInt)
	if err != nil {
		t.Fatalf("insert device: %v", err)
	}
}

func TestListMonitoredDevices_Selection(t *testing.T) {
	s := testStore(t)

	insertMonitored(t, s, MonitoredDevice{ID: "flagged", CustomerID: "c1"}, true, true)
	insertMonitored(t, s, MonitoredDevice{ID: "legacy-icmp", CustomerID: "c1", MonitoringKind: models.MonitoringICMP}, true, false)
	insertMonitored(t, s, MonitoredDevice{ID: "plain", CustomerID: "c1"}, true, false)
	insertMonitored(t, s, MonitoredDevice{ID: "inactive", CustomerID: "c1"}, false, true)

	devices, err := s.ListMonitoredDevices(context.Background())
	if err != nil {
		t.Fatalf("ListMonitoredDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2 (flagged + legacy)", len(devices))
	}
	ids := map[string]bool{}
	for _, d := range devices {
		ids[d.ID] = true
	}
	if !ids["flagged"] || !ids["legacy-icmp"] {
		t.Errorf("wrong selection: %v", ids)
	}
}

func TestApplyOutcomes_LastSeenOnlyOnUp(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	insertMonitored(t, s, MonitoredDevice{ID: "up-dev", CustomerID: "c1"}, true, true)
	insertMonitored(t, s, MonitoredDevice{ID: "down-dev", CustomerID: "c1"}, true, true)
	insertMonitored(t, s, MonitoredDevice{ID: "unknown-dev", CustomerID: "c1"}, true, true)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	err := s.ApplyOutcomes(ctx, []CheckOutcome{
		{DeviceID: "up-dev", Status: models.DeviceStatusUp},
		{DeviceID: "down-dev", Status: models.DeviceStatusDown},
		{DeviceID: "unknown-dev", Status: models.DeviceStatusUnknown, Err: "timeout"},
	}, now)
	if err != nil {
		t.Fatalf("ApplyOutcomes: %v", err)
	}

	type row struct {
		status    string
		lastSeen  sql.NullTime
		lastCheck sql.NullTime
	}
	read := func(id string) row {
		var r row
		err := s.db.QueryRow(
			`SELECT status, last_seen, last_check FROM inventory_devices WHERE id = ?`, id).
			Scan(&r.status, &r.lastSeen, &r.lastCheck)
		if err != nil {
			t.Fatalf("read %s: %v", id, err)
		}
		return r
	}

	up := read("up-dev")
	if up.status != "up" || !up.lastSeen.Valid || !up.lastCheck.Valid {
		t.Errorf("up device: %+v", up)
	}

	down := read("down-dev")
	if down.status != "down" || !down.lastCheck.Valid {
		t.Errorf("down device: %+v", down)
	}
	if down.lastSeen.Valid {
		t.Error("last_seen advanced on a down result")
	}

	unknown := read("unknown-dev")
	if unknown.status != "unknown" || !unknown.lastCheck.Valid {
		t.Errorf("unknown device: %+v", unknown)
	}
	if unknown.lastSeen.Valid {
		t.Error("last_seen advanced on an unknown result")
	}
}

func TestApplyOutcomes_Empty(t *testing.T) {
	s := testStore(t)
	if err := s.ApplyOutcomes(context.Background(), nil, time.Now()); err != nil {
		t.Fatalf("ApplyOutcomes(nil): %v", err)
	}
}
