package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/grandir66/dadude/pkg/models"
	"github.com/grandir66/dadude/pkg/plugin"
)

// InventoryStore provides database operations for the inventory module.
// All reads used for identity resolution are scoped to active records of a
// single customer; batch lifecycle updates commit as one transaction.
type InventoryStore struct {
	store plugin.Store
	db    *sql.DB
}

// NewInventoryStore creates a new InventoryStore backed by the shared store.
func NewInventoryStore(s plugin.Store) *InventoryStore {
	return &InventoryStore{store: s, db: s.DB()}
}

const deviceColumns = `
	id, customer_id, name, hostname, primary_ip, primary_mac,
	device_type, category, manufacturer, model, serial_number,
	os_family, os_version, cpu_cores, ram_total_gb, open_ports,
	status, monitored, monitoring_kind, monitoring_port, monitoring_agent_id,
	last_seen, last_check, active, created_at, updated_at,
	first_seen_at, last_verified_at, verification_count, cleanup_marked_at`

// InsertDevice persists a new device record.
func (s *InventoryStore) InsertDevice(ctx context.Context, d *models.Device) error {
	ports, err := marshalPorts(d.OpenPorts)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO inventory_devices (`+deviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.CustomerID, d.Name, nullStr(d.Hostname), nullStr(d.PrimaryIP), nullStr(d.PrimaryMAC),
		string(d.DeviceType), nullStr(d.Category), nullStr(d.Manufacturer), nullStr(d.Model), nullStr(d.SerialNumber),
		nullStr(d.OSFamily), nullStr(d.OSVersion), nullInt(d.CPUCores), nullFloat(d.RAMTotalGB), ports,
		string(d.Status), boolInt(d.Monitored), string(d.MonitoringKind), nullInt(d.MonitoringPort), nullStr(d.MonitoringAgentID),
		nullTime(d.LastSeen), nullTime(d.LastCheck), boolInt(d.Active), d.CreatedAt, d.UpdatedAt,
		nullTime(d.FirstSeenAt), nullTime(d.LastVerifiedAt), d.VerificationCount, nullTime(d.CleanupMarkedAt),
	)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// UpdateDevice rewrites all mutable fields of an existing device record.
func (s *InventoryStore) UpdateDevice(ctx context.Context, d *models.Device) error {
	ports, err := marshalPorts(d.OpenPorts)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_devices SET
			name = ?, hostname = ?, primary_ip = ?, primary_mac = ?,
			device_type = ?, category = ?, manufacturer = ?, model = ?, serial_number = ?,
			os_family = ?, os_version = ?, cpu_cores = ?, ram_total_gb = ?, open_ports = ?,
			status = ?, monitored = ?, monitoring_kind = ?, monitoring_port = ?, monitoring_agent_id = ?,
			last_seen = ?, last_check = ?, active = ?, updated_at = ?,
			first_seen_at = ?, last_verified_at = ?, verification_count = ?, cleanup_marked_at = ?
		WHERE id = ?`,
		d.Name, nullStr(d.Hostname), nullStr(d.PrimaryIP), nullStr(d.PrimaryMAC),
		string(d.DeviceType), nullStr(d.Category), nullStr(d.Manufacturer), nullStr(d.Model), nullStr(d.SerialNumber),
		nullStr(d.OSFamily), nullStr(d.OSVersion), nullInt(d.CPUCores), nullFloat(d.RAMTotalGB), ports,
		string(d.Status), boolInt(d.Monitored), string(d.MonitoringKind), nullInt(d.MonitoringPort), nullStr(d.MonitoringAgentID),
		nullTime(d.LastSeen), nullTime(d.LastCheck), boolInt(d.Active), d.UpdatedAt,
		nullTime(d.FirstSeenAt), nullTime(d.LastVerifiedAt), d.VerificationCount, nullTime(d.CleanupMarkedAt),
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("update device %s: not found", d.ID)
	}
	return nil
}

// GetDevice returns a device by ID. Returns nil, nil if not found.
func (s *InventoryStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM inventory_devices WHERE id = ?`, id)
	return scanDevice(row)
}

// FindByMAC returns active devices of the customer with the given MAC address.
func (s *InventoryStore) FindByMAC(ctx context.Context, customerID, mac string) ([]models.Device, error) {
	return s.findBy(ctx, customerID, "primary_mac", mac)
}

// FindByIP returns active devices of the customer with the given primary IP.
func (s *InventoryStore) FindByIP(ctx context.Context, customerID, ip string) ([]models.Device, error) {
	return s.findBy(ctx, customerID, "primary_ip", ip)
}

// FindByHostname returns active devices of the customer with the given hostname.
func (s *InventoryStore) FindByHostname(ctx context.Context, customerID, hostname string) ([]models.Device, error) {
	return s.findBy(ctx, customerID, "hostname", hostname)
}

func (s *InventoryStore) findBy(ctx context.Context, customerID, column, value string) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM inventory_devices
		 WHERE customer_id = ? AND active = 1 AND `+column+` = ?
		 ORDER BY id`,
		customerID, value)
	if err != nil {
		return nil, fmt.Errorf("find devices by %s: %w", column, err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// MarkForCleanup stamps cleanup_marked_at on active, unmarked devices whose
// last verification is absent or older than the threshold. Returns the number
// of devices marked. Empty customerID applies to all customers.
func (s *InventoryStore) MarkForCleanup(ctx context.Context, customerID string, threshold, markedAt time.Time) (int64, error) {
	query := `
		UPDATE inventory_devices SET cleanup_marked_at = ?, updated_at = ?
		WHERE active = 1 AND cleanup_marked_at IS NULL
		  AND (last_verified_at IS NULL OR last_verified_at < ?)`
	args := []any{markedAt, markedAt, threshold}
	if customerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark for cleanup: %w", err)
	}
	return res.RowsAffected()
}

// ListCleanupCandidates returns active devices whose cleanup mark is older
// than the grace threshold. Empty customerID applies to all customers.
func (s *InventoryStore) ListCleanupCandidates(ctx context.Context, customerID string, graceBefore time.Time) ([]models.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM inventory_devices
		WHERE active = 1 AND cleanup_marked_at IS NOT NULL AND cleanup_marked_at < ?`
	args := []any{graceBefore}
	if customerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY cleanup_marked_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cleanup candidates: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// ApplyCleanup commits a cleanup sweep as one transaction: deactivate soft-deletes
// the given devices, demote disables monitoring while leaving them active.
// Demote also clears cleanup_marked_at so the device re-enters the lifecycle
// from the unmarked state instead of being deactivated on the next sweep.
func (s *InventoryStore) ApplyCleanup(ctx context.Context, deactivate, demote []string, now time.Time) error {
	return s.store.Tx(ctx, func(tx *sql.Tx) error {
		for _, id := range deactivate {
			if _, err := tx.ExecContext(ctx,
				`UPDATE inventory_devices SET active = 0, updated_at = ? WHERE id = ?`,
				now, id); err != nil {
				return fmt.Errorf("deactivate device %s: %w", id, err)
			}
		}
		for _, id := range demote {
			if _, err := tx.ExecContext(ctx,
				`UPDATE inventory_devices
				 SET monitored = 0, monitoring_kind = 'none', cleanup_marked_at = NULL, updated_at = ?
				 WHERE id = ?`,
				now, id); err != nil {
				return fmt.Errorf("demote device %s: %w", id, err)
			}
		}
		return nil
	})
}

// ListUnverifiedSince returns active devices of the customer whose last
// verification is absent or older than the threshold.
func (s *InventoryStore) ListUnverifiedSince(ctx context.Context, customerID string, threshold time.Time) ([]models.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM inventory_devices
		WHERE active = 1 AND (last_verified_at IS NULL OR last_verified_at < ?)`
	args := []any{threshold}
	if customerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unverified devices: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// marshalPorts encodes an open-ports list as JSON, NULL when empty.
func marshalPorts(ports []models.Port) (any, error) {
	if len(ports) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ports)
	if err != nil {
		return nil, fmt.Errorf("marshal open ports: %w", err)
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var (
		d         models.Device
		hostname  sql.NullString
		ip        sql.NullString
		mac       sql.NullString
		devType   string
		category  sql.NullString
		manuf     sql.NullString
		model     sql.NullString
		serial    sql.NullString
		osFamily  sql.NullString
		osVersion sql.NullString
		cpuCores  sql.NullInt64
		ramGB     sql.NullFloat64
		ports     sql.NullString
		status    string
		monitored int
		monKind   string
		monPort   sql.NullInt64
		monAgent  sql.NullString
		lastSeen  sql.NullTime
		lastCheck sql.NullTime
		active    int
		firstSeen sql.NullTime
		lastVerif sql.NullTime
		marked    sql.NullTime
	)

	err := row.Scan(
		&d.ID, &d.CustomerID, &d.Name, &hostname, &ip, &mac,
		&devType, &category, &manuf, &model, &serial,
		&osFamily, &osVersion, &cpuCores, &ramGB, &ports,
		&status, &monitored, &monKind, &monPort, &monAgent,
		&lastSeen, &lastCheck, &active, &d.CreatedAt, &d.UpdatedAt,
		&firstSeen, &lastVerif, &d.VerificationCount, &marked,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}

	d.Hostname = hostname.String
	d.PrimaryIP = ip.String
	d.PrimaryMAC = mac.String
	d.DeviceType = models.DeviceType(devType)
	d.Category = category.String
	d.Manufacturer = manuf.String
	d.Model = model.String
	d.SerialNumber = serial.String
	d.OSFamily = osFamily.String
	d.OSVersion = osVersion.String
	d.CPUCores = int(cpuCores.Int64)
	d.RAMTotalGB = ramGB.Float64
	d.Status = models.DeviceStatus(status)
	d.Monitored = monitored != 0
	d.MonitoringKind = models.MonitoringKind(monKind)
	d.MonitoringPort = int(monPort.Int64)
	d.MonitoringAgentID = monAgent.String
	d.Active = active != 0
	d.LastSeen = timePtr(lastSeen)
	d.LastCheck = timePtr(lastCheck)
	d.FirstSeenAt = timePtr(firstSeen)
	d.LastVerifiedAt = timePtr(lastVerif)
	d.CleanupMarkedAt = timePtr(marked)

	if ports.Valid && ports.String != "" {
		if err := json.Unmarshal([]byte(ports.String), &d.OpenPorts); err != nil {
			return nil, fmt.Errorf("unmarshal open ports for %s: %w", d.ID, err)
		}
	}
	return &d, nil
}

func scanDevices(rows *sql.Rows) ([]models.Device, error) {
	var devices []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
