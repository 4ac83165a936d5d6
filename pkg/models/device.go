package models

import "time"

// DeviceType categorizes an inventory device.
type DeviceType string

const (
	DeviceTypeWindows  DeviceType = "windows"
	DeviceTypeLinux    DeviceType = "linux"
	DeviceTypeMikroTik DeviceType = "mikrotik"
	DeviceTypeNetwork  DeviceType = "network"
	DeviceTypeNAS      DeviceType = "nas"
	DeviceTypePrinter  DeviceType = "printer"
	DeviceTypeOther    DeviceType = "other"
)

// DeviceStatus represents the last observed liveness state of a device.
type DeviceStatus string

const (
	DeviceStatusUnknown DeviceStatus = "unknown"
	DeviceStatusUp      DeviceStatus = "up"
	DeviceStatusDown    DeviceStatus = "down"
)

// MonitoringKind selects how a device's liveness is checked.
type MonitoringKind string

const (
	MonitoringNone  MonitoringKind = "none"
	MonitoringICMP  MonitoringKind = "icmp"
	MonitoringTCP   MonitoringKind = "tcp"
	MonitoringAgent MonitoringKind = "agent"
)

// LiveChecking reports whether the kind requires active liveness checks
// from this server. Agent-side netwatch kinds are excluded.
func (k MonitoringKind) LiveChecking() bool {
	switch k {
	case MonitoringICMP, MonitoringTCP, MonitoringAgent:
		return true
	default:
		return false
	}
}

// Port is a single observed open port on a device.
type Port struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service,omitempty"`
}

// Device is the canonical, durable inventory record for one physical device
// within one customer scope. Uniqueness is soft: the duplicate matcher, not a
// key constraint, keeps one record per device, because the MAC address may be
// absent on first sighting.
type Device struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`

	// Identity.
	Name       string `json:"name"`
	Hostname   string `json:"hostname,omitempty"`
	PrimaryIP  string `json:"primary_ip,omitempty"`
	PrimaryMAC string `json:"primary_mac,omitempty"`

	// Description.
	DeviceType   DeviceType `json:"device_type"`
	Category     string     `json:"category,omitempty"`
	Manufacturer string     `json:"manufacturer,omitempty"`
	Model        string     `json:"model,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	OSFamily     string     `json:"os_family,omitempty"`
	OSVersion    string     `json:"os_version,omitempty"`
	CPUCores     int        `json:"cpu_cores,omitempty"`
	RAMTotalGB   float64    `json:"ram_total_gb,omitempty"`
	OpenPorts    []Port     `json:"open_ports,omitempty"`

	// Liveness.
	Status            DeviceStatus   `json:"status"`
	Monitored         bool           `json:"monitored"`
	MonitoringKind    MonitoringKind `json:"monitoring_kind"`
	MonitoringPort    int            `json:"monitoring_port,omitempty"`
	MonitoringAgentID string         `json:"monitoring_agent_id,omitempty"`
	LastSeen          *time.Time     `json:"last_seen,omitempty"`
	LastCheck         *time.Time     `json:"last_check,omitempty"`

	// Lifecycle.
	Active            bool       `json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	FirstSeenAt       *time.Time `json:"first_seen_at,omitempty"`
	LastVerifiedAt    *time.Time `json:"last_verified_at,omitempty"`
	VerificationCount int        `json:"verification_count"`
	CleanupMarkedAt   *time.Time `json:"cleanup_marked_at,omitempty"`
}

// DiscoveredDevice is one probe's raw observation of a device, already reduced
// to a flat attribute set by the probe layer. It is ephemeral: consumed once
// by identity resolution, then discarded.
type DiscoveredDevice struct {
	CustomerID string `json:"customer_id"`

	// Identity hints. Any may be empty; all empty means no identity signal.
	Address    string `json:"address,omitempty"`
	MACAddress string `json:"mac_address,omitempty"`
	Hostname   string `json:"hostname,omitempty"`

	// Optional attributes.
	Vendor       string     `json:"vendor,omitempty"`
	Model        string     `json:"model,omitempty"`
	DeviceType   DeviceType `json:"device_type,omitempty"`
	Category     string     `json:"category,omitempty"`
	OSFamily     string     `json:"os_family,omitempty"`
	OSVersion    string     `json:"os_version,omitempty"`
	SerialNumber string     `json:"serial_number,omitempty"`
	CPUCores     int        `json:"cpu_cores,omitempty"`
	RAMTotalMB   float64    `json:"ram_total_mb,omitempty"`
	OpenPorts    []Port     `json:"open_ports,omitempty"`
}

// RAMTotalGB returns the observed RAM converted to gigabytes, the unit the
// inventory stores. Zero means unobserved.
func (d *DiscoveredDevice) RAMTotalGB() float64 {
	if d.RAMTotalMB <= 0 {
		return 0
	}
	return d.RAMTotalMB / 1024.0
}

// HasIdentity reports whether the observation carries at least one identity
// hint usable for duplicate matching.
func (d *DiscoveredDevice) HasIdentity() bool {
	return d.MACAddress != "" || d.Address != "" || d.Hostname != ""
}
