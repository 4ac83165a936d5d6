package inventory

import "time"

// Event topics published by the Inventory module.
const (
	TopicDeviceCreated     = "inventory.device.created"
	TopicDeviceMerged      = "inventory.device.merged"
	TopicCleanupMarked     = "inventory.cleanup.marked"
	TopicDeviceDeactivated = "inventory.device.deactivated"
	TopicDeviceDemoted     = "inventory.device.demoted"
)

// DeviceCreatedEvent is published when an observation produced a brand-new
// canonical record.
type DeviceCreatedEvent struct {
	DeviceID   string  `json:"device_id"`
	CustomerID string  `json:"customer_id"`
	MAC        string  `json:"mac,omitempty"`
	IP         string  `json:"ip,omitempty"`
	Hostname   string  `json:"hostname,omitempty"`
	Score      float64 `json:"score"`
}

// DeviceMergedEvent is published when an observation was resolved onto an
// existing canonical record, whatever the strategy.
type DeviceMergedEvent struct {
	DeviceID   string        `json:"device_id"`
	CustomerID string        `json:"customer_id"`
	Strategy   MergeStrategy `json:"strategy"`
	Confidence float64       `json:"confidence"`
	MatchedBy  []string      `json:"matched_by"`
}

// CleanupMarkedEvent is published after a mark sweep that marked at least one
// record.
type CleanupMarkedEvent struct {
	CustomerID string    `json:"customer_id,omitempty"`
	Marked     int64     `json:"marked"`
	MarkedAt   time.Time `json:"marked_at"`
}

// DeviceDeactivatedEvent is published per record soft-deleted by a cleanup
// sweep.
type DeviceDeactivatedEvent struct {
	DeviceID   string `json:"device_id"`
	CustomerID string `json:"customer_id"`
}

// DeviceDemotedEvent is published per monitored record whose monitoring was
// disabled by a cleanup sweep instead of deactivation.
type DeviceDemotedEvent struct {
	DeviceID   string `json:"device_id"`
	CustomerID string `json:"customer_id"`
}
