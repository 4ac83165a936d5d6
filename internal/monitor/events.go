package monitor

import "time"

// Event topics published by the Monitor module.
const (
	TopicStatusChanged = "monitor.status.changed"
	TopicTickCompleted = "monitor.tick.completed"
)

// StatusChangedEvent is published when a liveness check observes a status
// different from the stored one.
type StatusChangedEvent struct {
	DeviceID   string `json:"device_id"`
	CustomerID string `json:"customer_id"`
	Previous   string `json:"previous"`
	Current    string `json:"current"`
	Error      string `json:"error,omitempty"`
}

// TickCompletedEvent is published at the end of every monitoring tick.
type TickCompletedEvent struct {
	Checked  int           `json:"checked"`
	Changed  int           `json:"changed"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`
}
