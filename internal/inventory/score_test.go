package inventory

import (
	"testing"

	"github.com/grandir66/dadude/pkg/models"
)

func TestDeviceScore_Bounds(t *testing.T) {
	empty := &models.Device{}
	if got := DeviceScore(empty); got != 0 {
		t.Errorf("score of empty device = %v, want 0", got)
	}

	full := &models.Device{
		Name:         "sw1",
		Hostname:     "sw1.lan",
		Manufacturer: "MikroTik",
		Model:        "CRS326",
		OSFamily:     "RouterOS",
		OSVersion:    "7.14",
		SerialNumber: "ABC123",
		CPUCores:     4,
		RAMTotalGB:   2.0,
		OpenPorts:    []models.Port{{Port: 22, Protocol: "tcp"}},
	}
	if got := DeviceScore(full); got != 1.0 {
		t.Errorf("score of full device = %v, want 1.0", got)
	}
}

func TestDeviceScore_MonotonicWhenFieldFilled(t *testing.T) {
	d := &models.Device{Hostname: "sw1"}
	before := DeviceScore(d)
	d.Model = "CRS326"
	after := DeviceScore(d)
	if after <= before {
		t.Errorf("score did not increase when a field was filled: %v -> %v", before, after)
	}
}

func TestDeviceScore_EmptyPortListCountsAsAbsent(t *testing.T) {
	withNil := &models.Device{Hostname: "sw1", OpenPorts: nil}
	withEmpty := &models.Device{Hostname: "sw1", OpenPorts: []models.Port{}}
	if DeviceScore(withNil) != DeviceScore(withEmpty) {
		t.Error("empty port list should score the same as nil")
	}
}

func TestDiscoveredScore_UsesMappedFields(t *testing.T) {
	// Vendor fills the manufacturer slot, RAM converts from MB.
	o := &models.DiscoveredDevice{Vendor: "Dell", RAMTotalMB: 2048}
	if got, want := DiscoveredScore(o), 2.0/completenessFieldCount; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestDiscoveredScore_NameSlotAlwaysAbsent(t *testing.T) {
	o := &models.DiscoveredDevice{
		Hostname:     "sw1",
		Vendor:       "MikroTik",
		Model:        "CRS326",
		OSFamily:     "RouterOS",
		OSVersion:    "7.14",
		SerialNumber: "ABC123",
		CPUCores:     4,
		RAMTotalMB:   2048,
		OpenPorts:    []models.Port{{Port: 22, Protocol: "tcp"}},
	}
	// 9 of 10 slots: observations never carry a display name.
	if got, want := DiscoveredScore(o), 9.0/completenessFieldCount; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}
