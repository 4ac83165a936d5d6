package inventory

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/grandir66/dadude/pkg/models"
)

// Raw attribute keys produced by the probe layer. Probes of any transport
// (SNMP, SSH, vendor API) reduce their output to this flat key set before it
// reaches identity resolution.
const (
	AttrAddress      = "address"
	AttrMACAddress   = "mac_address"
	AttrHostname     = "hostname"
	AttrVendor       = "vendor"
	AttrModel        = "model"
	AttrDeviceType   = "device_type"
	AttrCategory     = "category"
	AttrOSFamily     = "os_family"
	AttrOSVersion    = "os_version"
	AttrSerialNumber = "serial_number"
	AttrCPUCores     = "cpu_cores"
	AttrRAMTotalMB   = "ram_total_mb"
	AttrOpenPorts    = "open_ports" // JSON array of {"port","protocol","service"}
)

// MapAttributes maps a raw discovered-attribute set onto a canonical-shaped
// observation. Pure: no store access, no side effects. Malformed numeric or
// JSON values are dropped (field treated as absent), never surfaced as errors;
// a probe that produced garbage for one attribute still contributes the rest.
func MapAttributes(customerID string, attrs map[string]string) models.DiscoveredDevice {
	o := models.DiscoveredDevice{
		CustomerID: customerID,
		Address:    strings.TrimSpace(attrs[AttrAddress]),
		MACAddress: normalizeMAC(attrs[AttrMACAddress]),
		Hostname:   strings.TrimSpace(attrs[AttrHostname]),
		Vendor:     strings.TrimSpace(attrs[AttrVendor]),
		Model:      strings.TrimSpace(attrs[AttrModel]),
		Category:   strings.TrimSpace(attrs[AttrCategory]),
		OSFamily:   strings.TrimSpace(attrs[AttrOSFamily]),
		OSVersion:  strings.TrimSpace(attrs[AttrOSVersion]),
	}

	if v := strings.TrimSpace(attrs[AttrDeviceType]); v != "" {
		o.DeviceType = models.DeviceType(v)
	}
	o.SerialNumber = strings.TrimSpace(attrs[AttrSerialNumber])

	if v := strings.TrimSpace(attrs[AttrCPUCores]); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			o.CPUCores = n
		}
	}
	if v := strings.TrimSpace(attrs[AttrRAMTotalMB]); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			o.RAMTotalMB = f
		}
	}
	if v := attrs[AttrOpenPorts]; v != "" {
		var ports []models.Port
		if err := json.Unmarshal([]byte(v), &ports); err == nil {
			o.OpenPorts = ports
		}
	}

	return o
}

// normalizeMAC uppercases a MAC address and strips surrounding whitespace so
// equality matching is not defeated by probe formatting differences.
func normalizeMAC(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}
