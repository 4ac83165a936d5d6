package inventory

import "github.com/grandir66/dadude/pkg/models"

// mappedField is one entry of the correspondence table between a discovered
// observation and the canonical device record. Values are normalized: empty
// string, zero number, and empty port list all mean "absent". The discovered
// getter applies unit conversion (RAM MB -> GB) so both sides compare in
// canonical units.
type mappedField struct {
	name       string
	existing   func(*models.Device) any
	discovered func(*models.DiscoveredDevice) any
	set        func(*models.Device, any)
}

func fieldMapping() []mappedField {
	return []mappedField{
		{
			name:       "hostname",
			existing:   func(d *models.Device) any { return d.Hostname },
			discovered: func(o *models.DiscoveredDevice) any { return o.Hostname },
			set:        func(d *models.Device, v any) { d.Hostname = v.(string) },
		},
		{
			name:       "manufacturer",
			existing:   func(d *models.Device) any { return d.Manufacturer },
			discovered: func(o *models.DiscoveredDevice) any { return o.Vendor },
			set:        func(d *models.Device, v any) { d.Manufacturer = v.(string) },
		},
		{
			name:       "model",
			existing:   func(d *models.Device) any { return d.Model },
			discovered: func(o *models.DiscoveredDevice) any { return o.Model },
			set:        func(d *models.Device, v any) { d.Model = v.(string) },
		},
		{
			name:       "device_type",
			existing:   func(d *models.Device) any { return string(d.DeviceType) },
			discovered: func(o *models.DiscoveredDevice) any { return string(o.DeviceType) },
			set:        func(d *models.Device, v any) { d.DeviceType = models.DeviceType(v.(string)) },
		},
		{
			name:       "category",
			existing:   func(d *models.Device) any { return d.Category },
			discovered: func(o *models.DiscoveredDevice) any { return o.Category },
			set:        func(d *models.Device, v any) { d.Category = v.(string) },
		},
		{
			name:       "os_family",
			existing:   func(d *models.Device) any { return d.OSFamily },
			discovered: func(o *models.DiscoveredDevice) any { return o.OSFamily },
			set:        func(d *models.Device, v any) { d.OSFamily = v.(string) },
		},
		{
			name:       "os_version",
			existing:   func(d *models.Device) any { return d.OSVersion },
			discovered: func(o *models.DiscoveredDevice) any { return o.OSVersion },
			set:        func(d *models.Device, v any) { d.OSVersion = v.(string) },
		},
		{
			name:       "serial_number",
			existing:   func(d *models.Device) any { return d.SerialNumber },
			discovered: func(o *models.DiscoveredDevice) any { return o.SerialNumber },
			set:        func(d *models.Device, v any) { d.SerialNumber = v.(string) },
		},
		{
			name:       "cpu_cores",
			existing:   func(d *models.Device) any { return d.CPUCores },
			discovered: func(o *models.DiscoveredDevice) any { return o.CPUCores },
			set:        func(d *models.Device, v any) { d.CPUCores = v.(int) },
		},
		{
			name:       "ram_total_gb",
			existing:   func(d *models.Device) any { return d.RAMTotalGB },
			discovered: func(o *models.DiscoveredDevice) any { return o.RAMTotalGB() },
			set:        func(d *models.Device, v any) { d.RAMTotalGB = v.(float64) },
		},
		{
			name:       "open_ports",
			existing:   func(d *models.Device) any { return d.OpenPorts },
			discovered: func(o *models.DiscoveredDevice) any { return o.OpenPorts },
			set:        func(d *models.Device, v any) { d.OpenPorts = v.([]models.Port) },
		},
	}
}

// isEmptyValue reports whether a normalized field value counts as absent.
// An empty port list counts as absent, same as a null column.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int:
		return t == 0
	case float64:
		return t == 0
	case []models.Port:
		return len(t) == 0
	default:
		return false
	}
}

// valuesEqual compares two non-empty field values. Port lists compare as sets
// keyed by (port, protocol), so probe ordering never manufactures a conflict.
func valuesEqual(a, b any) bool {
	ap, aok := a.([]models.Port)
	bp, bok := b.([]models.Port)
	if aok && bok {
		return samePortSet(ap, bp)
	}
	return a == b
}

func samePortSet(a, b []models.Port) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[portKey]bool, len(a))
	for _, p := range a {
		seen[portKey{p.Port, p.Protocol}] = true
	}
	for _, p := range b {
		if !seen[portKey{p.Port, p.Protocol}] {
			return false
		}
	}
	return true
}

type portKey struct {
	port     int
	protocol string
}
