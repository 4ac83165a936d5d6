package inventory

import "github.com/grandir66/dadude/pkg/models"

// The completeness score is the fraction of these high-value fields that are
// populated on a record. Both canonical and discovered records are scored over
// the same set, with the discovered side viewed through the field mapping
// (vendor counts as manufacturer, RAM in canonical GB).
const completenessFieldCount = 10

// DeviceScore returns the data-quality score of a canonical record, in [0, 1].
func DeviceScore(d *models.Device) float64 {
	values := []any{
		d.Name,
		d.Hostname,
		d.Manufacturer,
		d.Model,
		d.OSFamily,
		d.OSVersion,
		d.SerialNumber,
		d.CPUCores,
		d.RAMTotalGB,
		d.OpenPorts,
	}
	return scoreValues(values)
}

// DiscoveredScore returns the data-quality score of a probe observation, in
// [0, 1]. Observations carry no display name, so that slot is always absent.
func DiscoveredScore(o *models.DiscoveredDevice) float64 {
	values := []any{
		"",
		o.Hostname,
		o.Vendor,
		o.Model,
		o.OSFamily,
		o.OSVersion,
		o.SerialNumber,
		o.CPUCores,
		o.RAMTotalGB(),
		o.OpenPorts,
	}
	return scoreValues(values)
}

func scoreValues(values []any) float64 {
	populated := 0
	for _, v := range values {
		if !isEmptyValue(v) {
			populated++
		}
	}
	return float64(populated) / completenessFieldCount
}
