// Package probe contains the protocol collectors that reduce raw device
// responses to the flat attribute maps consumed by identity resolution.
package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"go.uber.org/zap"

	"github.com/grandir66/dadude/internal/inventory"
)

// System MIB OIDs queried for every target.
const (
	oidSysDescr    = "1.3.6.1.2.1.1.1.0"
	oidSysObjectID = "1.3.6.1.2.1.1.2.0"
	oidSysName     = "1.3.6.1.2.1.1.5.0"
)

// IF-MIB ifPhysAddress column, walked to find the first usable MAC.
const oidIfPhysAddress = "1.3.6.1.2.1.2.2.1.6"

// SNMPCollector fetches device attributes over SNMP v2c and reduces them to
// the flat attribute map the resolution pipeline consumes.
type SNMPCollector struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewSNMPCollector(timeout time.Duration, logger *zap.Logger) *SNMPCollector {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SNMPCollector{timeout: timeout, logger: logger}
}

// Collect queries the target and returns a raw attribute map. Partial data
// is normal: a device that answers the system group but refuses IF-MIB still
// yields a usable observation.
func (c *SNMPCollector) Collect(ctx context.Context, target, community string) (map[string]string, error) {
	g, err := c.newClient(target, community)
	if err != nil {
		return nil, err
	}
	if err := g.ConnectIPv4(); err != nil {
		return nil, fmt.Errorf("snmp connect %s: %w", target, err)
	}
	defer func() { _ = g.Conn.Close() }()

	result, err := g.Get([]string{oidSysDescr, oidSysObjectID, oidSysName})
	if err != nil {
		return nil, fmt.Errorf("snmp get system group %s: %w", target, err)
	}

	attrs := map[string]string{
		inventory.AttrAddress: hostOnly(target),
	}
	var sysDescr, sysObjectID string
	for _, pdu := range result.Variables {
		switch pdu.Name {
		case "." + oidSysDescr:
			sysDescr = pduString(pdu)
		case "." + oidSysObjectID:
			sysObjectID = pduString(pdu)
		case "." + oidSysName:
			if name := pduString(pdu); name != "" {
				attrs[inventory.AttrHostname] = name
			}
		}
	}

	if vendor := vendorFromObjectID(sysObjectID); vendor != "" {
		attrs[inventory.AttrVendor] = vendor
	}
	if family, version := osFromSysDescr(sysDescr); family != "" {
		attrs[inventory.AttrOSFamily] = family
		if version != "" {
			attrs[inventory.AttrOSVersion] = version
		}
	}

	if mac := c.firstMAC(g); mac != "" {
		attrs[inventory.AttrMACAddress] = mac
	}

	c.logger.Debug("snmp attributes collected",
		zap.String("target", target),
		zap.Int("attributes", len(attrs)),
	)
	return attrs, nil
}

func (c *SNMPCollector) newClient(target, community string) (*gosnmp.GoSNMP, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		host = target
		portStr = "161"
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid snmp port %q: %w", portStr, err)
	}
	return &gosnmp.GoSNMP{
		Target:    host,
		Port:      uint16(port),
		Version:   gosnmp.Version2c,
		Community: community,
		Timeout:   c.timeout,
		Retries:   1,
	}, nil
}

// firstMAC walks ifPhysAddress and returns the first non-empty, non-zero MAC.
// Many devices do not expose IF-MIB; failures are not errors.
func (c *SNMPCollector) firstMAC(g *gosnmp.GoSNMP) string {
	pdus, err := g.BulkWalkAll(oidIfPhysAddress)
	if err != nil {
		return ""
	}
	for _, pdu := range pdus {
		b, ok := pdu.Value.([]byte)
		if !ok || len(b) != 6 {
			continue
		}
		mac := formatMAC(b)
		if mac != "00:00:00:00:00:00" {
			return mac
		}
	}
	return ""
}

// enterpriseVendors maps IANA enterprise numbers (the arc after
// 1.3.6.1.4.1.) to vendor names.
var enterpriseVendors = map[string]string{
	"9":     "Cisco",
	"11":    "HP",
	"171":   "D-Link",
	"674":   "Dell",
	"2011":  "Huawei",
	"4526":  "Netgear",
	"6574":  "Synology",
	"8072":  "Net-SNMP",
	"14988": "MikroTik",
	"24681": "QNAP",
	"41112": "Ubiquiti",
}

func vendorFromObjectID(objectID string) string {
	const enterprisePrefix = ".1.3.6.1.4.1."
	oid := objectID
	if !strings.HasPrefix(oid, ".") {
		oid = "." + oid
	}
	rest, ok := strings.CutPrefix(oid, enterprisePrefix)
	if !ok {
		return ""
	}
	arc, _, _ := strings.Cut(rest, ".")
	return enterpriseVendors[arc]
}

// osFromSysDescr extracts an OS family, and a version when the banner makes
// it cheap, from the sysDescr string.
func osFromSysDescr(sysDescr string) (family, version string) {
	lower := strings.ToLower(sysDescr)
	switch {
	case strings.Contains(lower, "routeros"): //nolint:misspell // RouterOS is MikroTik's OS name
		return "RouterOS", versionAfter(sysDescr, "RouterOS")
	case strings.Contains(lower, "windows"):
		return "Windows", ""
	case strings.Contains(lower, "linux"):
		return "Linux", versionAfter(sysDescr, "Linux")
	case strings.Contains(lower, "freebsd"):
		return "FreeBSD", ""
	case strings.Contains(lower, "cisco ios"):
		return "IOS", ""
	default:
		return "", ""
	}
}

// versionAfter returns the whitespace-delimited token following the marker,
// when it looks like a version number.
func versionAfter(s, marker string) string {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return ""
	}
	fields := strings.Fields(s[idx+len(marker):])
	if len(fields) == 0 {
		return ""
	}
	v := strings.TrimPrefix(fields[0], "v")
	if v == "" || v[0] < '0' || v[0] > '9' {
		return ""
	}
	return v
}

func hostOnly(target string) string {
	if h, _, err := net.SplitHostPort(target); err == nil {
		return h
	}
	return target
}

func formatMAC(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, ":")
}

func pduString(pdu gosnmp.SnmpPDU) string {
	switch v := pdu.Value.(type) {
	case []byte:
		return strings.TrimSpace(string(v))
	case string:
		return strings.TrimSpace(v)
	default:
		return ""
	}
}
