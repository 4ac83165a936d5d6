package probe

import (
	"testing"

	"github.com/gosnmp/gosnmp"
)

func TestVendorFromObjectID(t *testing.T) {
	tests := []struct {
		objectID string
		want     string
	}{
		{".1.3.6.1.4.1.9.1.1745", "Cisco"},
		{"1.3.6.1.4.1.14988.1", "MikroTik"}, // leading dot optional
		{".1.3.6.1.4.1.41112.1.6", "Ubiquiti"},
		{".1.3.6.1.4.1.99999.1", ""}, // unmapped enterprise
		{".1.3.6.1.2.1.1.1", ""},     // not under the enterprise arc
		{"", ""},
	}
	for _, tt := range tests {
		if got := vendorFromObjectID(tt.objectID); got != tt.want {
			t.Errorf("vendorFromObjectID(%q) = %q, want %q", tt.objectID, got, tt.want)
		}
	}
}

func TestOSFromSysDescr(t *testing.T) {
	tests := []struct {
		descr       string
		wantFamily  string
		wantVersion string
	}{
		{"RouterOS v7.14.2 on CRS326", "RouterOS", "7.14.2"},
		{"Linux sw1 5.15.0-generic #72-Ubuntu", "Linux", ""},
		{"Linux 5.15.0 x86_64", "Linux", "5.15.0"},
		{"Hardware: Intel64 - Software: Windows Version 6.3", "Windows", ""},
		{"Cisco IOS Software, C2960 Software", "IOS", ""},
		{"FreeBSD 13.2-RELEASE", "FreeBSD", ""},
		{"Award Modular BIOS v6.00PG", "", ""}, // BIOS must not match IOS
		{"", "", ""},
	}
	for _, tt := range tests {
		family, version := osFromSysDescr(tt.descr)
		if family != tt.wantFamily || version != tt.wantVersion {
			t.Errorf("osFromSysDescr(%q) = (%q, %q), want (%q, %q)",
				tt.descr, family, version, tt.wantFamily, tt.wantVersion)
		}
	}
}

func TestVersionAfter(t *testing.T) {
	if got := versionAfter("RouterOS v7.14.2 extra", "RouterOS"); got != "7.14.2" {
		t.Errorf("got %q, want 7.14.2", got)
	}
	if got := versionAfter("Linux hostname 5.15", "Linux"); got != "" {
		t.Errorf("non-numeric token accepted: %q", got)
	}
	if got := versionAfter("no marker here", "RouterOS"); got != "" {
		t.Errorf("missing marker yielded %q", got)
	}
	if got := versionAfter("RouterOS", "RouterOS"); got != "" {
		t.Errorf("marker at end yielded %q", got)
	}
}

func TestFormatMAC(t *testing.T) {
	got := formatMAC([]byte{0xaa, 0xbb, 0xcc, 0x00, 0x01, 0xff})
	if got != "AA:BB:CC:00:01:FF" {
		t.Errorf("formatMAC = %q", got)
	}
}

func TestHostOnly(t *testing.T) {
	if got := hostOnly("10.0.0.5:161"); got != "10.0.0.5" {
		t.Errorf("got %q, want host without port", got)
	}
	if got := hostOnly("10.0.0.5"); got != "10.0.0.5" {
		t.Errorf("got %q, want bare host unchanged", got)
	}
}

func TestPDUString(t *testing.T) {
	if got := pduString(gosnmp.SnmpPDU{Value: []byte("  sw1  ")}); got != "sw1" {
		t.Errorf("byte value: got %q", got)
	}
	if got := pduString(gosnmp.SnmpPDU{Value: "sw1"}); got != "sw1" {
		t.Errorf("string value: got %q", got)
	}
	if got := pduString(gosnmp.SnmpPDU{Value: 42}); got != "" {
		t.Errorf("numeric value: got %q, want empty", got)
	}
}

func TestNewClientTargetParsing(t *testing.T) {
	c := NewSNMPCollector(0, nil)

	g, err := c.newClient("10.0.0.5", "public")
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	if g.Target != "10.0.0.5" || g.Port != 161 {
		t.Errorf("bare host: target %s port %d, want default port 161", g.Target, g.Port)
	}

	g, err = c.newClient("10.0.0.5:1161", "public")
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	if g.Target != "10.0.0.5" || g.Port != 1161 {
		t.Errorf("explicit port: target %s port %d", g.Target, g.Port)
	}

	if _, err := c.newClient("10.0.0.5:notaport", "public"); err == nil {
		t.Error("invalid port accepted")
	}
}
