package monitor

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/grandir66/dadude/pkg/models"
)

// Compile-time interface guard.
var _ Prober = (*TCPProber)(nil)

// TCPProber checks liveness by opening a TCP connection to the device's
// monitoring port. A refused connection still proves the host is routed but
// counts as down for the monitored service; a timeout is unknown because it
// cannot distinguish a dead host from a filtered path.
type TCPProber struct{}

func NewTCPProber() *TCPProber {
	return &TCPProber{}
}

func (p *TCPProber) Probe(ctx context.Context, d *MonitoredDevice) ProbeResult {
	addr := d.PrimaryIP
	if addr == "" {
		addr = d.Hostname
	}
	if addr == "" {
		return unknownResult(errors.New("device has no address"))
	}
	port := d.MonitoringPort
	if port == 0 {
		return unknownResult(errors.New("device has no monitoring port"))
	}
	target := net.JoinHostPort(addr, strconv.Itoa(port))

	start := time.Now()
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", target)
	elapsed := time.Since(start)
	if err == nil {
		conn.Close()
		return ProbeResult{Status: models.DeviceStatusUp, Latency: elapsed}
	}

	if ctx.Err() != nil {
		return unknownResult(ctx.Err())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return unknownResult(err)
	}
	// Refused or unreachable within the deadline is a definitive negative.
	return ProbeResult{Status: models.DeviceStatusDown, Latency: elapsed}
}
