package monitor

import (
	"context"
	"errors"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/grandir66/dadude/pkg/models"
)

// Compile-time interface guard.
var _ Prober = (*ICMPProber)(nil)

// ICMPProber checks liveness with ICMP echo. No reply within the deadline is
// a definitive down; failure to run the probe at all is unknown.
type ICMPProber struct {
	count int
}

func NewICMPProber(count int) *ICMPProber {
	if count <= 0 {
		count = 3
	}
	return &ICMPProber{count: count}
}

func (p *ICMPProber) Probe(ctx context.Context, d *MonitoredDevice) ProbeResult {
	addr := d.PrimaryIP
	if addr == "" {
		addr = d.Hostname
	}
	if addr == "" {
		return unknownResult(errors.New("device has no address"))
	}

	pinger, err := probing.NewPinger(addr)
	if err != nil {
		return unknownResult(err)
	}
	pinger.Count = p.count
	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	}
	pinger.SetPrivileged(runtime.GOOS == "windows")

	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case err = <-done:
		if err != nil {
			return unknownResult(err)
		}
	case <-ctx.Done():
		pinger.Stop()
		return unknownResult(ctx.Err())
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv > 0 {
		return ProbeResult{Status: models.DeviceStatusUp, Latency: stats.AvgRtt}
	}
	return ProbeResult{Status: models.DeviceStatusDown}
}
