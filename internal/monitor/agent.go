package monitor

import (
	"context"

	"github.com/grandir66/dadude/pkg/models"
)

// Compile-time interface guard.
var _ Prober = (*agentProber)(nil)

// agentProber delegates the liveness check to a remote collection agent. Any
// transport error or agent-side failure is unknown, never down: the agent
// being unreachable says nothing about the device.
type agentProber struct {
	client  AgentClient
	agentID string
}

func (p *agentProber) Probe(ctx context.Context, d *MonitoredDevice) ProbeResult {
	status, err := p.client.CheckLiveness(ctx, p.agentID, d)
	if err != nil {
		return unknownResult(err)
	}
	switch status {
	case models.DeviceStatusUp, models.DeviceStatusDown:
		return ProbeResult{Status: status}
	default:
		return ProbeResult{Status: models.DeviceStatusUnknown}
	}
}
