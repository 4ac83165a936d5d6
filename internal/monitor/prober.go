package monitor

import (
	"context"
	"time"

	"github.com/grandir66/dadude/pkg/models"
)

// ProbeResult is the outcome of one liveness check. Err is set for checks
// that failed to produce a definitive answer; those always carry status
// unknown. Down is reserved for an explicit negative result (the probe ran
// and the device did not respond).
type ProbeResult struct {
	Status  models.DeviceStatus
	Latency time.Duration
	Err     string
}

// Prober answers whether one device currently responds. Implementations must
// honor the context deadline; the scheduler treats an expired deadline as
// status unknown.
type Prober interface {
	Probe(ctx context.Context, d *MonitoredDevice) ProbeResult
}

// AgentClient performs liveness checks through a remote collection agent.
// The transport (agent RPC, router-mediated check) is outside this module.
type AgentClient interface {
	CheckLiveness(ctx context.Context, agentID string, d *MonitoredDevice) (models.DeviceStatus, error)
}

// ProberResolver selects the liveness probe for a device.
type ProberResolver interface {
	Resolve(d *MonitoredDevice) Prober
}

// Compile-time interface guard.
var _ ProberResolver = (*Resolver)(nil)

// Resolver picks the liveness probe for a device: an explicitly assigned
// agent wins, then the customer's default agent, then a local probe matching
// the device's monitoring kind.
type Resolver struct {
	agent         AgentClient
	defaultAgents map[string]string
	icmp          *ICMPProber
	tcp           *TCPProber
}

func NewResolver(agent AgentClient, cfg MonitorConfig) *Resolver {
	return &Resolver{
		agent:         agent,
		defaultAgents: cfg.DefaultAgents,
		icmp:          NewICMPProber(cfg.PingCount),
		tcp:           NewTCPProber(),
	}
}

// Resolve returns the probe to use for the device. The fallback ladder means
// a device is only unprobeable when it has no address at all; that case
// surfaces from the local probers as an unknown result.
func (r *Resolver) Resolve(d *MonitoredDevice) Prober {
	if r.agent != nil {
		if d.MonitoringAgentID != "" {
			return &agentProber{client: r.agent, agentID: d.MonitoringAgentID}
		}
		if id, ok := r.defaultAgents[d.CustomerID]; ok && id != "" {
			return &agentProber{client: r.agent, agentID: id}
		}
	}
	if d.MonitoringKind == models.MonitoringTCP {
		return r.tcp
	}
	return r.icmp
}

func unknownResult(err error) ProbeResult {
	return ProbeResult{Status: models.DeviceStatusUnknown, Err: err.Error()}
}
