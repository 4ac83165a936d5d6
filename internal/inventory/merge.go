package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/grandir66/dadude/pkg/models"
)

// ErrUnknownStrategy is returned when a proposal carries a strategy the
// executor does not implement.
var ErrUnknownStrategy = errors.New("unknown merge strategy")

// ApplyProposal executes a merge proposal against the existing record,
// mutating it in place. The caller persists the result.
//
// Every strategy, including skip, performs verification bookkeeping: the
// record was just observed alive on the network, so first_seen is set once,
// last_verified advances, the verification counter increments, and any
// pending cleanup mark is cleared.
func ApplyProposal(d *models.Device, o *models.DiscoveredDevice, p MergeProposal, now time.Time) error {
	switch p.Strategy {
	case StrategySkip:
	case StrategyMerge:
		for _, f := range fieldMapping() {
			dv := f.discovered(o)
			if isEmptyValue(dv) || !isEmptyValue(f.existing(d)) {
				continue
			}
			f.set(d, dv)
		}
		d.OpenPorts = unionPorts(d.OpenPorts, o.OpenPorts, false)
		backfillIdentity(d, o)
	case StrategyOverwrite:
		for _, f := range fieldMapping() {
			dv := f.discovered(o)
			if isEmptyValue(dv) {
				continue
			}
			f.set(d, dv)
		}
		d.OpenPorts = unionPorts(d.OpenPorts, o.OpenPorts, true)
		backfillIdentity(d, o)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, p.Strategy)
	}

	verified := now
	if d.FirstSeenAt == nil {
		d.FirstSeenAt = &verified
	}
	d.LastVerifiedAt = &verified
	d.VerificationCount++
	d.CleanupMarkedAt = nil
	d.UpdatedAt = now
	return nil
}

// backfillIdentity fills missing identity anchors from the observation. It
// never replaces an existing MAC or IP; identity is sticky once learned.
func backfillIdentity(d *models.Device, o *models.DiscoveredDevice) {
	if d.PrimaryMAC == "" && o.MACAddress != "" {
		d.PrimaryMAC = o.MACAddress
	}
	if d.PrimaryIP == "" && o.Address != "" {
		d.PrimaryIP = o.Address
	}
	if d.Hostname == "" && o.Hostname != "" {
		d.Hostname = o.Hostname
	}
}

// unionPorts merges two port lists keyed by (port, protocol). Existing
// entries are kept in order and new keys are appended. With preferNew, a
// discovered entry replaces the existing one for the same key so service
// names track the latest scan.
func unionPorts(existing, discovered []models.Port, preferNew bool) []models.Port {
	if len(discovered) == 0 {
		return existing
	}
	byKey := make(map[portKey]int, len(existing))
	out := make([]models.Port, len(existing))
	copy(out, existing)
	for i, p := range out {
		byKey[portKey{p.Port, p.Protocol}] = i
	}
	for _, p := range discovered {
		k := portKey{p.Port, p.Protocol}
		if i, ok := byKey[k]; ok {
			if preferNew {
				out[i] = p
			}
			continue
		}
		byKey[k] = len(out)
		out = append(out, p)
	}
	return out
}
