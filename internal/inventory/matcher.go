package inventory

import (
	"context"
	"fmt"

	"github.com/grandir66/dadude/pkg/models"
)

// MatchedBy values, strongest first. A MAC match is authoritative; IP and
// hostname matches are circumstantial and only as good as the network's DHCP
// and naming hygiene.
const (
	MatchByMAC      = "mac"
	MatchByIP       = "ip"
	MatchByHostname = "hostname"
)

// MatchCandidate is one active canonical record that shares an identity
// anchor with an observation, annotated with which anchors matched and the
// record's completeness score.
type MatchCandidate struct {
	Device    *models.Device
	MatchedBy []string
	Score     float64
}

// Matcher finds existing records an observation may be a re-sighting of.
type Matcher struct {
	store *InventoryStore
}

func NewMatcher(store *InventoryStore) *Matcher {
	return &Matcher{store: store}
}

// FindDuplicates returns all active records in the observation's tenant that
// match it on MAC, IP, or hostname, deduplicated by record ID with the
// matched anchors accumulated per record. An observation with no identity
// anchors matches nothing. Candidates arrive MAC matches first, then in
// store order, so callers that take the head get the strongest match.
func (m *Matcher) FindDuplicates(ctx context.Context, o *models.DiscoveredDevice) ([]MatchCandidate, error) {
	if !o.HasIdentity() {
		return nil, nil
	}

	type lookup struct {
		anchor string
		value  string
		find   func(ctx context.Context, customerID, value string) ([]models.Device, error)
	}
	lookups := []lookup{
		{MatchByMAC, o.MACAddress, m.store.FindByMAC},
		{MatchByIP, o.Address, m.store.FindByIP},
		{MatchByHostname, o.Hostname, m.store.FindByHostname},
	}

	var candidates []MatchCandidate
	index := make(map[string]int)
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		devices, err := l.find(ctx, o.CustomerID, l.value)
		if err != nil {
			return nil, fmt.Errorf("find by %s: %w", l.anchor, err)
		}
		for i := range devices {
			d := devices[i]
			if j, ok := index[d.ID]; ok {
				candidates[j].MatchedBy = append(candidates[j].MatchedBy, l.anchor)
				continue
			}
			index[d.ID] = len(candidates)
			candidates = append(candidates, MatchCandidate{
				Device:    &d,
				MatchedBy: []string{l.anchor},
				Score:     DeviceScore(&d),
			})
		}
	}
	return candidates, nil
}

// matchedBy reports whether a candidate matched on the given anchor.
func (c MatchCandidate) matchedBy(anchor string) bool {
	for _, a := range c.MatchedBy {
		if a == anchor {
			return true
		}
	}
	return false
}
