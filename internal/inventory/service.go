package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grandir66/dadude/pkg/models"
	"github.com/grandir66/dadude/pkg/plugin"
)

// ErrMissingCustomer is returned when an observation carries no tenant scope.
var ErrMissingCustomer = errors.New("discovered record has no customer id")

// ResolveResult is the outcome of resolving one observation against the
// inventory.
type ResolveResult struct {
	Device    *models.Device
	Created   bool
	Proposal  *MergeProposal
	MatchedBy []string
}

// Service is the identity-resolution entry point: one observation in, one
// canonical record created or updated. All dependencies are injected; the
// clock seam exists for tests.
type Service struct {
	store   *InventoryStore
	matcher *Matcher
	decider Decider
	bus     plugin.EventBus
	logger  *zap.Logger
	nowFunc func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(store *InventoryStore, bus plugin.EventBus, cfg InventoryConfig, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		matcher: NewMatcher(store),
		decider: Decider{ScoreMargin: cfg.ScoreMargin},
		bus:     bus,
		logger:  logger,
		nowFunc: time.Now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// FindDuplicates exposes the matcher for callers that want the full candidate
// set instead of the resolution picked by ResolveAndMerge.
func (s *Service) FindDuplicates(ctx context.Context, o *models.DiscoveredDevice) ([]MatchCandidate, error) {
	return s.matcher.FindDuplicates(ctx, o)
}

// ResolveAndMerge resolves an observation to a canonical record, creating one
// when nothing matches, and applies the decision engine's verdict. An
// observation with no identity anchors is treated as a new device, not an
// error. Resolution is serialized per tenant so two concurrent sightings of
// the same device cannot race a merge or double-count a verification.
func (s *Service) ResolveAndMerge(ctx context.Context, o *models.DiscoveredDevice) (*ResolveResult, error) {
	if o.CustomerID == "" {
		return nil, ErrMissingCustomer
	}

	lock := s.customerLock(o.CustomerID)
	lock.Lock()
	defer lock.Unlock()

	candidates, err := s.matcher.FindDuplicates(ctx, o)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return s.createDevice(ctx, o)
	}

	target := pickTarget(candidates)
	wasMarked := target.Device.CleanupMarkedAt != nil

	proposal := s.decider.Propose(target.Device, o)
	now := s.nowFunc()
	if err := ApplyProposal(target.Device, o, proposal, now); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDevice(ctx, target.Device); err != nil {
		return nil, fmt.Errorf("update device %s: %w", target.Device.ID, err)
	}

	if wasMarked {
		s.logger.Info("cleanup mark cleared by re-verification",
			zap.String("device_id", target.Device.ID),
			zap.String("customer_id", o.CustomerID),
		)
	}
	s.logger.Debug("observation merged",
		zap.String("device_id", target.Device.ID),
		zap.String("strategy", string(proposal.Strategy)),
		zap.Float64("confidence", proposal.Confidence),
		zap.Strings("matched_by", target.MatchedBy),
	)
	s.publish(ctx, TopicDeviceMerged, DeviceMergedEvent{
		DeviceID:   target.Device.ID,
		CustomerID: o.CustomerID,
		Strategy:   proposal.Strategy,
		Confidence: proposal.Confidence,
		MatchedBy:  target.MatchedBy,
	})

	return &ResolveResult{
		Device:    target.Device,
		Proposal:  &proposal,
		MatchedBy: target.MatchedBy,
	}, nil
}

func (s *Service) createDevice(ctx context.Context, o *models.DiscoveredDevice) (*ResolveResult, error) {
	now := s.nowFunc()
	d := &models.Device{
		ID:         uuid.NewString(),
		CustomerID: o.CustomerID,
		Name:       deviceName(o),
		PrimaryIP:  o.Address,
		PrimaryMAC: o.MACAddress,
		DeviceType: models.DeviceTypeOther,
		Status:     models.DeviceStatusUnknown,
		Active:     true,
		CreatedAt:  now,
	}

	// A fresh record has no populated fields to protect, so the overwrite
	// path doubles as the initial fill. It also sets first_seen and the
	// verification counter the same way a merge would.
	proposal := MergeProposal{Strategy: StrategyOverwrite, Reason: "new device"}
	if err := ApplyProposal(d, o, proposal, now); err != nil {
		return nil, err
	}
	if d.DeviceType == "" {
		d.DeviceType = models.DeviceTypeOther
	}

	if err := s.store.InsertDevice(ctx, d); err != nil {
		return nil, fmt.Errorf("insert device: %w", err)
	}

	s.logger.Info("device created",
		zap.String("device_id", d.ID),
		zap.String("customer_id", d.CustomerID),
		zap.String("name", d.Name),
	)
	s.publish(ctx, TopicDeviceCreated, DeviceCreatedEvent{
		DeviceID:   d.ID,
		CustomerID: d.CustomerID,
		MAC:        d.PrimaryMAC,
		IP:         d.PrimaryIP,
		Hostname:   d.Hostname,
		Score:      DeviceScore(d),
	})

	return &ResolveResult{Device: d, Created: true, Proposal: &proposal}, nil
}

// pickTarget selects the merge target among match candidates: a MAC match is
// authoritative; otherwise the most complete record wins, ties broken by
// lowest record ID so the choice is deterministic.
func pickTarget(candidates []MatchCandidate) MatchCandidate {
	best := candidates[0]
	if best.matchedBy(MatchByMAC) {
		return best
	}
	for _, c := range candidates[1:] {
		if c.matchedBy(MatchByMAC) {
			return c
		}
		if c.Score > best.Score || (c.Score == best.Score && c.Device.ID < best.Device.ID) {
			best = c
		}
	}
	return best
}

func deviceName(o *models.DiscoveredDevice) string {
	switch {
	case o.Hostname != "":
		return o.Hostname
	case o.Address != "":
		return o.Address
	case o.MACAddress != "":
		return o.MACAddress
	default:
		return "unknown-device"
	}
}

// customerLock returns the mutex serializing writes for one customer. Entries
// are never evicted: the map holds one mutex per tenant, and tenants are few
// and long-lived.
func (s *Service) customerLock(customerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[customerID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[customerID] = l
	}
	return l
}

func (s *Service) publish(ctx context.Context, topic string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "inventory",
		Timestamp: s.nowFunc(),
		Payload:   payload,
	})
}
