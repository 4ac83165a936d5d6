package inventory

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/grandir66/dadude/pkg/models"
	"github.com/grandir66/dadude/pkg/plugin"
)

// CleanupReport summarizes one cleanup sweep. In dry-run mode only Candidates
// is populated; otherwise Deactivated and Demoted list the affected record
// IDs.
type CleanupReport struct {
	DryRun      bool            `json:"dry_run"`
	Candidates  []models.Device `json:"candidates,omitempty"`
	Deactivated []string        `json:"deactivated,omitempty"`
	Demoted     []string        `json:"demoted,omitempty"`
}

// CleanupManager owns the two-phase retirement of stale records: a mark sweep
// stamps records that have gone unverified past the threshold, and a later
// cleanup sweep acts on marks older than the grace period. Any successful
// merge in between clears the mark and cancels retirement.
type CleanupManager struct {
	store   *InventoryStore
	bus     plugin.EventBus
	cfg     InventoryConfig
	logger  *zap.Logger
	nowFunc func() time.Time
}

func NewCleanupManager(store *InventoryStore, bus plugin.EventBus, cfg InventoryConfig, logger *zap.Logger) *CleanupManager {
	return &CleanupManager{
		store:   store,
		bus:     bus,
		cfg:     cfg,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// MarkForCleanup marks active, unmarked records whose last verification is
// absent or older than the configured threshold. Empty customerID sweeps all
// tenants. Returns the number of records marked.
func (c *CleanupManager) MarkForCleanup(ctx context.Context, customerID string) (int64, error) {
	now := c.nowFunc()
	threshold := now.Add(-c.cfg.CleanupThreshold)

	marked, err := c.store.MarkForCleanup(ctx, customerID, threshold, now)
	if err != nil {
		return 0, fmt.Errorf("mark sweep: %w", err)
	}
	if marked > 0 {
		c.logger.Info("devices marked for cleanup",
			zap.Int64("marked", marked),
			zap.String("customer_id", customerID),
			zap.Time("threshold", threshold),
		)
		c.publish(ctx, TopicCleanupMarked, CleanupMarkedEvent{
			CustomerID: customerID,
			Marked:     marked,
			MarkedAt:   now,
		})
	}
	return marked, nil
}

// CleanupMarked acts on records whose cleanup mark has outlived the grace
// period. Monitored records are demoted (monitoring disabled, record kept
// active) rather than removed; everything else is soft-deleted. With dryRun
// the candidate list is returned and nothing is written.
func (c *CleanupManager) CleanupMarked(ctx context.Context, customerID string, dryRun bool) (*CleanupReport, error) {
	now := c.nowFunc()
	graceBefore := now.Add(-c.cfg.CleanupGrace)

	candidates, err := c.store.ListCleanupCandidates(ctx, customerID, graceBefore)
	if err != nil {
		return nil, fmt.Errorf("cleanup sweep: %w", err)
	}
	if dryRun {
		return &CleanupReport{DryRun: true, Candidates: candidates}, nil
	}

	report := &CleanupReport{}
	for i := range candidates {
		d := &candidates[i]
		if d.Monitored || d.MonitoringKind.LiveChecking() {
			report.Demoted = append(report.Demoted, d.ID)
		} else {
			report.Deactivated = append(report.Deactivated, d.ID)
		}
	}
	if len(report.Deactivated) == 0 && len(report.Demoted) == 0 {
		return report, nil
	}

	if err := c.store.ApplyCleanup(ctx, report.Deactivated, report.Demoted, now); err != nil {
		return nil, fmt.Errorf("cleanup sweep: %w", err)
	}

	for i := range candidates {
		d := &candidates[i]
		if d.Monitored || d.MonitoringKind.LiveChecking() {
			c.logger.Info("monitored device demoted instead of deactivated",
				zap.String("device_id", d.ID),
				zap.String("customer_id", d.CustomerID),
			)
			c.publish(ctx, TopicDeviceDemoted, DeviceDemotedEvent{DeviceID: d.ID, CustomerID: d.CustomerID})
			continue
		}
		c.logger.Info("stale device deactivated",
			zap.String("device_id", d.ID),
			zap.String("customer_id", d.CustomerID),
			zap.Timep("last_verified_at", d.LastVerifiedAt),
		)
		c.publish(ctx, TopicDeviceDeactivated, DeviceDeactivatedEvent{DeviceID: d.ID, CustomerID: d.CustomerID})
	}

	return report, nil
}

// RunSweep performs a full lifecycle pass over all tenants: mark the newly
// stale, then act on marks past their grace period. Used by the periodic
// driver; both halves are idempotent.
func (c *CleanupManager) RunSweep(ctx context.Context) error {
	if _, err := c.MarkForCleanup(ctx, ""); err != nil {
		return err
	}
	_, err := c.CleanupMarked(ctx, "", false)
	return err
}

func (c *CleanupManager) publish(ctx context.Context, topic string, payload any) {
	if c.bus == nil {
		return
	}
	c.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "inventory",
		Timestamp: c.nowFunc(),
		Payload:   payload,
	})
}
