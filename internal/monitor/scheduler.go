package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/grandir66/dadude/pkg/plugin"
)

// TickStats summarizes one monitoring tick.
type TickStats struct {
	Checked int
	Changed int
	Errors  int
}

// Scheduler drives periodic liveness checks over all monitored devices. At
// most one tick runs at a time; a tick that fires while the previous one is
// still running is dropped, not queued. Within a tick, checks run with
// bounded concurrency and each check has its own timeout, so one hung probe
// never stalls the rest.
type Scheduler struct {
	store    *MonitorStore
	resolver ProberResolver
	cfg      MonitorConfig
	bus      plugin.EventBus
	logger   *zap.Logger
	nowFunc  func() time.Time

	inFlight atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(store *MonitorStore, resolver ProberResolver, cfg MonitorConfig, bus plugin.EventBus, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		bus:      bus,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// Start begins the periodic tick loop. Non-blocking; Stop waits for the loop
// and any running tick to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.CheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunTick(s.ctx); err != nil {
					s.logger.Error("monitoring tick failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop terminates the tick loop and waits for completion.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunTick executes one monitoring tick: load monitored devices, check them
// concurrently, then commit all results as one batch. Safe to call from any
// goroutine; a no-op returning zero stats if a tick is already running.
func (s *Scheduler) RunTick(ctx context.Context) (TickStats, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("tick skipped, previous tick still running")
		return TickStats{}, nil
	}
	defer s.inFlight.Store(false)

	start := s.nowFunc()
	devices, err := s.store.ListMonitoredDevices(ctx)
	if err != nil {
		return TickStats{}, fmt.Errorf("monitoring tick: %w", err)
	}
	monitoredDevices.Set(float64(len(devices)))
	if len(devices) == 0 {
		return TickStats{}, nil
	}

	outcomes := make([]CheckOutcome, len(devices))
	sem := make(chan struct{}, s.cfg.MaxWorkers)
	var wg sync.WaitGroup

dispatch:
	for i := range devices {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.checkDevice(ctx, &devices[i])
		}(i)
	}
	wg.Wait()

	// Devices never dispatched (tick cancelled mid-way) keep their zero
	// outcome; drop them rather than writing empty rows.
	applied := outcomes[:0]
	for _, o := range outcomes {
		if o.DeviceID != "" {
			applied = append(applied, o)
		}
	}

	now := s.nowFunc()
	if err := s.store.ApplyOutcomes(ctx, applied, now); err != nil {
		return TickStats{}, fmt.Errorf("monitoring tick: %w", err)
	}

	stats := TickStats{Checked: len(applied)}
	for _, o := range applied {
		checksTotal.WithLabelValues(string(o.Status)).Inc()
		if o.Err != "" {
			stats.Errors++
		}
		if !o.Changed() {
			continue
		}
		stats.Changed++
		transitionsTotal.Inc()
		s.logger.Info("device status changed",
			zap.String("device_id", o.DeviceID),
			zap.String("previous", string(o.Previous)),
			zap.String("current", string(o.Status)),
			zap.String("error", o.Err),
		)
		s.publish(ctx, TopicStatusChanged, StatusChangedEvent{
			DeviceID:   o.DeviceID,
			CustomerID: o.CustomerID,
			Previous:   string(o.Previous),
			Current:    string(o.Status),
			Error:      o.Err,
		})
	}

	elapsed := s.nowFunc().Sub(start)
	tickDuration.Observe(elapsed.Seconds())
	s.logger.Debug("monitoring tick completed",
		zap.Int("checked", stats.Checked),
		zap.Int("changed", stats.Changed),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", elapsed),
	)
	s.publish(ctx, TopicTickCompleted, TickCompletedEvent{
		Checked:  stats.Checked,
		Changed:  stats.Changed,
		Errors:   stats.Errors,
		Duration: elapsed,
	})
	return stats, nil
}

// checkDevice runs one liveness check under its own timeout. A probe error
// or timeout yields unknown and is recorded, never propagated.
func (s *Scheduler) checkDevice(ctx context.Context, d *MonitoredDevice) CheckOutcome {
	checkCtx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
	defer cancel()

	result := s.resolver.Resolve(d).Probe(checkCtx, d)
	if result.Err != "" {
		s.logger.Warn("liveness check failed",
			zap.String("device_id", d.ID),
			zap.String("kind", string(d.MonitoringKind)),
			zap.String("error", result.Err),
		)
	}
	return CheckOutcome{
		DeviceID:   d.ID,
		CustomerID: d.CustomerID,
		Previous:   d.Status,
		Status:     result.Status,
		Latency:    result.Latency,
		Err:        result.Err,
	}
}

// Running reports whether a tick is currently executing.
func (s *Scheduler) Running() bool {
	return s.inFlight.Load()
}

func (s *Scheduler) publish(ctx context.Context, topic string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "monitor",
		Timestamp: s.nowFunc(),
		Payload:   payload,
	})
}
