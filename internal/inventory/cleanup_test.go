package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/grandir66/dadude/internal/testutil"
	"github.com/grandir66/dadude/pkg/models"
)

func testCleanup(t *testing.T) (*CleanupManager, *InventoryStore, *testutil.Clock) {
	t.Helper()
	s := testStore(t)
	clock := testutil.NewClock(testNow())
	mgr := NewCleanupManager(s, nil, DefaultConfig(), testutil.Logger())
	mgr.nowFunc = clock.Now
	return mgr, s, clock
}

// Covers the full two-phase timeline: a record last verified 91 days ago is
// marked now; a sweep 8 days later, with no re-verification in between,
// deactivates it.
func TestCleanup_TwoPhaseLifecycle(t *testing.T) {
	mgr, s, clock := testCleanup(t)
	ctx := context.Background()

	d := newTestDevice("cust-1")
	verified := clock.Now().Add(-91 * 24 * time.Hour)
	d.LastVerifiedAt = &verified
	insertTestDevice(t, s, d)

	marked, err := mgr.MarkForCleanup(ctx, "cust-1")
	if err != nil {
		t.Fatalf("MarkForCleanup: %v", err)
	}
	if marked != 1 {
		t.Fatalf("marked = %d, want 1", marked)
	}

	// Still inside the grace period: nothing happens.
	report, err := mgr.CleanupMarked(ctx, "cust-1", false)
	if err != nil {
		t.Fatalf("CleanupMarked: %v", err)
	}
	if len(report.Deactivated) != 0 {
		t.Fatal("device deactivated before grace period elapsed")
	}

	clock.Advance(8 * 24 * time.Hour)

	report, err = mgr.CleanupMarked(ctx, "cust-1", false)
	if err != nil {
		t.Fatalf("CleanupMarked: %v", err)
	}
	if len(report.Deactivated) != 1 || report.Deactivated[0] != d.ID {
		t.Fatalf("Deactivated = %v, want [%s]", report.Deactivated, d.ID)
	}

	got, _ := s.GetDevice(ctx, d.ID)
	if got.Active {
		t.Error("device still active after cleanup")
	}
}

func TestCleanup_MonitoredDeviceDemotedNotDeactivated(t *testing.T) {
	mgr, s, clock := testCleanup(t)
	ctx := context.Background()

	d := newTestDevice("cust-1")
	d.Monitored = true
	d.MonitoringKind = models.MonitoringICMP
	markedAt := clock.Now().Add(-8 * 24 * time.Hour)
	d.CleanupMarkedAt = &markedAt
	insertTestDevice(t, s, d)

	report, err := mgr.CleanupMarked(ctx, "cust-1", false)
	if err != nil {
		t.Fatalf("CleanupMarked: %v", err)
	}
	if len(report.Demoted) != 1 || len(report.Deactivated) != 0 {
		t.Fatalf("report = %+v, want one demotion", report)
	}

	got, _ := s.GetDevice(ctx, d.ID)
	if !got.Active {
		t.Error("monitored device must stay active")
	}
	if got.Monitored || got.MonitoringKind != models.MonitoringNone {
		t.Errorf("monitoring not disabled: %+v", got)
	}
}

// A demotion restarts the lifecycle: the cleanup mark is cleared, so the
// device is not picked up again by the sweep that follows.
func TestCleanup_DemotedDeviceSurvivesNextSweep(t *testing.T) {
	mgr, s, clock := testCleanup(t)
	ctx := context.Background()

	d := newTestDevice("cust-1")
	d.Monitored = true
	d.MonitoringKind = models.MonitoringICMP
	markedAt := clock.Now().Add(-8 * 24 * time.Hour)
	d.CleanupMarkedAt = &markedAt
	insertTestDevice(t, s, d)

	report, err := mgr.CleanupMarked(ctx, "cust-1", false)
	if err != nil {
		t.Fatalf("CleanupMarked: %v", err)
	}
	if len(report.Demoted) != 1 {
		t.Fatalf("report = %+v, want one demotion", report)
	}

	got, _ := s.GetDevice(ctx, d.ID)
	if got.CleanupMarkedAt != nil {
		t.Fatal("cleanup mark not cleared on demotion")
	}

	clock.Advance(24 * time.Hour)
	report, err = mgr.CleanupMarked(ctx, "cust-1", false)
	if err != nil {
		t.Fatalf("CleanupMarked: %v", err)
	}
	if len(report.Deactivated) != 0 || len(report.Demoted) != 0 {
		t.Fatalf("demoted device swept again: %+v", report)
	}

	got, _ = s.GetDevice(ctx, d.ID)
	if !got.Active {
		t.Error("demoted device deactivated by the following sweep")
	}
}

func TestCleanup_DryRunReportsWithoutChanging(t *testing.T) {
	mgr, s, clock := testCleanup(t)
	ctx := context.Background()

	d := newTestDevice("cust-1")
	markedAt := clock.Now().Add(-8 * 24 * time.Hour)
	d.CleanupMarkedAt = &markedAt
	insertTestDevice(t, s, d)

	report, err := mgr.CleanupMarked(ctx, "cust-1", true)
	if err != nil {
		t.Fatalf("CleanupMarked: %v", err)
	}
	if !report.DryRun || len(report.Candidates) != 1 {
		t.Fatalf("report = %+v, want dry run with 1 candidate", report)
	}

	got, _ := s.GetDevice(ctx, d.ID)
	if !got.Active {
		t.Error("dry run deactivated a device")
	}
}

func TestCleanup_ReverifiedDeviceEscapes(t *testing.T) {
	mgr, s, clock := testCleanup(t)
	ctx := context.Background()

	svc := NewService(s, nil, DefaultConfig(), testutil.Logger())
	svc.nowFunc = clock.Now

	d := newTestDevice("cust-1")
	d.PrimaryMAC = "AA:BB:CC:DD:EE:FF"
	verified := clock.Now().Add(-91 * 24 * time.Hour)
	d.LastVerifiedAt = &verified
	insertTestDevice(t, s, d)

	if _, err := mgr.MarkForCleanup(ctx, "cust-1"); err != nil {
		t.Fatalf("MarkForCleanup: %v", err)
	}

	// A probe sees the device again during the grace period.
	clock.Advance(2 * 24 * time.Hour)
	if _, err := svc.ResolveAndMerge(ctx, &models.DiscoveredDevice{
		CustomerID: "cust-1",
		MACAddress: "AA:BB:CC:DD:EE:FF",
	}); err != nil {
		t.Fatalf("ResolveAndMerge: %v", err)
	}

	clock.Advance(6 * 24 * time.Hour)
	report, err := mgr.CleanupMarked(ctx, "cust-1", false)
	if err != nil {
		t.Fatalf("CleanupMarked: %v", err)
	}
	if len(report.Deactivated) != 0 || len(report.Demoted) != 0 {
		t.Fatalf("re-verified device swept anyway: %+v", report)
	}

	got, _ := s.GetDevice(ctx, d.ID)
	if !got.Active {
		t.Error("re-verified device deactivated")
	}
}

func TestRunSweep_MarksAndCleansAllTenants(t *testing.T) {
	mgr, s, clock := testCleanup(t)
	ctx := context.Background()

	old := clock.Now().Add(-100 * 24 * time.Hour)
	for _, cust := range []string{"cust-a", "cust-b"} {
		d := newTestDevice(cust)
		d.LastVerifiedAt = &old
		insertTestDevice(t, s, d)
	}

	if err := mgr.RunSweep(ctx); err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	// First sweep only marks. After the grace period a second sweep acts.
	clock.Advance(8 * 24 * time.Hour)
	if err := mgr.RunSweep(ctx); err != nil {
		t.Fatalf("RunSweep: %v", err)
	}

	candidates, err := s.ListCleanupCandidates(ctx, "", clock.Now())
	if err != nil {
		t.Fatalf("ListCleanupCandidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("%d candidates remain after full sweep, want 0", len(candidates))
	}
}
