package poller

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"greenhat/internal/models"
)

type fakePortal struct {
	mu         sync.Mutex
	sessions   []models.Session
	payments   []models.Payment
	routers    []models.Router
	businesses []models.Business
	err        error
	bizErr     error
}

func (f *fakePortal) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakePortal) setPayments(payments []models.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = payments
}

func (f *fakePortal) FetchSessions(ctx context.Context) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, f.err
}

func (f *fakePortal) FetchPayments(ctx context.Context) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments, f.err
}

func (f *fakePortal) FetchRouters(ctx context.Context) ([]models.Router, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routers, f.err
}

func (f *fakePortal) FetchBusinesses(ctx context.Context) ([]models.Business, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bizErr != nil {
		return nil, f.bizErr
	}
	return f.businesses, f.err
}

type fakeCache struct {
	mu     sync.Mutex
	stored *models.Snapshot
	saves  int
}

func (f *fakeCache) Save(ctx context.Context, snap models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = &snap
	f.saves++
	return nil
}

func (f *fakeCache) Load(ctx context.Context) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, nil
}

func (f *fakeCache) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func testPoller(portal *fakePortal, cache Cache) *Poller {
	return New(portal, cache, zap.NewNop(), Config{
		FetchInterval: time.Hour,
		TickInterval:  time.Hour,
	})
}

func pollerNow() time.Time {
	return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
}

func TestRefreshTracksSessions(t *testing.T) {
	now := pollerNow()
	portal := &fakePortal{
		sessions: []models.Session{
			{ID: 1, EndTime: now.Add(2 * time.Hour).Format(time.RFC3339)},
			{ID: 2, EndTime: now.Add(-time.Hour).Format(time.RFC3339)},
		},
		payments: []models.Payment{
			{ID: 1, Amount: json.Number("500"), Status: models.PaymentApproved, CreatedAt: now.Format(time.RFC3339)},
		},
	}
	p := testPoller(portal, nil)
	p.SetClock(func() time.Time { return now })

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	snap, ok := p.Snapshot()
	if !ok {
		t.Fatalf("expected snapshot after refresh")
	}
	if snap.Sessions[0].Remaining != 2*time.Hour || snap.Sessions[0].Ended {
		t.Fatalf("first session not tracked: %+v", snap.Sessions[0])
	}
	if !snap.Sessions[1].Ended {
		t.Fatalf("expired session not marked ended: %+v", snap.Sessions[1])
	}
	if len(snap.Payments) != 1 {
		t.Fatalf("payments not carried into snapshot")
	}
	if snap.Stale {
		t.Fatalf("fresh snapshot must not be stale")
	}
}

func TestRefreshKeepsLastGoodSnapshot(t *testing.T) {
	now := pollerNow()
	portal := &fakePortal{
		sessions: []models.Session{{ID: 1, EndTime: now.Add(time.Hour).Format(time.RFC3339)}},
	}
	p := testPoller(portal, nil)
	p.SetClock(func() time.Time { return now })

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	portal.setErr(errors.New("portal down"))
	if err := p.refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh error when portal is down")
	}

	snap, ok := p.Snapshot()
	if !ok || len(snap.Sessions) != 1 {
		t.Fatalf("last good snapshot was lost: ok=%v sessions=%d", ok, len(snap.Sessions))
	}
}

func TestRefreshToleratesBusinessesFailure(t *testing.T) {
	portal := &fakePortal{bizErr: errors.New("forbidden")}
	p := testPoller(portal, nil)

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("businesses failure must not abort refresh: %v", err)
	}
	snap, ok := p.Snapshot()
	if !ok || snap.Businesses != nil {
		t.Fatalf("expected snapshot without businesses, got ok=%v %+v", ok, snap.Businesses)
	}
}

func TestRefreshSavesToCache(t *testing.T) {
	cache := &fakeCache{}
	p := testPoller(&fakePortal{}, cache)

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if cache.saveCount() != 1 {
		t.Fatalf("expected one cache save, got %d", cache.saveCount())
	}
}

func TestRunRestoresCachedSnapshotWhenPortalDown(t *testing.T) {
	now := pollerNow()
	cache := &fakeCache{stored: &models.Snapshot{
		Sessions:  []models.Session{{ID: 9, EndTime: now.Add(time.Hour).Format(time.RFC3339)}},
		FetchedAt: now.Add(-10 * time.Minute),
	}}
	portal := &fakePortal{err: errors.New("portal down")}
	p := testPoller(portal, cache)
	p.SetClock(func() time.Time { return now })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	waitFor(t, time.Second, func() bool {
		_, ok := p.Snapshot()
		return ok
	})

	snap, _ := p.Snapshot()
	if !snap.Stale {
		t.Fatalf("cache-restored snapshot must be flagged stale")
	}
	if len(snap.Sessions) != 1 || snap.Sessions[0].Remaining != time.Hour {
		t.Fatalf("cached sessions not re-tracked: %+v", snap.Sessions)
	}

	cancel()
	<-done
}

func TestManualRefreshThroughLoop(t *testing.T) {
	now := pollerNow()
	portal := &fakePortal{}
	p := testPoller(portal, nil)
	p.SetClock(func() time.Time { return now })

	var mu sync.Mutex
	updates := 0
	p.OnUpdate(func(models.Snapshot) {
		mu.Lock()
		updates++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	waitFor(t, time.Second, func() bool {
		_, ok := p.Snapshot()
		return ok
	})

	portal.setPayments([]models.Payment{
		{ID: 5, Amount: json.Number("200"), Status: models.PaymentPending, CreatedAt: now.Format(time.RFC3339)},
	})
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("manual refresh failed: %v", err)
	}

	snap, _ := p.Snapshot()
	if len(snap.Payments) != 1 || snap.Payments[0].ID != 5 {
		t.Fatalf("manual refresh did not pick up new data: %+v", snap.Payments)
	}

	portal.setErr(errors.New("portal down"))
	if err := p.Refresh(context.Background()); err == nil {
		t.Fatalf("manual refresh must surface portal errors")
	}

	mu.Lock()
	if updates < 2 {
		mu.Unlock()
		t.Fatalf("expected an update per successful refresh, got %d", updates)
	}
	mu.Unlock()

	cancel()
	<-done
}

func TestRecomputeFlipsExpiringSessions(t *testing.T) {
	now := pollerNow()
	portal := &fakePortal{
		sessions: []models.Session{{ID: 1, EndTime: now.Add(30 * time.Minute).Format(time.RFC3339)}},
	}
	p := testPoller(portal, nil)

	current := now
	var mu sync.Mutex
	p.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	})

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	mu.Lock()
	current = now.Add(time.Hour)
	mu.Unlock()
	p.recompute()

	snap, _ := p.Snapshot()
	if !snap.Sessions[0].Ended {
		t.Fatalf("recompute tick must end expired sessions without a fetch")
	}
	if !snap.RecomputedAt.After(snap.FetchedAt) {
		t.Fatalf("recompute must advance RecomputedAt past FetchedAt")
	}
}

func TestRemovePayment(t *testing.T) {
	now := pollerNow()
	portal := &fakePortal{
		payments: []models.Payment{
			{ID: 1, Amount: json.Number("500"), Status: models.PaymentPending, CreatedAt: now.Format(time.RFC3339)},
			{ID: 2, Amount: json.Number("200"), Status: models.PaymentPending, CreatedAt: now.Format(time.RFC3339)},
		},
	}
	p := testPoller(portal, nil)

	// Before any data the call is a no-op.
	p.RemovePayment(1)

	if err := p.refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	p.RemovePayment(1)

	snap, _ := p.Snapshot()
	if len(snap.Payments) != 1 || snap.Payments[0].ID != 2 {
		t.Fatalf("payment 1 should be gone: %+v", snap.Payments)
	}
}
