package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"greenhat/internal/models"
	"greenhat/internal/service"
)

var errFakePortalDown = errors.New("portal down")

// fakeSnapshots implements SnapshotSource over a fixed snapshot.
type fakeSnapshots struct {
	mu       sync.Mutex
	snap     models.Snapshot
	have     bool
	refreshs int
	removed  []int64
}

func (f *fakeSnapshots) Snapshot() (models.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.have
}

func (f *fakeSnapshots) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshs++
	return nil
}

func (f *fakeSnapshots) RemovePayment(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
}

func (f *fakeSnapshots) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshs
}

// fakePortal records the command calls and can fail them all.
type fakePortal struct {
	mu         sync.Mutex
	err        error
	extended   []int64
	terminated []int64
	confirmed  []int64
	rejected   []int64
	created    []models.Router
	updated    []models.Router
	deleted    []int64
}

func (f *fakePortal) ExtendSession(ctx context.Context, sessionID int64, hours int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.extended = append(f.extended, sessionID)
	return nil
}

func (f *fakePortal) TerminateSession(ctx context.Context, sessionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.terminated = append(f.terminated, sessionID)
	return nil
}

func (f *fakePortal) ConfirmPayment(ctx context.Context, paymentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.confirmed = append(f.confirmed, paymentID)
	return nil
}

func (f *fakePortal) RejectPayment(ctx context.Context, paymentID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rejected = append(f.rejected, paymentID)
	return nil
}

func (f *fakePortal) CreateRouter(ctx context.Context, router models.Router) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, router)
	return nil
}

func (f *fakePortal) UpdateRouter(ctx context.Context, router models.Router) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, router)
	return nil
}

func (f *fakePortal) DeleteRouter(ctx context.Context, routerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, routerID)
	return nil
}

func handlersNow() time.Time {
	return time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
}

func fixedClock(now time.Time) service.Clock {
	return func() time.Time { return now }
}
