package handlers

import (
	"context"

	"greenhat/internal/models"
)

// SnapshotSource serves the latest derived snapshot. Implemented by the
// poller.
type SnapshotSource interface {
	Snapshot() (models.Snapshot, bool)
	Refresh(ctx context.Context) error
	RemovePayment(id int64)
}

// PortalCommands are the opaque mutating calls proxied to the portal. Each
// one is followed by a refresh rather than local reconciliation.
type PortalCommands interface {
	ExtendSession(ctx context.Context, sessionID int64, hours int) error
	TerminateSession(ctx context.Context, sessionID int64) error
	ConfirmPayment(ctx context.Context, paymentID int64) error
	RejectPayment(ctx context.Context, paymentID int64) error
	CreateRouter(ctx context.Context, router models.Router) error
	UpdateRouter(ctx context.Context, router models.Router) error
	DeleteRouter(ctx context.Context, routerID int64) error
}
