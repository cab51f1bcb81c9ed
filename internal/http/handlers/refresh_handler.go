package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// RefreshHandlers routes explicit refreshes through the poller loop, the
// same path the fetch timer uses.
type RefreshHandlers struct {
	snapshots SnapshotSource
	logger    *zap.Logger
}

// NewRefreshHandlers returns handler.
func NewRefreshHandlers(snapshots SnapshotSource, logger *zap.Logger) *RefreshHandlers {
	return &RefreshHandlers{snapshots: snapshots, logger: logger}
}

// Refresh handles POST /api/refresh.
func (h *RefreshHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.snapshots.Refresh(r.Context()); err != nil {
		h.logger.Warn("manual refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "portal unavailable, serving last snapshot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
