package handlers

import (
	"net/http"

	"greenhat/internal/service"
)

// StatsHandlers serves the role dashboards.
type StatsHandlers struct {
	snapshots SnapshotSource
	clock     service.Clock
}

// NewStatsHandlers returns handler.
func NewStatsHandlers(snapshots SnapshotSource, clock service.Clock) *StatsHandlers {
	return &StatsHandlers{snapshots: snapshots, clock: clock}
}

// Owner handles GET /api/stats/owner.
func (h *StatsHandlers) Owner(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	writeJSON(w, http.StatusOK, service.OwnerStatsFrom(snap, h.clock()))
}

// Staff handles GET /api/stats/staff.
func (h *StatsHandlers) Staff(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	writeJSON(w, http.StatusOK, service.StaffStatsFrom(snap, h.clock()))
}

// Super handles GET /api/stats/super.
func (h *StatsHandlers) Super(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	writeJSON(w, http.StatusOK, service.SuperStatsFrom(snap, h.clock()))
}

// Plans handles GET /api/plans.
func (h *StatsHandlers) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, service.Plans())
}
