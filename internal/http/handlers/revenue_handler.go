package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"greenhat/internal/service"
)

const rangeDateLayout = "2006-01-02"

// RevenueHandlers serves revenue rollups and time series.
type RevenueHandlers struct {
	snapshots SnapshotSource
	clock     service.Clock
	logger    *zap.Logger
}

// NewRevenueHandlers returns handler.
func NewRevenueHandlers(snapshots SnapshotSource, clock service.Clock, logger *zap.Logger) *RevenueHandlers {
	return &RevenueHandlers{snapshots: snapshots, clock: clock, logger: logger}
}

type rangeResponse struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Total    int64           `json:"total"`
	Series   []service.Point `json:"series"`
	Warnings int             `json:"warnings"`
}

// Get handles GET /api/revenue. Without parameters it returns the full
// aggregation (four window totals, daily series, plan totals). With
// ?from=YYYY-MM-DD[&to=YYYY-MM-DD] it totals the custom range [from, to) —
// the end date is exclusive, so "through January" sends to=2025-02-01.
// to defaults to the start of tomorrow, covering "from .. today".
func (h *RevenueHandlers) Get(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}

	now := h.clock()
	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")

	if fromParam == "" && toParam == "" {
		result := service.Aggregate(snap.Payments, now)
		writeJSON(w, http.StatusOK, struct {
			service.Result
			Warnings int `json:"warnings"`
		}{Result: result, Warnings: len(result.Warnings)})
		return
	}

	from, err := time.ParseInLocation(rangeDateLayout, fromParam, now.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}

	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if toParam != "" {
		to, err = time.ParseInLocation(rangeDateLayout, toParam, now.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "to must be after from")
		return
	}

	total, warnings := service.SumRange(snap.Payments, from, to)
	series, _ := service.SeriesRange(snap.Payments, from, to)
	writeJSON(w, http.StatusOK, rangeResponse{
		From:     from.Format(rangeDateLayout),
		To:       to.Format(rangeDateLayout),
		Total:    total,
		Series:   series,
		Warnings: len(warnings),
	})
}
