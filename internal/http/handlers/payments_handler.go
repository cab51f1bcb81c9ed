package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"greenhat/internal/models"
)

// PaymentsHandlers serves the payments working set and proxies confirm and
// reject commands.
type PaymentsHandlers struct {
	snapshots SnapshotSource
	portal    PortalCommands
	logger    *zap.Logger
}

// NewPaymentsHandlers returns handler.
func NewPaymentsHandlers(snapshots SnapshotSource, portal PortalCommands, logger *zap.Logger) *PaymentsHandlers {
	return &PaymentsHandlers{snapshots: snapshots, portal: portal, logger: logger}
}

// List handles GET /api/payments?status=&phone=. Filters apply to the local
// snapshot; the portal list stays unfiltered so revenue windows always see
// the full working set.
func (h *PaymentsHandlers) List(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))

	filtered := make([]models.Payment, 0, len(snap.Payments))
	for _, p := range snap.Payments {
		if status != "" && p.Status != status {
			continue
		}
		if phone != "" && !strings.Contains(p.Phone, phone) {
			continue
		}
		filtered = append(filtered, p)
	}
	writeJSON(w, http.StatusOK, filtered)
}

type paymentCommandRequest struct {
	PaymentID int64 `json:"paymentId"`
}

// Confirm handles POST /api/payments/confirm.
func (h *PaymentsHandlers) Confirm(w http.ResponseWriter, r *http.Request) {
	var req paymentCommandRequest
	if err := decodeJSON(r, &req); err != nil || req.PaymentID == 0 {
		writeError(w, http.StatusBadRequest, "paymentId required")
		return
	}
	if err := h.portal.ConfirmPayment(r.Context(), req.PaymentID); err != nil {
		h.logger.Error("payment confirm failed", zap.Int64("payment_id", req.PaymentID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "portal unavailable")
		return
	}
	if err := h.snapshots.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh after confirm failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Reject handles POST /api/payments/reject. The payment leaves the working
// set immediately; the portal delete is authoritative and the follow-up
// refresh reconciles.
func (h *PaymentsHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	var req paymentCommandRequest
	if err := decodeJSON(r, &req); err != nil || req.PaymentID == 0 {
		writeError(w, http.StatusBadRequest, "paymentId required")
		return
	}
	if err := h.portal.RejectPayment(r.Context(), req.PaymentID); err != nil {
		h.logger.Error("payment reject failed", zap.Int64("payment_id", req.PaymentID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "portal unavailable")
		return
	}
	h.snapshots.RemovePayment(req.PaymentID)
	if err := h.snapshots.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh after reject failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
