package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"greenhat/internal/models"
	"greenhat/internal/service"
)

// SessionsHandlers serves derived session state and proxies the extend and
// terminate commands.
type SessionsHandlers struct {
	snapshots SnapshotSource
	portal    PortalCommands
	clock     service.Clock
	logger    *zap.Logger
}

// NewSessionsHandlers returns handler.
func NewSessionsHandlers(snapshots SnapshotSource, portal PortalCommands, clock service.Clock, logger *zap.Logger) *SessionsHandlers {
	return &SessionsHandlers{snapshots: snapshots, portal: portal, clock: clock, logger: logger}
}

// sessionDTO is the presentation shape; hours are rounded here and nowhere
// earlier, so repeated ticks never compound rounding error.
type sessionDTO struct {
	ID             int64   `json:"id"`
	Phone          string  `json:"phone"`
	MAC            string  `json:"mac"`
	Router         string  `json:"router"`
	Commune        string  `json:"commune"`
	EndTime        string  `json:"end_time"`
	Ended          bool    `json:"ended"`
	RemainingHours float64 `json:"remaining_hours"`
}

// List handles GET /api/sessions.
func (h *SessionsHandlers) List(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}

	tracked, _ := service.RecomputeSessions(snap.Sessions, h.clock())
	dtos := make([]sessionDTO, 0, len(tracked))
	for _, s := range tracked {
		dtos = append(dtos, sessionDTO{
			ID:             s.ID,
			Phone:          s.Phone,
			MAC:            s.MAC,
			Router:         s.Router.Name,
			Commune:        s.Commune,
			EndTime:        s.EndTime,
			Ended:          s.Ended,
			RemainingHours: s.Remaining.Hours(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

type sessionCommandRequest struct {
	SessionID int64 `json:"sessionId"`
	Hours     int   `json:"hours"`
}

// Extend handles POST /api/sessions/extend. An effectively ended session is
// refused locally even if the portal flag still says active.
func (h *SessionsHandlers) Extend(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(req sessionCommandRequest) error {
		return h.portal.ExtendSession(r.Context(), req.SessionID, req.Hours)
	})
}

// Terminate handles POST /api/sessions/terminate.
func (h *SessionsHandlers) Terminate(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(req sessionCommandRequest) error {
		return h.portal.TerminateSession(r.Context(), req.SessionID)
	})
}

func (h *SessionsHandlers) command(w http.ResponseWriter, r *http.Request, call func(sessionCommandRequest) error) {
	var req sessionCommandRequest
	if err := decodeJSON(r, &req); err != nil || req.SessionID == 0 {
		writeError(w, http.StatusBadRequest, "sessionId required")
		return
	}

	session, found := h.findSession(req.SessionID)
	if !found {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if session.Ended {
		writeError(w, http.StatusConflict, "session already ended")
		return
	}

	if err := call(req); err != nil {
		h.logger.Error("session command failed", zap.Int64("session_id", req.SessionID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "portal unavailable")
		return
	}
	if err := h.snapshots.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh after session command failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// findSession recomputes the session's ended state against now so polling
// latency cannot let a command through on an expired session.
func (h *SessionsHandlers) findSession(id int64) (models.Session, bool) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		return models.Session{}, false
	}
	tracked, _ := service.RecomputeSessions(snap.Sessions, h.clock())
	for _, s := range tracked {
		if s.ID == id {
			return s, true
		}
	}
	return models.Session{}, false
}
