package handlers

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"greenhat/internal/models"
)

// Fleet naming convention: every router name carries this prefix.
const routerNamePrefix = "GH-"

// RoutersHandlers serves the router fleet and proxies create and delete.
type RoutersHandlers struct {
	snapshots SnapshotSource
	portal    PortalCommands
	logger    *zap.Logger
}

// NewRoutersHandlers returns handler.
func NewRoutersHandlers(snapshots SnapshotSource, portal PortalCommands, logger *zap.Logger) *RoutersHandlers {
	return &RoutersHandlers{snapshots: snapshots, portal: portal, logger: logger}
}

// List handles GET /api/routers. Credentials are stripped from the reply.
func (h *RoutersHandlers) List(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshots.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	routers := make([]models.Router, 0, len(snap.Routers))
	for _, router := range snap.Routers {
		router.APIUser = ""
		router.APIPass = ""
		routers = append(routers, router)
	}
	writeJSON(w, http.StatusOK, routers)
}

type createRouterRequest struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Location string `json:"location"`
	APIUser  string `json:"api_user"`
	APIPass  string `json:"api_pass"`
}

// Create handles POST /api/routers/create.
func (h *RoutersHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createRouterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := h.validateCreate(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	router := models.Router{
		Name:     strings.TrimSpace(req.Name),
		IP:       strings.TrimSpace(req.IP),
		Location: strings.TrimSpace(req.Location),
		APIUser:  req.APIUser,
		APIPass:  req.APIPass,
	}
	if err := h.portal.CreateRouter(r.Context(), router); err != nil {
		h.logger.Error("router create failed", zap.String("name", router.Name), zap.Error(err))
		writeError(w, http.StatusBadGateway, "portal unavailable")
		return
	}
	if err := h.snapshots.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh after router create failed", zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

type updateRouterRequest struct {
	RouterID int64 `json:"routerId"`
	createRouterRequest
}

// Update handles PUT /api/routers/update.
func (h *RoutersHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRouterRequest
	if err := decodeJSON(r, &req); err != nil || req.RouterID == 0 {
		writeError(w, http.StatusBadRequest, "routerId required")
		return
	}
	if msg := h.validateUpdate(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	router := models.Router{
		ID:       req.RouterID,
		Name:     strings.TrimSpace(req.Name),
		IP:       strings.TrimSpace(req.IP),
		Location: strings.TrimSpace(req.Location),
		APIUser:  req.APIUser,
		APIPass:  req.APIPass,
	}
	if err := h.portal.UpdateRouter(r.Context(), router); err != nil {
		h.logger.Error("router update failed", zap.Int64("router_id", req.RouterID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "portal unavailable")
		return
	}
	if err := h.snapshots.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh after router update failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type deleteRouterRequest struct {
	RouterID int64 `json:"routerId"`
}

// Delete handles POST /api/routers/delete.
func (h *RoutersHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRouterRequest
	if err := decodeJSON(r, &req); err != nil || req.RouterID == 0 {
		writeError(w, http.StatusBadRequest, "routerId required")
		return
	}
	if err := h.portal.DeleteRouter(r.Context(), req.RouterID); err != nil {
		h.logger.Error("router delete failed", zap.Int64("router_id", req.RouterID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "portal unavailable")
		return
	}
	if err := h.snapshots.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh after router delete failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *RoutersHandlers) validateCreate(req createRouterRequest) string {
	return h.validateRouter(req, 0)
}

func (h *RoutersHandlers) validateUpdate(req updateRouterRequest) string {
	return h.validateRouter(req.createRouterRequest, req.RouterID)
}

// validateRouter applies the fleet rules. selfID excludes the router being
// updated from the name uniqueness check.
func (h *RoutersHandlers) validateRouter(req createRouterRequest, selfID int64) string {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "name required"
	}
	if !strings.HasPrefix(name, routerNamePrefix) {
		return "name must start with " + routerNamePrefix
	}
	if !isDottedQuad(strings.TrimSpace(req.IP)) {
		return "ip must be a dotted-quad IPv4 address"
	}
	if snap, ok := h.snapshots.Snapshot(); ok {
		for _, router := range snap.Routers {
			if router.ID != selfID && strings.EqualFold(router.Name, name) {
				return "router name already in use"
			}
		}
	}
	return ""
}

func isDottedQuad(ip string) bool {
	if strings.Count(ip, ".") != 3 {
		return false
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.To4() != nil
}
