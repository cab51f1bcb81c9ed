package httpserver

import (
	"net/http"

	"greenhat/internal/http/handlers"
	"greenhat/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Sessions *handlers.SessionsHandlers
	Payments *handlers.PaymentsHandlers
	Routers  *handlers.RoutersHandlers
	Revenue  *handlers.RevenueHandlers
	Stats    *handlers.StatsHandlers
	Refresh  *handlers.RefreshHandlers
	WS       *handlers.WSHandlers
	Health   http.HandlerFunc
}

// NewRouter wires HTTP routes with auth and role guards. Mutating fleet and
// payment actions are owner or super scope; the super dashboard is super
// only; reads are open to any authenticated role.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.Health))

	guarded := func(handler http.HandlerFunc, roles ...string) http.Handler {
		return middleware.Chain(middleware.RequireRoles(handler, roles...), authMiddleware)
	}

	mux.Handle("/api/sessions", method(http.MethodGet, guarded(deps.Sessions.List)))
	mux.Handle("/api/sessions/extend", method(http.MethodPost, guarded(deps.Sessions.Extend, middleware.RoleOwner, middleware.RoleSuper)))
	mux.Handle("/api/sessions/terminate", method(http.MethodPost, guarded(deps.Sessions.Terminate, middleware.RoleOwner, middleware.RoleSuper)))

	mux.Handle("/api/payments", method(http.MethodGet, guarded(deps.Payments.List)))
	mux.Handle("/api/payments/confirm", method(http.MethodPost, guarded(deps.Payments.Confirm, middleware.RoleOwner, middleware.RoleStaff, middleware.RoleSuper)))
	mux.Handle("/api/payments/reject", method(http.MethodPost, guarded(deps.Payments.Reject, middleware.RoleOwner, middleware.RoleStaff, middleware.RoleSuper)))

	mux.Handle("/api/routers", method(http.MethodGet, guarded(deps.Routers.List)))
	mux.Handle("/api/routers/create", method(http.MethodPost, guarded(deps.Routers.Create, middleware.RoleOwner, middleware.RoleSuper)))
	mux.Handle("/api/routers/update", method(http.MethodPut, guarded(deps.Routers.Update, middleware.RoleOwner, middleware.RoleSuper)))
	mux.Handle("/api/routers/delete", method(http.MethodPost, guarded(deps.Routers.Delete, middleware.RoleOwner, middleware.RoleSuper)))

	mux.Handle("/api/revenue", method(http.MethodGet, guarded(deps.Revenue.Get)))
	mux.Handle("/api/stats/owner", method(http.MethodGet, guarded(deps.Stats.Owner, middleware.RoleOwner, middleware.RoleSuper)))
	mux.Handle("/api/stats/staff", method(http.MethodGet, guarded(deps.Stats.Staff)))
	mux.Handle("/api/stats/super", method(http.MethodGet, guarded(deps.Stats.Super, middleware.RoleSuper)))
	mux.Handle("/api/plans", method(http.MethodGet, guarded(deps.Stats.Plans)))

	mux.Handle("/api/refresh", method(http.MethodPost, guarded(deps.Refresh.Refresh)))
	mux.Handle("/api/ws", method(http.MethodGet, guarded(deps.WS.Connect)))

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
