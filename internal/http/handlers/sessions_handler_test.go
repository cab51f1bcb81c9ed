package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"greenhat/internal/models"
)

func sessionsFixture(now time.Time) *fakeSnapshots {
	return &fakeSnapshots{
		have: true,
		snap: models.Snapshot{
			Sessions: []models.Session{
				{ID: 1, Phone: "655000001", Router: models.RouterRef{Name: "GH-Bonaberi"}, EndTime: now.Add(2 * time.Hour).Format(time.RFC3339)},
				{ID: 2, Phone: "655000002", EndTime: now.Add(-time.Hour).Format(time.RFC3339)},
			},
		},
	}
}

func newSessionsHandlers(snapshots *fakeSnapshots, portal *fakePortal, now time.Time) *SessionsHandlers {
	return NewSessionsHandlers(snapshots, portal, fixedClock(now), zap.NewNop())
}

func TestSessionsListDerivesRemainingHours(t *testing.T) {
	now := handlersNow()
	h := newSessionsHandlers(sessionsFixture(now), &fakePortal{}, now)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var dtos []sessionDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dtos); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(dtos) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(dtos))
	}
	if dtos[0].RemainingHours != 2.0 || dtos[0].Ended {
		t.Fatalf("unexpected first session: %+v", dtos[0])
	}
	if dtos[0].Router != "GH-Bonaberi" {
		t.Fatalf("router name not flattened: %+v", dtos[0])
	}
	if !dtos[1].Ended || dtos[1].RemainingHours != 0 {
		t.Fatalf("expired session not reported ended: %+v", dtos[1])
	}
}

func TestSessionsListWithoutData(t *testing.T) {
	now := handlersNow()
	h := newSessionsHandlers(&fakeSnapshots{}, &fakePortal{}, now)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first fetch, got %d", rec.Code)
	}
}

func TestExtendActiveSession(t *testing.T) {
	now := handlersNow()
	snapshots := sessionsFixture(now)
	portal := &fakePortal{}
	h := newSessionsHandlers(snapshots, portal, now)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/extend", strings.NewReader(`{"sessionId": 1, "hours": 24}`))
	h.Extend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(portal.extended) != 1 || portal.extended[0] != 1 {
		t.Fatalf("portal not called: %v", portal.extended)
	}
	if snapshots.refreshCount() != 1 {
		t.Fatalf("expected a refresh after the command, got %d", snapshots.refreshCount())
	}
}

func TestExtendEndedSessionRefused(t *testing.T) {
	now := handlersNow()
	portal := &fakePortal{}
	h := newSessionsHandlers(sessionsFixture(now), portal, now)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/extend", strings.NewReader(`{"sessionId": 2, "hours": 24}`))
	h.Extend(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for ended session, got %d", rec.Code)
	}
	if len(portal.extended) != 0 {
		t.Fatalf("portal must not be called for ended sessions")
	}
}

func TestExtendRefusesSessionExpiredSinceLastFetch(t *testing.T) {
	// The portal flag still says active, but wall clock has passed end_time.
	now := handlersNow()
	snapshots := &fakeSnapshots{
		have: true,
		snap: models.Snapshot{
			Sessions: []models.Session{
				{ID: 5, EndTime: now.Add(-time.Minute).Format(time.RFC3339), Ended: false},
			},
		},
	}
	portal := &fakePortal{}
	h := newSessionsHandlers(snapshots, portal, now)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/extend", strings.NewReader(`{"sessionId": 5, "hours": 1}`))
	h.Extend(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for freshly expired session, got %d", rec.Code)
	}
	if len(portal.extended) != 0 {
		t.Fatalf("portal must not be called")
	}
}

func TestTerminateUnknownSession(t *testing.T) {
	now := handlersNow()
	h := newSessionsHandlers(sessionsFixture(now), &fakePortal{}, now)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/terminate", strings.NewReader(`{"sessionId": 999}`))
	h.Terminate(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSessionCommandRequiresID(t *testing.T) {
	now := handlersNow()
	h := newSessionsHandlers(sessionsFixture(now), &fakePortal{}, now)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/extend", strings.NewReader(`{}`))
	h.Extend(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSessionCommandPortalFailure(t *testing.T) {
	now := handlersNow()
	portal := &fakePortal{err: errFakePortalDown}
	h := newSessionsHandlers(sessionsFixture(now), portal, now)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/terminate", strings.NewReader(`{"sessionId": 1}`))
	h.Terminate(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on portal failure, got %d", rec.Code)
	}
}
