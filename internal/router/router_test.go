package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/auth"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/geo"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/jobs"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/messages"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/models"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/notifications"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/offers"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/payments"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/profiles"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/ratings"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/realtime"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/wallet"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// stubValidator maps bearer tokens to a fixed identity. Tokens named
// "admin-token" get the admin role, everything else is an employee.
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (uuid.UUID, string, error) {
	if token == "admin-token" {
		return uuid.New(), models.RoleAdmin, nil
	}
	return uuid.New(), models.RoleEmployee, nil
}

// testRouter wires handlers with nil services. Routing and middleware tests
// never reach a service call: either the middleware rejects first, or the
// handler fails input validation before touching its service.
func testRouter() http.Handler {
	v := stubValidator{}
	return New(Deps{
		Auth:          auth.NewHandler(nil, nil),
		Wallet:        wallet.NewHandler(nil, nil),
		Jobs:          jobs.NewHandler(nil, nil),
		Geo:           geo.NewHandler(nil, nil),
		Offers:        offers.NewHandler(nil, nil),
		Messages:      messages.NewHandler(nil, nil),
		Notifications: notifications.NewHandler(nil, nil),
		Payments:      payments.NewHandler(nil, nil),
		Profiles:      profiles.NewHandler(nil, nil),
		Ratings:       ratings.NewHandler(nil, nil),
		Realtime:      realtime.NewHandler(realtime.NewHub(nil), v, nil, nil, 0.2, 3, nil),
		Validator:     v,
	})
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestMetricsExposed(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/wallet"},
		{http.MethodGet, "/api/v1/wallet/transactions"},
		{http.MethodPost, "/api/v1/jobs"},
		{http.MethodGet, "/api/v1/jobs"},
		{http.MethodPatch, "/api/v1/jobs/" + uuid.NewString() + "/status"},
		{http.MethodPost, "/api/v1/offers"},
		{http.MethodPost, "/api/v1/messages"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPost, "/api/v1/tokens/purchase"},
		{http.MethodGet, "/api/v1/payments"},
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodPost, "/api/v1/ratings"},
		{http.MethodPost, "/api/v1/admin/tokens/grant"},
	}
	h := testRouter()
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRegisterIsPublic(t *testing.T) {
	// A garbage body fails JSON validation inside the handler. Reaching that
	// 400 proves the route skipped the Authenticate middleware.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminGrantRejectsNonAdmin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/tokens/grant", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer worker-token")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminGrantAdmitsAdmin(t *testing.T) {
	// Bad JSON stops the handler right after the role gate. A 400 (not 401 or
	// 403) shows the admin chain let the request through.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/tokens/grant", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUnknownMethodRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/wallet", nil)
	req.Header.Set("Authorization", "Bearer worker-token")
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
