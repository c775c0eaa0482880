package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/config"
	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
	"github.com/edumeal/edumeal-api/internal/pkg/permission"
)

func named(name string) http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Mounted", name)
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func testRoutes() apiRoutes {
	return apiRoutes{
		Students:           named("students"),
		Subscriptions:      named("subscriptions"),
		MealCredits:        named("meal-credits"),
		Tickets:            named("tickets"),
		Reports:            named("reports"),
		EligibilityReports: named("eligibility-reports"),
		Integrations:       named("integrations"),
		Activity:           named("activity"),
		Webhooks:           named("webhooks"),
	}
}

func TestNewRouterMountsAPI(t *testing.T) {
	r := newRouter(&config.Config{MetricsEnabled: true}, testRoutes(), "")

	tests := []struct {
		path string
		want string
	}{
		{"/api/students/1", "students"},
		{"/api/subscriptions/", "subscriptions"},
		{"/api/meal-credits/grant", "meal-credits"},
		{"/api/tickets/scan", "tickets"},
		{"/api/reports/dashboard", "reports"},
		{"/api/eligibility-reports/", "eligibility-reports"},
		{"/api/integrations/logs", "integrations"},
		{"/api/activity/ws", "activity"},
		{"/api/webhooks/quickbooks", "webhooks"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, tc.path, nil))
			if got := rr.Header().Get("X-Mounted"); got != tc.want {
				t.Fatalf("expected %s, got %q (status %d)", tc.want, got, rr.Code)
			}
		})
	}
}

func TestNewRouterHealthAndMetrics(t *testing.T) {
	r := newRouter(&config.Config{MetricsEnabled: true}, testRoutes(), "")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rr.Code)
	}

	off := newRouter(&config.Config{}, testRoutes(), "")
	rr = httptest.NewRecorder()
	off.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("metrics disabled: expected 404, got %d", rr.Code)
	}
}

func TestAuthChain(t *testing.T) {
	jwtSvc := jwt.NewService("secret", time.Minute)
	enforcer, err := permission.NewEnforcer(permission.DefaultPolicies)
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}

	protected := authChain(jwtSvc, enforcer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	admin, _ := jwtSvc.GenerateAccessToken("admin-1", "ops@school.test", "")
	scanner, _ := jwtSvc.GenerateAccessToken("scanner-1", "", jwt.RoleScanner)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/students", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/students", "nope", http.StatusUnauthorized},
		{"admin", http.MethodGet, "/api/students", admin, http.StatusOK},
		{"scanner scans", http.MethodPost, "/api/tickets/scan", scanner, http.StatusOK},
		{"scanner blocked from roster", http.MethodGet, "/api/students", scanner, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
}
