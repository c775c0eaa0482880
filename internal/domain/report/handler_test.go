package report

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/middleware"
	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
)

func newReportRouter(repo *repoStub) http.Handler {
	h := NewHandler(NewService(repo, counterStub(1), &logStub{}, nil, fixedClock))
	pass := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	r.Mount("/api/reports", h.Routes(pass))
	r.Mount("/api/eligibility-reports", h.SnapshotRoutes(pass))
	return r
}

func TestExportEndpoint(t *testing.T) {
	repo := newRepoStub()
	repo.records = sampleRecords()
	h := newReportRouter(repo)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports/export?date=2024-03-04", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "eligibility_report_2024-03-04.csv") {
		t.Fatalf("unexpected disposition %q", rr.Header().Get("Content-Disposition"))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports/eligibility?date=03-04-2024", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rr.Code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	repo := newRepoStub()
	h := newReportRouter(repo)

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/eligibility-reports", strings.NewReader(`{"date":"2024-03-04"}`))
		req = req.WithContext(middleware.WithIdentity(req.Context(), &jwt.Identity{UserID: "u-1", Email: "ops@school.test", Role: jwt.RoleAdmin}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := post(); rr.Code != http.StatusCreated || !strings.Contains(rr.Body.String(), `"generatedBy":"ops@school.test"`) {
		t.Fatalf("unexpected %d %s", rr.Code, rr.Body.String())
	}
	rr := post()
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "Report already exists for this date") {
		t.Fatalf("expected duplicate 400, got %d %s", rr.Code, rr.Body.String())
	}
}
