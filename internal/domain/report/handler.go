package report

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/middleware"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/errorhandler"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
	"github.com/edumeal/edumeal-api/internal/pkg/validator"
)

// Handler handles reporting HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates report handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dashboard handles GET /reports/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, "dashboard stats", err)
		return
	}
	response.OK(w, stats)
}

// Eligibility handles GET /reports/eligibility?date=
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	rows, err := h.service.Eligibility(r.Context(), date)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "eligibility report", err)
		return
	}
	response.OK(w, rows)
}

// Export handles GET /reports/export?date=&format=csv|xlsx
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	body, contentType, filename, err := h.service.Export(r.Context(), date, r.URL.Query().Get("format"))
	if err != nil {
		if errors.Is(err, ErrUnknownFormat) {
			response.FieldError(w, "format", "Format must be csv or xlsx")
			return
		}
		errorhandler.Internal(r.Context(), w, "export report", err)
		return
	}
	response.Attachment(w, contentType, filename, body)
}

// ListSnapshots handles GET /eligibility-reports
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.service.ListSnapshots(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list snapshots", err)
		return
	}
	response.OK(w, snaps)
}

// PublishSnapshot handles POST /eligibility-reports
func (h *Handler) PublishSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	date, _ := clock.ParseDate(req.Date)

	snap, err := h.service.PublishSnapshot(r.Context(), date, generatedBy(r))
	if err != nil {
		if errors.Is(err, ErrSnapshotExists) {
			response.BadRequest(w, "Report already exists for this date")
			return
		}
		errorhandler.Internal(r.Context(), w, "publish snapshot", err)
		return
	}
	response.Created(w, snap)
}

func generatedBy(r *http.Request) string {
	if id := middleware.GetIdentity(r.Context()); id != nil {
		if id.Email != "" {
			return id.Email
		}
		if id.UserID != "" {
			return id.UserID
		}
	}
	return "admin"
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (clock.Date, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.service.Today(), true
	}
	d, err := clock.ParseDate(raw)
	if err != nil {
		response.FieldError(w, "date", "Invalid date. Expected YYYY-MM-DD")
		return clock.Date{}, false
	}
	return d, true
}

// Routes returns /reports routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/dashboard", h.Dashboard)
	r.Get("/eligibility", h.Eligibility)
	r.Get("/export", h.Export)

	return r
}

// SnapshotRoutes returns /eligibility-reports routes
func (h *Handler) SnapshotRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.ListSnapshots)
	r.Post("/", h.PublishSnapshot)

	return r
}
