package ticket

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/middleware"
	"github.com/edumeal/edumeal-api/internal/pkg/clock"
	"github.com/edumeal/edumeal-api/internal/pkg/errorhandler"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
	"github.com/edumeal/edumeal-api/internal/pkg/validator"
)

// Handler handles ticket HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates ticket handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Generate handles POST /tickets/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	date := h.service.Today()
	if req.Date != "" {
		date, _ = clock.ParseDate(req.Date)
	}

	count, err := h.service.GenerateForDate(r.Context(), date)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "generate tickets", err)
		return
	}
	response.Created(w, GenerateResponse{Count: count, Message: fmt.Sprintf("Generated %d tickets", count)})
}

// Scan handles POST /tickets/scan. Rejected tickets are 200 with valid=false.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanBody
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	result, err := h.service.Scan(r.Context(), ScanRequest{
		TicketID: req.TicketID,
		Offline:  req.Offline,
		ActorID:  middleware.GetUserID(r.Context()),
	})
	if err != nil {
		errorhandler.Internal(r.Context(), w, "scan ticket", err)
		return
	}
	response.OK(w, result)
}

// Override handles POST /tickets/override
func (h *Handler) Override(w http.ResponseWriter, r *http.Request) {
	var req OverrideBody
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Override(r.Context(), OverrideRequest{
		StudentID: req.StudentID,
		Reason:    req.Reason,
		ActorID:   middleware.GetUserID(r.Context()),
	})
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			response.NotFound(w, "Student not found")
			return
		}
		errorhandler.Internal(r.Context(), w, "override", err)
		return
	}
	response.OK(w, result)
}

// List handles GET /tickets?date=YYYY-MM-DD
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	date := h.service.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := clock.ParseDate(raw)
		if err != nil {
			response.FieldError(w, "date", "Invalid date. Expected YYYY-MM-DD")
			return
		}
		date = d
	}

	tickets, err := h.service.ListByDate(r.Context(), date)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list tickets", err)
		return
	}
	response.OK(w, tickets)
}

// Routes returns ticket routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/generate", h.Generate)
	r.Post("/scan", h.Scan)
	r.Post("/override", h.Override)

	return r
}
