package subscription

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/pkg/errorhandler"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
)

// Handler handles subscription HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates subscription handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /subscriptions?studentId=N
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.Atoi(r.URL.Query().Get("studentId"))
	if err != nil || studentID <= 0 {
		response.FieldError(w, "studentId", "studentId query parameter is required")
		return
	}

	subs, err := h.repo.ListByStudent(r.Context(), studentID)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list subscriptions", err)
		return
	}
	response.OK(w, subs)
}

// Routes returns subscription routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)

	return r
}
