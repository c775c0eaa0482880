package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/middleware"
	"github.com/edumeal/edumeal-api/internal/pkg/errorhandler"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
	"github.com/edumeal/edumeal-api/internal/pkg/validator"
)

const logsLimit = 50

var namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// LogReader reads the activity log.
type LogReader interface {
	RecentByTypes(ctx context.Context, types []activity.Type, limit int) ([]*activity.Entry, error)
}

// Handler handles integration HTTP requests
type Handler struct {
	repo     Repository
	logs     LogReader
	recorder activity.Recorder
}

// NewHandler creates integration handler
func NewHandler(repo Repository, logs LogReader, recorder activity.Recorder) *Handler {
	return &Handler{repo: repo, logs: logs, recorder: recorder}
}

// List handles GET /integrations
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.List(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list integrations", err)
		return
	}
	response.OK(w, items)
}

// Upsert handles POST /integrations/{name}
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "name"))
	if !namePattern.MatchString(name) {
		response.BadRequest(w, "Invalid integration name")
		return
	}

	var req UpsertRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	if len(req.Settings) > 0 && string(req.Settings) != "null" {
		var obj map[string]interface{}
		if err := json.Unmarshal(req.Settings, &obj); err != nil {
			response.FieldError(w, "settings", "Settings must be a JSON object")
			return
		}
	}

	it, err := h.repo.Upsert(r.Context(), name, req.Status, req.Settings)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "upsert integration", err)
		return
	}

	h.recorder.Record(r.Context(), activity.TypeSync, activity.SyncEvent{
		Integration: it.Name,
		Status:      it.Status,
		Message:     "configuration updated",
	}, middleware.GetUserID(r.Context()))

	response.OK(w, it)
}

// Logs handles GET /integrations/logs
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.logs.RecentByTypes(r.Context(), []activity.Type{activity.TypeWebhook, activity.TypeSync}, logsLimit)
	if err != nil {
		errorhandler.Internal(r.Context(), w, "integration logs", err)
		return
	}
	if entries == nil {
		entries = []*activity.Entry{}
	}
	response.OK(w, entries)
}

// Routes returns integration routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Get("/logs", h.Logs)
	r.Post("/{name}", h.Upsert)

	return r
}
