package student

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/pkg/errorhandler"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
	"github.com/edumeal/edumeal-api/internal/pkg/storage"
	"github.com/edumeal/edumeal-api/internal/pkg/validator"
)

// Handler handles roster HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates student handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /students
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.List(r.Context())
	if err != nil {
		errorhandler.Internal(r.Context(), w, "list students", err)
		return
	}
	response.OK(w, students)
}

// Get handles GET /students/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	st, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, st)
}

// Create handles POST /students
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	st, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, st)
}

// Update handles PUT /students/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	st, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, st)
}

// UploadPhoto handles PUT /students/{id}/photo (multipart field "photo")
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxPhotoSize+64*1024)
	file, _, err := r.FormFile("photo")
	if err != nil {
		response.FieldError(w, "photo", "Photo file is required")
		return
	}
	defer file.Close()

	st, err := h.service.UploadPhoto(r.Context(), id, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, st)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrStudentNotFound):
		response.NotFound(w, "Student not found")
	case errors.Is(err, ErrDuplicateStudentID):
		response.FieldError(w, "studentId", "Student ID already exists")
	case errors.Is(err, ErrNothingToUpdate):
		response.BadRequest(w, "No fields to update")
	case errors.Is(err, ErrPhotoUnavailable):
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Photo storage is not configured")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.FieldError(w, "photo", "Photo exceeds 5 MB")
	case errors.Is(err, storage.ErrInvalidMimeType), errors.Is(err, storage.ErrEmptyFile):
		response.FieldError(w, "photo", "Photo must be a JPEG, PNG or GIF image")
	default:
		errorhandler.Internal(r.Context(), w, "student", err)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid student ID")
		return 0, false
	}
	return id, true
}

// Routes returns student routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/photo", h.UploadPhoto)

	return r
}
