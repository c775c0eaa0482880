package mealcredit

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edumeal/edumeal-api/internal/middleware"
	"github.com/edumeal/edumeal-api/internal/pkg/errorhandler"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
	"github.com/edumeal/edumeal-api/internal/pkg/validator"
)

// GrantRequestBody for POST /meal-credits/grant
type GrantRequestBody struct {
	StudentID   int      `json:"studentId" validate:"required,gt=0"`
	PlanType    string   `json:"planType" validate:"notblank,max=100"`
	Amount      *float64 `json:"amount" validate:"omitempty,gte=0"`
	Description string   `json:"description" validate:"max=500"`
}

// Handler handles manual grants
type Handler struct {
	engine *Engine
}

// NewHandler creates meal-credit handler
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Grant handles POST /meal-credits/grant
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequestBody
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	grant := GrantRequest{
		PlanType:    req.PlanType,
		Description: req.Description,
		ActorID:     middleware.GetUserID(r.Context()),
	}
	if req.Amount != nil {
		grant.AmountPaid = *req.Amount
	}

	result, err := h.engine.GrantToStudent(r.Context(), req.StudentID, grant)
	if err != nil {
		switch {
		case errors.Is(err, ErrStudentNotFound):
			response.NotFound(w, "Student not found")
		case errors.Is(err, ErrMissingFields):
			response.BadRequest(w, err.Error())
		default:
			errorhandler.Internal(r.Context(), w, "grant meals", err)
		}
		return
	}
	response.Created(w, result)
}

// Routes returns meal-credit routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/grant", h.Grant)

	return r
}
