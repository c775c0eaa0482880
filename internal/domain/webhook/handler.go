// Package webhook receives payment notifications from accounting systems.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/domain/activity"
	"github.com/edumeal/edumeal-api/internal/domain/mealcredit"
	"github.com/edumeal/edumeal-api/internal/pkg/logger"
	"github.com/edumeal/edumeal-api/internal/pkg/metrics"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
	"github.com/edumeal/edumeal-api/internal/pkg/signature"
)

const (
	SourceQuickBooks = "quickbooks"

	maxBodySize = 1 << 20
)

// Granter applies a payment to the ledger.
type Granter interface {
	GrantMeals(ctx context.Context, req mealcredit.GrantRequest) (*mealcredit.GrantResult, error)
}

// Handler handles inbound webhooks
type Handler struct {
	granter  Granter
	recorder activity.Recorder
	secret   string
}

// NewHandler creates webhook handler. An empty secret disables signature checks.
func NewHandler(granter Granter, recorder activity.Recorder, secret string) *Handler {
	return &Handler{granter: granter, recorder: recorder, secret: secret}
}

// QuickBooks handles POST /webhooks/quickbooks
func (h *Handler) QuickBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.recorder.Record(ctx, activity.TypeWebhookAttempt, activity.WebhookAttempt{
			Source:  SourceQuickBooks,
			Payload: snapshot(body),
		}, "")
		h.reply(w, http.StatusBadRequest, "read_error", "Could not read request body")
		return
	}

	sig := r.Header.Get("X-Webhook-Signature")
	if sig == "" {
		sig = r.Header.Get("Intuit-Signature")
	}

	// Every call is recorded before anything is validated.
	h.recorder.Record(ctx, activity.TypeWebhookAttempt, activity.WebhookAttempt{
		Source:    SourceQuickBooks,
		Payload:   snapshot(body),
		Signature: sig,
	}, "")

	if h.secret != "" && !signature.Verify(body, sig, h.secret) {
		metrics.Webhooks.WithLabelValues(SourceQuickBooks, "unauthorized").Inc()
		log.Warn().Str("source", SourceQuickBooks).Bool("signed", sig != "").Msg("Webhook signature rejected")
		response.Unauthorized(w)
		return
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		h.reject(ctx, "invalid_json", "")
		h.reply(w, http.StatusBadRequest, "rejected", "Invalid JSON payload")
		return
	}
	if strings.TrimSpace(string(p.StudentID)) == "" || strings.TrimSpace(p.ProductType) == "" {
		h.reject(ctx, "missing_fields", string(p.StudentID))
		h.reply(w, http.StatusBadRequest, "rejected", "studentId and productType are required")
		return
	}

	payer := ParsePayer(string(p.StudentID), p.Description, p.ProductType, p.Grade, p.Class)
	result, err := h.granter.GrantMeals(ctx, mealcredit.GrantRequest{
		Payer:         payer,
		PlanType:      p.ProductType,
		AmountPaid:    p.AmountValue(),
		TransactionID: string(p.TransactionID),
		Description:   p.Description,
		ServiceDate:   p.Date(),
		Channel:       SourceQuickBooks,
	})
	if err != nil {
		switch {
		case errors.Is(err, mealcredit.ErrMissingFields):
			h.reject(ctx, "missing_fields", payer.StudentID)
			h.reply(w, http.StatusBadRequest, "rejected", "studentId and productType are required")
		case errors.Is(err, mealcredit.ErrCreationFailed):
			logger.LogError(ctx, err, "Webhook grant failed", "payload", string(snapshot(body)))
			h.reply(w, http.StatusInternalServerError, "failed", "Student could not be created")
		default:
			logger.LogError(ctx, err, "Webhook grant failed", "payload", string(snapshot(body)))
			h.reply(w, http.StatusInternalServerError, "failed", "An unexpected error occurred")
		}
		return
	}

	metrics.Webhooks.WithLabelValues(SourceQuickBooks, "success").Inc()
	response.OK(w, Response{Success: true, MealsAdded: result.MealsAdded})
}

func (h *Handler) reject(ctx context.Context, reason, studentID string) {
	h.recorder.Record(ctx, activity.TypeWebhook, activity.WebhookResult{
		Source:    SourceQuickBooks,
		Status:    "rejected",
		StudentID: studentID,
		Error:     reason,
	}, "")
}

func (h *Handler) reply(w http.ResponseWriter, status int, result, message string) {
	metrics.Webhooks.WithLabelValues(SourceQuickBooks, result).Inc()
	response.JSON(w, status, Response{Success: false, Message: message})
}

// Routes returns webhook routes. They are not behind bearer auth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/quickbooks", h.QuickBooks)
	return r
}
