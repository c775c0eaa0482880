package errorhandler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/edumeal/edumeal-api/internal/pkg/logger"
	"github.com/edumeal/edumeal-api/internal/pkg/response"
)

// HandleError logs the fault and sends an error body.
// The underlying error is never written to the client.
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	event := log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("error_code", code).
		Str("error_message", message).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Request error")

	response.Error(w, status, code, message)
}

// Internal logs err and sends the generic 500 body.
func Internal(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("operation", operation).
		Err(err).
		Msg("Unexpected error")

	response.InternalError(w)
}

// HandlePanicError logs and handles panics with full stack trace
func HandlePanicError(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	response.InternalError(w)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	log.Warn().
		Str("request_id", logger.RequestID(ctx)).
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}

// LogExternalServiceError logs errors from external service calls
func LogExternalServiceError(ctx context.Context, service string, endpoint string, statusCode int, err error, body string) {
	log.Error().
		Str("request_id", logger.RequestID(ctx)).
		Str("external_service", service).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Err(err).
		Str("response_body", Truncate(body, 1000)).
		Msg("External service error")
}

// Truncate shortens s for log output.
func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "...<truncated>"
	}
	return s
}
