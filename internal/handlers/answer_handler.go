package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/answer"
)

// AnswerHandler handles the question answering endpoint
type AnswerHandler struct {
	answerService *answer.Service
	validate      *validator.Validate
	logger        arbor.ILogger

	// apiKey, when non-empty, must match the x-api-key request header.
	apiKey string

	// unavailable carries startup init failures. When set, requests get a
	// 503 instead of entering the pipeline.
	unavailable string
}

// NewAnswerHandler creates a new answer handler. unavailable should name
// the collaborator that failed to initialize, or be empty when the
// pipeline is fully operational.
func NewAnswerHandler(answerService *answer.Service, apiKey string, unavailable string, logger arbor.ILogger) *AnswerHandler {
	return &AnswerHandler{
		answerService: answerService,
		validate:      validator.New(),
		logger:        logger,
		apiKey:        apiKey,
		unavailable:   unavailable,
	}
}

// sanitizeForLogging truncates text for log lines so prompts are not
// exposed in full.
func sanitizeForLogging(text string, maxLength int) string {
	if text == "" {
		return "<empty>"
	}
	if len(text) > maxLength {
		return text[:maxLength] + "..."
	}
	return text
}

// AnswerHandler handles POST /api/answer requests
func (h *AnswerHandler) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	requestID := common.NewRequestID()

	// API key authentication, checked before any processing
	if h.apiKey != "" {
		if key := r.Header.Get("x-api-key"); key != h.apiKey {
			h.logger.Warn().
				Str("request_id", requestID).
				Msg("Invalid or missing API key")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	// Startup init failures surface as service unavailable
	if h.unavailable != "" {
		h.logger.Error().
			Str("request_id", requestID).
			Str("service", h.unavailable).
			Msg("Request rejected, collaborator unavailable")
		http.Error(w, fmt.Sprintf("Internal Server Error: %s service unavailable.", h.unavailable), http.StatusServiceUnavailable)
		return
	}

	var query models.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		h.logger.Warn().
			Str("request_id", requestID).
			Err(err).
			Msg("Invalid JSON in request body")
		http.Error(w, "Please pass a valid JSON object in the request body", http.StatusBadRequest)
		return
	}

	if errs := h.validateQuery(&query); len(errs) > 0 {
		message := strings.Join(errs, "; ")
		h.logger.Warn().
			Str("request_id", requestID).
			Str("errors", message).
			Msg("Input validation failed")
		http.Error(w, "Input validation failed: "+message, http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Str("request_id", requestID).
		Str("prompt", sanitizeForLogging(query.Question(), 50)).
		Msg("Processing query")

	response, err := h.answerService.Answer(r.Context(), requestID, &query)
	if err != nil {
		// Detail stays in the logs; the caller gets a generic message
		h.logger.Error().
			Str("request_id", requestID).
			Err(err).
			Msg("Answer pipeline failed")
		http.Error(w, "Internal Server Error: Failed to get response from AI model.", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, response)
}

// validateQuery checks the request body constraints and returns human
// readable reasons for each violation. A whitespace-only prompt counts as
// empty even though it passes the struct tag's required rule.
func (h *AnswerHandler) validateQuery(query *models.Query) []string {
	var errs []string

	if query.Prompt != "" && strings.TrimSpace(query.Prompt) == "" {
		errs = append(errs, "Prompt is empty")
	}

	if err := h.validate.Struct(query); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range fieldErrs {
				switch {
				case fieldErr.Field() == "Prompt" && fieldErr.Tag() == "required":
					errs = append(errs, "Prompt is empty")
				case fieldErr.Field() == "Prompt" && fieldErr.Tag() == "max":
					errs = append(errs, fmt.Sprintf("Prompt exceeds maximum length of %d characters", models.MaxPromptLength))
				default:
					errs = append(errs, fmt.Sprintf("Field %s failed validation rule %s", fieldErr.Field(), fieldErr.Tag()))
				}
			}
		} else {
			errs = append(errs, "Request body is malformed")
		}
	}

	return errs
}

// HealthHandler handles GET /api/answer/health requests
func (h *AnswerHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if h.unavailable != "" {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "unavailable",
			"service": h.unavailable,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
