package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/smart-dashboard/internal/dashboard"
	"github.com/benvon/smart-dashboard/internal/models"
	"github.com/benvon/smart-dashboard/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxErrorMessageLength caps messages echoed back to clients
const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondJSONErrorFields(w, status, errorType, message, nil)
}

// respondJSONErrorFields is respondJSONError with per-field details
func respondJSONErrorFields(w http.ResponseWriter, status int, errorType, message string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(fields) > 0 {
		response["fields"] = fields
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondDomainError maps reducer and validator errors onto HTTP statuses. Anything it does
// not recognise is reported as an internal error without its text.
func respondDomainError(w http.ResponseWriter, err error) {
	var (
		ve *dashboard.ValidationError
		nf *dashboard.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		respondJSONErrorFields(w, http.StatusBadRequest, "validation_error", ve.Message,
			map[string]string{ve.Field: ve.Message})
	case errors.As(err, &nf):
		respondJSONError(w, http.StatusNotFound, "not_found", nf.Error())
	default:
		if fields := validation.FieldErrors(err); fields != nil {
			respondJSONErrorFields(w, http.StatusBadRequest, "validation_error", "Request validation failed", fields)
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeJSON decodes and validates a request body. When optional is set an empty body
// leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON: "+err.Error())
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondDomainError(w, err)
		return false
	}
	return true
}

// pathID parses the {id} route variable.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONErrorFields(w, http.StatusBadRequest, "validation_error", "Invalid ID format",
			map[string]string{"id": "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// queryDate parses an optional ?date=YYYY-MM-DD parameter. A missing value yields the
// zero Date, which reducer lookups treat as today.
func queryDate(w http.ResponseWriter, r *http.Request) (models.Date, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return models.Date{}, true
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		respondJSONErrorFields(w, http.StatusBadRequest, "validation_error", "Invalid date",
			map[string]string{"date": "must be a date in YYYY-MM-DD format"})
		return models.Date{}, false
	}
	return d, true
}

// queryInt parses an optional positive integer parameter bounded by max.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		respondJSONErrorFields(w, http.StatusBadRequest, "validation_error", "Invalid "+name,
			map[string]string{name: "must be an integer between 1 and " + strconv.Itoa(max)})
		return 0, false
	}
	return n, true
}
