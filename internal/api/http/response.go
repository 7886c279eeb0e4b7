package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/lock"
	"rentalshop-backend/internal/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Page wraps a listing with its total count.
type Page struct {
	Items    interface{} `json:"items"`
	Total    int32       `json:"total"`
	Page     int32       `json:"page"`
	PageSize int32       `json:"page_size"`
}

func writeJSON(w http.ResponseWriter, code int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func success(w http.ResponseWriter, code int, message string, data interface{}) {
	writeJSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

func fail(w http.ResponseWriter, code int, message string, fields map[string]string) {
	writeJSON(w, code, Envelope{Success: false, Error: message, Fields: fields})
}

// writeError maps a service error to its status code. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		fieldErr   *domain.FieldError
		overlapErr *domain.OverlapError
		validErrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validErrs):
		fields := make(map[string]string, len(validErrs))
		for _, fe := range validErrs {
			fields[fe.Field()] = fe.Tag()
		}
		fail(w, http.StatusBadRequest, "validation failed", fields)
	case errors.As(err, &fieldErr):
		fail(w, http.StatusBadRequest, err.Error(), map[string]string{fieldErr.Field: fieldErr.Reason})
	case errors.Is(err, domain.ErrInvalidTimestamp), errors.Is(err, domain.ErrValidation):
		fail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &overlapErr):
		fail(w, http.StatusConflict, err.Error(), map[string]string{"vehicle_ids": overlapErr.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		fail(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrForbidden):
		fail(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, lock.ErrNotAcquired):
		fail(w, http.StatusServiceUnavailable, "shop is busy, please retry", nil)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		fail(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
