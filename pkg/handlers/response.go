package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abilabs/insight-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps a pipeline error onto a status code and a stable error
// code. Messages carry the sentinel texts only; internal details never
// reach the response body.
func WriteError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrOrderNotFound):
		return ErrorResponse(w, http.StatusNotFound, "order_not_found", apperrors.ErrOrderNotFound.Error())
	case errors.Is(err, apperrors.ErrUnknownCustomer):
		return ErrorResponse(w, http.StatusForbidden, "unknown_customer", apperrors.ErrUnknownCustomer.Error())
	case errors.Is(err, apperrors.ErrRoleNotAllowed):
		return ErrorResponse(w, http.StatusForbidden, "role_not_allowed", apperrors.ErrRoleNotAllowed.Error())
	case errors.Is(err, apperrors.ErrUnknownColumn):
		return ErrorResponse(w, http.StatusUnprocessableEntity, "unknown_column", apperrors.ErrUnknownColumn.Error())
	case errors.Is(err, apperrors.ErrUnsupportedPlan):
		return ErrorResponse(w, http.StatusUnprocessableEntity, "unsupported_plan", apperrors.ErrUnsupportedPlan.Error())
	case errors.Is(err, apperrors.ErrPlannerUnavailable):
		return ErrorResponse(w, http.StatusServiceUnavailable, "planner_unavailable", apperrors.ErrPlannerUnavailable.Error())
	case errors.Is(err, apperrors.ErrComposerUnavailable):
		return ErrorResponse(w, http.StatusServiceUnavailable, "composer_unavailable", apperrors.ErrComposerUnavailable.Error())
	case errors.Is(err, apperrors.ErrDataUnavailable):
		return ErrorResponse(w, http.StatusServiceUnavailable, "data_unavailable", apperrors.ErrDataUnavailable.Error())
	}
	return ErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal error")
}
