package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aniss699/ProjectFirst-sub005/pkg/domain"

	"github.com/google/uuid"
)

// UserIDHeader carries the authenticated caller identity. Authentication
// itself is an upstream concern; this layer only reads the result.
const UserIDHeader = "X-User-ID"

func NewRequestID() string { return "req_" + uuid.NewString() }

func UserID(r *http.Request) string { return r.Header.Get(UserIDHeader) }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	}
	WriteJSON(w, status, resp)
}

// WriteDomainError maps the engine's failure taxonomy onto HTTP statuses.
// Anything untyped is a persistence failure and stays opaque.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "UNAUTHORIZED", err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "DB_ERROR", err.Error(), nil)
	}
}
