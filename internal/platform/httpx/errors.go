package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// fieldErrors is implemented by validation errors that carry per-field messages.
type fieldErrors interface {
	error
	FieldMessages() map[string]string
}

// RespondError maps domain errors to the error envelope. The error text is
// sent as the message for client errors; server errors get a generic one.
func RespondError(w http.ResponseWriter, err error) {
	var fe fieldErrors
	switch {
	case errors.As(err, &fe):
		Fail(w, http.StatusBadRequest, "Datos inválidos", fe.FieldMessages())
	case errors.Is(err, ErrValidation):
		Fail(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		Fail(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConflict):
		Fail(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		Fail(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, ErrUnauthorized):
		Fail(w, http.StatusUnauthorized, err.Error(), nil)
	default:
		Fail(w, http.StatusInternalServerError, "Error interno del servidor", nil)
	}
}
