package rolesapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes. Every error returned by Client matches exactly one of
// them through errors.Is.
var (
	// ErrSessionExpired means the credential was rejected (401). Callers must
	// drop the stored credential and re-authenticate.
	ErrSessionExpired = errors.New("rolesapi: session expired")
	ErrForbidden      = errors.New("rolesapi: forbidden")
	ErrNotFound       = errors.New("rolesapi: not found")
	ErrConflict       = errors.New("rolesapi: conflict")
	// ErrRejected is a server-side validation failure (400/422).
	ErrRejected = errors.New("rolesapi: rejected")
	// ErrServer covers 5xx answers, malformed bodies and any envelope whose
	// status is not "success".
	ErrServer = errors.New("rolesapi: server error")
	// ErrTransport means the request never got an answer.
	ErrTransport = errors.New("rolesapi: transport failure")
)

// APIError carries the backend message verbatim.
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
	Fields     map[string]string
	cause      error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (http %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v (http %d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Retryable reports whether err is a transport failure worth offering a retry for.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransport)
}

// SessionExpired reports whether err requires re-authentication.
func SessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized:
		return ErrSessionExpired
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusConflict:
		return ErrConflict
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return ErrRejected
	default:
		return ErrServer
	}
}
