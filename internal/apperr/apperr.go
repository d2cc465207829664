package apperr

import (
  "errors"
  "net/http"
)

// Error classes for everything a handler needs to translate into an HTTP
// status. Services wrap these with fmt.Errorf("...: %w", ...) so handlers
// can match with errors.Is.
var (
  ErrInvalidInput    = errors.New("invalid input")
  ErrUnauthenticated = errors.New("unauthenticated")
  ErrConflict        = errors.New("conflict")
  ErrNotFound        = errors.New("not found")
  ErrUpstream        = errors.New("upstream error")
)

// StatusCode maps an error to the HTTP status the observed API uses.
// Conflicts are 400, not 409.
func StatusCode(err error) int {
  switch {
  case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConflict):
    return http.StatusBadRequest
  case errors.Is(err, ErrUnauthenticated):
    return http.StatusUnauthorized
  case errors.Is(err, ErrNotFound):
    return http.StatusNotFound
  case errors.Is(err, ErrUpstream):
    return http.StatusBadGateway
  default:
    return http.StatusInternalServerError
  }
}
