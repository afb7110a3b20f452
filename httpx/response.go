// Package httpx holds JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/diewo77/go-assets/internal/apperr"
	"github.com/diewo77/go-assets/validation"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	body := []byte("null")
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrDuplicateKey:
		return http.StatusConflict
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrPermissionDenied:
		return http.StatusForbidden
	case apperr.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case apperr.ErrFileMissing:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as JSON with the status of its kind. Storage failures
// are logged and reported without internal detail.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] internal error: %v", err)
		JSONError(w, status, "internal_error", nil)
		return
	}
	var details any
	if fields := validation.FieldsOf(err); fields != nil {
		details = fields
	}
	JSONError(w, status, err.Error(), details)
}

// Decode reads a JSON body into v. Unknown fields are rejected.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.Join(apperr.ErrValidation, errors.New("empty request body"))
		}
		return errors.Join(apperr.ErrValidation, err)
	}
	return nil
}
