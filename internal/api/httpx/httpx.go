package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/resumeforge/internal/api/validate"
	"github.com/baharkarakas/resumeforge/internal/apperr"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteAppError maps the error taxonomy onto status codes. Each class maps
// to a distinct call to action in the client: purchase, retry, or wait.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	var gf *apperr.GenerationFailedError
	var fields validate.Errs

	switch {
	case errors.As(err, &gf):
		WriteError(w, http.StatusBadGateway, "generation_failed",
			"generation failed, please try again", map[string]any{
				"cause":    apperr.CauseCode(gf.Cause),
				"refunded": gf.Refunded(),
			})
	case errors.Is(err, apperr.ErrInvalidInput):
		var details any
		if errors.As(err, &fields) {
			details = fields
		}
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), details)
	case errors.Is(err, apperr.ErrInsufficientCredits):
		WriteError(w, http.StatusPaymentRequired, "insufficient_credits",
			"not enough credits, purchase more to continue", nil)
	case errors.Is(err, apperr.ErrInvalidSignature):
		WriteError(w, http.StatusBadRequest, "invalid_signature", "invalid signature", nil)
	case errors.Is(err, apperr.ErrMalformedEvent):
		WriteError(w, http.StatusBadRequest, "malformed_event", "malformed event", nil)
	case errors.Is(err, apperr.ErrStorageUnavailable):
		slog.ErrorContext(r.Context(), "storage unavailable", "path", r.URL.Path, "err", err)
		w.Header().Set("Retry-After", "5")
		WriteError(w, http.StatusServiceUnavailable, "storage_unavailable",
			"service temporarily unavailable, please wait and retry", nil)
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

// DecodeJSON reads a JSON body of at most maxBytes into v. Unknown fields
// are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", apperr.ErrInvalidInput)
	}
	return nil
}

// ReadBody returns the raw body, for handlers that must verify a signature
// over the exact bytes.
func ReadBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return b, nil
}
