package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/baharkarakas/resumeforge/internal/apperr"
)

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid", fmt.Errorf("%w: x", apperr.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
		{"insufficient", apperr.ErrInsufficientCredits, http.StatusPaymentRequired, "insufficient_credits"},
		{"generation", &apperr.GenerationFailedError{Cause: apperr.ErrRateLimited}, http.StatusBadGateway, "generation_failed"},
		{"storage", apperr.Storage("debit", errors.New("down")), http.StatusServiceUnavailable, "storage_unavailable"},
		{"signature", apperr.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
		{"malformed", apperr.ErrMalformedEvent, http.StatusBadRequest, "malformed_event"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body APIError
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestGenerationFailedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &apperr.GenerationFailedError{Cause: apperr.ErrUnavailable, RefundErr: errors.New("db")}
	WriteAppError(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	var body struct {
		Details struct {
			Cause    string `json:"cause"`
			Refunded bool   `json:"refunded"`
		} `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Details.Cause != "unavailable" || body.Details.Refunded {
		t.Errorf("details = %+v", body.Details)
	}
}
