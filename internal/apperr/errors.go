// Package apperr holds the error taxonomy shared by the ledger, the
// generator client and the webhook reconciler.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// Client-correctable, no mutation.
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientCredits = errors.New("insufficient credits")

	// Generator failures. A debit is refunded before these reach the caller.
	ErrUnauthorized      = errors.New("generator: unauthorized")
	ErrRateLimited       = errors.New("generator: rate limited")
	ErrUnavailable       = errors.New("generator: unavailable")
	ErrMalformedResponse = errors.New("generator: malformed response")

	// Webhook level, rejected without ledger effect.
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrMalformedEvent   = errors.New("webhook: malformed event")

	// Infrastructure level, retryable. The mutation may or may not have applied.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrGenerationFailed = errors.New("generation failed")
)

// GenerationFailedError is returned by the generation coordinator when the
// external call failed after a credit was debited.
type GenerationFailedError struct {
	Cause     error
	RefundErr error
}

func (e *GenerationFailedError) Error() string {
	if e.RefundErr != nil {
		return fmt.Sprintf("generation failed: %v (refund failed: %v)", e.Cause, e.RefundErr)
	}
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

func (e *GenerationFailedError) Unwrap() error { return e.Cause }

func (e *GenerationFailedError) Is(target error) bool { return target == ErrGenerationFailed }

// Refunded reports whether the compensating credit was written.
func (e *GenerationFailedError) Refunded() bool { return e.RefundErr == nil }

// Storage wraps a backend error so callers can match ErrStorageUnavailable.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

// CauseCode maps a generator failure to the short code exposed in API
// error details.
func CauseCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "unavailable"
	}
}

// IsRetryable reports whether the caller may retry the same operation later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrRateLimited)
}
