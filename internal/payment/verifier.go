// Package payment talks to Stripe: webhook signature verification and
// checkout session creation.
package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	MetaUserID       = "userId"
	MetaCreditsToAdd = "creditsToAdd"

	DefaultTolerance = webhook.DefaultTolerance
)

type Verifier struct {
	secret         string
	tolerance      time.Duration
	defaultCredits int64
}

// NewVerifier returns a verifier for endpoint secret. defaultCredits is used
// when a completed session carries no creditsToAdd metadata.
func NewVerifier(secret string, defaultCredits int64) *Verifier {
	return &Verifier{secret: secret, tolerance: DefaultTolerance, defaultCredits: defaultCredits}
}

// Verify authenticates payload against the Stripe-Signature header and
// extracts the payment it reports. completed is false for event types and
// payment states that carry no credit; the event is then acknowledged
// without effect.
func (v *Verifier) Verify(payload []byte, header string) (evt models.PaymentEvent, completed bool, err error) {
	if v.secret == "" {
		return evt, false, fmt.Errorf("%w: webhook secret not configured", apperr.ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureErr(err) {
			return evt, false, fmt.Errorf("%w: %v", apperr.ErrInvalidSignature, err)
		}
		return evt, false, fmt.Errorf("%w: %v", apperr.ErrMalformedEvent, err)
	}

	evt.EventID = event.ID
	evt.Type = string(event.Type)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		return evt, false, nil
	}
	if event.ID == "" || event.Data == nil {
		return evt, false, fmt.Errorf("%w: missing id or data", apperr.ErrMalformedEvent)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return evt, false, fmt.Errorf("%w: checkout session: %v", apperr.ErrMalformedEvent, err)
	}
	evt.SessionID = sess.ID

	if event.Type == stripe.EventTypeCheckoutSessionCompleted &&
		sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid &&
		sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
		// async methods complete later through async_payment_succeeded
		return evt, false, nil
	}

	evt.UserID = strings.TrimSpace(sess.Metadata[MetaUserID])
	if evt.UserID == "" {
		evt.UserID = strings.TrimSpace(sess.ClientReferenceID)
	}
	if evt.UserID == "" {
		return evt, false, fmt.Errorf("%w: no userId on session %s", apperr.ErrMalformedEvent, sess.ID)
	}

	evt.CreditsToAdd = v.defaultCredits
	if raw, ok := sess.Metadata[MetaCreditsToAdd]; ok {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || n <= 0 {
			return evt, false, fmt.Errorf("%w: creditsToAdd %q", apperr.ErrMalformedEvent, raw)
		}
		evt.CreditsToAdd = n
	}
	if evt.CreditsToAdd <= 0 {
		return evt, false, fmt.Errorf("%w: no credit amount", apperr.ErrMalformedEvent)
	}
	return evt, true, nil
}

func isSignatureErr(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
