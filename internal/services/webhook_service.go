package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/events"
	"github.com/baharkarakas/resumeforge/internal/metrics"
	"github.com/baharkarakas/resumeforge/internal/models"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
)

// EventVerifier authenticates a raw webhook delivery. payment.Verifier
// implements it.
type EventVerifier interface {
	Verify(payload []byte, header string) (evt models.PaymentEvent, completed bool, err error)
}

type WebhookOutcome string

const (
	OutcomeCredited  WebhookOutcome = "credited"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
)

// WebhookService reconciles payment notifications into the ledger, at most
// once per event id.
type WebhookService struct {
	ledger   repo.Ledger
	verifier EventVerifier
	notify   Notifier
}

func NewWebhookService(l repo.Ledger, v EventVerifier, n Notifier) *WebhookService {
	return &WebhookService{ledger: l, verifier: v, notify: orNop(n)}
}

// Handle verifies payload and applies the purchase it reports. A nil error
// means the delivery may be acknowledged: the credit is durable, was applied
// before, or the event carries no credit. ErrInvalidSignature and
// ErrMalformedEvent are permanent rejections; ErrStorageUnavailable asks the
// provider to redeliver.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (WebhookOutcome, error) {
	evt, completed, err := s.verifier.Verify(payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidSignature):
			metrics.WebhookEventsTotal.WithLabelValues("invalid_signature").Inc()
			slog.WarnContext(ctx, "webhook signature rejected", "err", err)
		default:
			metrics.WebhookEventsTotal.WithLabelValues("malformed").Inc()
			slog.WarnContext(ctx, "webhook event dropped", "event_id", evt.EventID, "type", evt.Type, "err", err)
		}
		return "", err
	}
	if !completed {
		metrics.WebhookEventsTotal.WithLabelValues(string(OutcomeIgnored)).Inc()
		slog.DebugContext(ctx, "webhook event ignored", "event_id", evt.EventID, "type", evt.Type)
		return OutcomeIgnored, nil
	}

	applied, err := s.ledger.CreditOnce(ctx, evt.UserID, evt.CreditsToAdd, evt.EventID)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "webhook credit failed",
			"event_id", evt.EventID, "user_id", evt.UserID, "err", err)
		return "", err
	}
	if !applied {
		metrics.WebhookEventsTotal.WithLabelValues(string(OutcomeDuplicate)).Inc()
		slog.InfoContext(ctx, "webhook event already applied", "event_id", evt.EventID, "user_id", evt.UserID)
		return OutcomeDuplicate, nil
	}

	metrics.WebhookEventsTotal.WithLabelValues(string(OutcomeCredited)).Inc()
	metrics.LedgerMutationsTotal.WithLabelValues(string(models.EntryPurchase)).Inc()
	slog.InfoContext(ctx, "credits purchased",
		"event_id", evt.EventID, "user_id", evt.UserID, "credits", evt.CreditsToAdd, "session_id", evt.SessionID)
	s.notify.Notify(ctx, events.LedgerEvent{
		Kind:    events.KindPurchased,
		UserID:  evt.UserID,
		Amount:  evt.CreditsToAdd,
		EventID: evt.EventID,
	})
	return OutcomeCredited, nil
}
