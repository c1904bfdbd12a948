package services

import (
	"context"
	"log/slog"

	"github.com/baharkarakas/resumeforge/internal/models"
)

// SessionCreator opens a hosted checkout. payment.Checkout implements it.
type SessionCreator interface {
	CreateSession(ctx context.Context, userID string, req models.CheckoutRequest) (models.CheckoutSession, error)
}

type CheckoutService struct {
	creator SessionCreator
}

func NewCheckoutService(c SessionCreator) *CheckoutService {
	return &CheckoutService{creator: c}
}

// Start creates a checkout session for one credit bundle. The ledger is
// only credited later, by the webhook.
func (s *CheckoutService) Start(ctx context.Context, userID string, req models.CheckoutRequest) (models.CheckoutSession, error) {
	sess, err := s.creator.CreateSession(ctx, userID, req)
	if err != nil {
		return models.CheckoutSession{}, err
	}
	slog.InfoContext(ctx, "checkout session created", "user_id", userID, "session_id", sess.SessionID)
	return sess, nil
}
