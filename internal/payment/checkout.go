package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type CheckoutConfig struct {
	SecretKey    string
	PriceID      string
	SuccessURL   string
	CancelURL    string
	CreditsToAdd int64
}

type Checkout struct {
	sessions sessionCreator
	cfg      CheckoutConfig
}

func NewCheckout(cfg CheckoutConfig) *Checkout {
	sc := client.New(cfg.SecretKey, nil)
	return &Checkout{sessions: sc.CheckoutSessions, cfg: cfg}
}

// CreateSession opens a hosted checkout for one credit bundle at the
// configured price. The session is tagged with the user and bundle size so
// the webhook can credit it.
func (c *Checkout) CreateSession(ctx context.Context, userID string, req models.CheckoutRequest) (models.CheckoutSession, error) {
	if c.cfg.SecretKey == "" {
		return models.CheckoutSession{}, errors.New("stripe secret key not configured")
	}
	priceID := c.cfg.PriceID
	if priceID == "" {
		return models.CheckoutSession{}, fmt.Errorf("%w: no price configured", apperr.ErrInvalidInput)
	}
	// the bundle size is fixed, so only the configured price may buy it
	if req.PriceID != "" && req.PriceID != priceID {
		return models.CheckoutSession{}, fmt.Errorf("%w: unknown priceId", apperr.ErrInvalidInput)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(firstNonEmpty(req.SuccessURL, c.cfg.SuccessURL)),
		CancelURL:         stripe.String(firstNonEmpty(req.CancelURL, c.cfg.CancelURL)),
		ClientReferenceID: stripe.String(userID),
	}
	params.Context = ctx
	params.AddMetadata(MetaUserID, userID)
	params.AddMetadata(MetaCreditsToAdd, strconv.FormatInt(c.cfg.CreditsToAdd, 10))

	sess, err := c.sessions.New(params)
	if err != nil {
		return models.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return models.CheckoutSession{SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
