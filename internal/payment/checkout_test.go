package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/stripe/stripe-go/v82"
)

type fakeSessions struct {
	got *stripe.CheckoutSessionParams
	err error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.got = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil
}

func newTestCheckout(f *fakeSessions) *Checkout {
	return &Checkout{sessions: f, cfg: CheckoutConfig{
		SecretKey:    "sk_test",
		PriceID:      "price_default",
		SuccessURL:   "https://app/success",
		CancelURL:    "https://app/cancel",
		CreditsToAdd: 5,
	}}
}

func TestCreateSessionTagsMetadata(t *testing.T) {
	f := &fakeSessions{}
	c := newTestCheckout(f)

	sess, err := c.CreateSession(context.Background(), "user-1", models.CheckoutRequest{CancelURL: "https://app/custom-cancel"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.SessionID != "cs_1" || sess.RedirectURL == "" {
		t.Errorf("unexpected session: %+v", sess)
	}
	if f.got.Metadata[MetaUserID] != "user-1" || f.got.Metadata[MetaCreditsToAdd] != "5" {
		t.Errorf("metadata = %v", f.got.Metadata)
	}
	if *f.got.LineItems[0].Price != "price_default" {
		t.Errorf("price = %s", *f.got.LineItems[0].Price)
	}
	if *f.got.SuccessURL != "https://app/success" || *f.got.CancelURL != "https://app/custom-cancel" {
		t.Errorf("urls = %s %s", *f.got.SuccessURL, *f.got.CancelURL)
	}
	if *f.got.ClientReferenceID != "user-1" {
		t.Errorf("client reference = %s", *f.got.ClientReferenceID)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	c := newTestCheckout(&fakeSessions{})
	c.cfg.PriceID = ""
	if _, err := c.CreateSession(context.Background(), "u", models.CheckoutRequest{}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput without a price, got %v", err)
	}

	c = newTestCheckout(&fakeSessions{})
	if _, err := c.CreateSession(context.Background(), "u", models.CheckoutRequest{PriceID: "price_cheap"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for an unknown price, got %v", err)
	}
	if _, err := c.CreateSession(context.Background(), "u", models.CheckoutRequest{PriceID: "price_default"}); err != nil {
		t.Errorf("configured price rejected: %v", err)
	}

	upstream := errors.New("card_declined")
	c = newTestCheckout(&fakeSessions{err: upstream})
	if _, err := c.CreateSession(context.Background(), "u", models.CheckoutRequest{}); !errors.Is(err, upstream) {
		t.Errorf("expected upstream error, got %v", err)
	}
}
