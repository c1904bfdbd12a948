package models

// PaymentEvent is a verified "payment completed" notification.
type PaymentEvent struct {
	EventID      string
	Type         string
	UserID       string
	CreditsToAdd int64
	SessionID    string
}

type CheckoutRequest struct {
	PriceID    string `json:"priceId,omitempty"`
	SuccessURL string `json:"successUrl,omitempty"`
	CancelURL  string `json:"cancelUrl,omitempty"`
}

type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}
