package handlers

import (
	"net/http"

	"github.com/baharkarakas/resumeforge/internal/api/httpx"
	"github.com/baharkarakas/resumeforge/internal/services"
)

const (
	maxWebhookBody  = 64 << 10
	signatureHeader = "Stripe-Signature"
)

type WebhookHandler struct {
	Svc *services.WebhookService
}

func NewWebhookHandler(s *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{Svc: s}
}

// Stripe reads the raw body first: the signature covers the exact bytes.
// 2xx tells the provider to stop redelivering, so it is only sent once the
// credit is durable.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := httpx.ReadBody(w, r, maxWebhookBody)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	outcome, err := h.Svc.Handle(r.Context(), payload, r.Header.Get(signatureHeader))
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"received": true, "outcome": outcome})
}
