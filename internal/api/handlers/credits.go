package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/baharkarakas/resumeforge/internal/api/httpx"
	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/middleware"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/baharkarakas/resumeforge/internal/services"
)

type CreditsHandler struct {
	Balances *services.BalanceService
	Checkout *services.CheckoutService // nil when Stripe is not configured
}

func NewCreditsHandler(b *services.BalanceService, c *services.CheckoutService) *CreditsHandler {
	return &CreditsHandler{Balances: b, Checkout: c}
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "no user in context", nil)
	}
	return uid, ok
}

func (h *CreditsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	led, err := h.Balances.Current(r.Context(), uid)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, led)
}

func (h *CreditsHandler) History(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	entries, err := h.Balances.History(r.Context(), uid, limit, offset)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries, "limit": limit, "offset": offset})
}

func (h *CreditsHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if h.Checkout == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "checkout_unavailable", "payments are not configured", nil)
		return
	}
	var req models.CheckoutRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, 8<<10, &req); err != nil {
			httpx.WriteAppError(w, r, err)
			return
		}
	}
	sess, err := h.Checkout.Start(r.Context(), uid, req)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			httpx.WriteAppError(w, r, err)
			return
		}
		httpx.WriteError(w, http.StatusBadGateway, "checkout_failed", "could not start checkout, please retry", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sess)
}

// Grant adds one bundle without payment. Only routed in dev.
func (h *CreditsHandler) Grant(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	led, err := h.Balances.Grant(r.Context(), uid)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, led)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", apperr.ErrInvalidInput, key)
	}
	return n, nil
}
