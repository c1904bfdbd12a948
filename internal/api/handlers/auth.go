package handlers

import (
	"errors"
	"net/http"

	"github.com/baharkarakas/resumeforge/internal/api/httpx"
	"github.com/baharkarakas/resumeforge/internal/services"
)

type AuthHandler struct {
	Sessions *services.SessionService
}

func NewAuthHandler(s *services.SessionService) *AuthHandler {
	return &AuthHandler{Sessions: s}
}

// Anonymous signs in a fresh user with no credentials.
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	tok, err := h.Sessions.Anonymous(r.Context())
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tok)
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(w, r, 8<<10, &req); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	tok, err := h.Sessions.Refresh(req.RefreshToken)
	if errors.Is(err, services.ErrInvalidToken) {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tok)
}
