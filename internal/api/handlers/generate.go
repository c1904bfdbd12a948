package handlers

import (
	"log/slog"
	"net/http"

	"github.com/baharkarakas/resumeforge/internal/api/httpx"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/baharkarakas/resumeforge/internal/services"
)

const maxGenerateBody = 256 << 10

type GenerateHandler struct {
	Generation *services.GenerationService
	Balances   *services.BalanceService
}

func NewGenerateHandler(g *services.GenerationService, b *services.BalanceService) *GenerateHandler {
	return &GenerateHandler{Generation: g, Balances: b}
}

type generateResp struct {
	models.GenerationResult
	Balance *int64 `json:"balance,omitempty"`
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req models.GenerationRequest
	if err := httpx.DecodeJSON(w, r, maxGenerateBody, &req); err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	res, err := h.Generation.Generate(r.Context(), uid, req)
	if err != nil {
		httpx.WriteAppError(w, r, err)
		return
	}

	out := generateResp{GenerationResult: res}
	// the debit already stands; a failed read only drops the field
	if led, err := h.Balances.Current(r.Context(), uid); err == nil {
		out.Balance = &led.Balance
	} else {
		slog.WarnContext(r.Context(), "balance after generation", "user_id", uid, "err", err)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
