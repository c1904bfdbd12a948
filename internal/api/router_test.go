package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baharkarakas/resumeforge/internal/apperr"
	"github.com/baharkarakas/resumeforge/internal/auth"
	"github.com/baharkarakas/resumeforge/internal/config"
	"github.com/baharkarakas/resumeforge/internal/models"
	"github.com/baharkarakas/resumeforge/internal/payment"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
	"github.com/baharkarakas/resumeforge/internal/repository/memory"
	"github.com/baharkarakas/resumeforge/internal/services"
	"github.com/stripe/stripe-go/v82/webhook"
)

const whSecret = "whsec_router"

type switchGenerator struct {
	mu  sync.Mutex
	res models.GenerationResult
	err error
}

func (g *switchGenerator) set(res models.GenerationResult, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.res, g.err = res, err
}

func (g *switchGenerator) Tailor(context.Context, models.GenerationRequest) (models.GenerationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.res, g.err
}

type testServer struct {
	h   http.Handler
	gen *switchGenerator
}

// downStore answers reads but fails every mutation like an unreachable backend.
type downStore struct{ *memory.Store }

func (downStore) TryDebit(context.Context, string, int64) (bool, error) {
	return false, apperr.Storage("ledger debit", errors.New("connection refused"))
}

func (downStore) CreditOnce(context.Context, string, int64, string) (bool, error) {
	return false, apperr.Storage("ledger credit once", errors.New("connection refused"))
}

func newTestServer(t *testing.T, env string) *testServer {
	t.Helper()
	return newTestServerWithStore(t, env, memory.New())
}

func newTestServerWithStore(t *testing.T, env string, store repo.Store) *testServer {
	t.Helper()
	cfg := config.Config{Env: env, RateRPS: 0, AllowedOrigins: []string{"*"}}
	tm := auth.NewTokenManager("a", "r", "resumeforge", time.Minute, time.Hour)
	gen := &switchGenerator{}

	h := NewRouter(RouterDeps{
		Cfg:        cfg,
		TM:         tm,
		Sessions:   services.NewSessionService(tm, store),
		Balances:   services.NewBalanceService(store, nil, 5),
		Generation: services.NewGenerationService(store, gen, nil, time.Second),
		Webhooks:   services.NewWebhookService(store, payment.NewVerifier(whSecret, 5), nil),
	})
	return &testServer{h: h, gen: gen}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) balance(t *testing.T, token string) int64 {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/v1/credits", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /credits: %d %s", rec.Code, rec.Body)
	}
	var led models.Ledger
	if err := json.NewDecoder(rec.Body).Decode(&led); err != nil {
		t.Fatal(err)
	}
	return led.Balance
}

func (s *testServer) webhook(t *testing.T, payload []byte, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	return rec
}

func purchaseEvent(t *testing.T, eventID, userID string) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]any{"object": map[string]any{
			"id":             "cs_" + eventID,
			"object":         "checkout.session",
			"payment_status": "paid",
			"metadata":       map[string]string{"userId": userID, "creditsToAdd": "5"},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func signed(payload []byte) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload, Secret: whSecret, Timestamp: time.Now(),
	}).Header
}

func TestPurchaseAndGenerateFlow(t *testing.T) {
	s := newTestServer(t, "prod")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/anonymous", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("anonymous sign-in: %d %s", rec.Code, rec.Body)
	}
	var tok services.Tokens
	if err := json.NewDecoder(rec.Body).Decode(&tok); err != nil {
		t.Fatal(err)
	}
	if got := s.balance(t, tok.AccessToken); got != 0 {
		t.Fatalf("new user balance = %d", got)
	}

	genReq := models.GenerationRequest{JobDescription: "Go engineer", ResumeSection: "Python dev"}

	// no credits yet
	rec = s.do(t, http.MethodPost, "/api/v1/generate", tok.AccessToken, genReq)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("generate without credits: %d %s", rec.Code, rec.Body)
	}

	// purchase, delivered twice
	payload := purchaseEvent(t, "evt_flow", tok.UserID)
	for i, want := range []string{"credited", "duplicate"} {
		rec = s.webhook(t, payload, signed(payload))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), want) {
			t.Fatalf("delivery %d: %d %s", i, rec.Code, rec.Body)
		}
	}
	if got := s.balance(t, tok.AccessToken); got != 5 {
		t.Fatalf("balance after purchase = %d, want 5", got)
	}

	// success debits one
	s.gen.set(models.GenerationResult{TailoredText: "Foo"}, nil)
	rec = s.do(t, http.MethodPost, "/api/v1/generate", tok.AccessToken, genReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate: %d %s", rec.Code, rec.Body)
	}
	var out struct {
		TailoredText string `json:"tailoredText"`
		Balance      int64  `json:"balance"`
		Degraded     bool   `json:"degraded"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.TailoredText != "Foo" || out.Balance != 4 || out.Degraded {
		t.Errorf("unexpected response: %+v", out)
	}

	// failure refunds
	s.gen.set(models.GenerationResult{}, apperr.ErrUnavailable)
	rec = s.do(t, http.MethodPost, "/api/v1/generate", tok.AccessToken, genReq)
	if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), `"refunded":true`) {
		t.Fatalf("failed generate: %d %s", rec.Code, rec.Body)
	}
	if got := s.balance(t, tok.AccessToken); got != 4 {
		t.Errorf("balance after refund = %d, want 4", got)
	}

	// history newest first
	rec = s.do(t, http.MethodGet, "/api/v1/credits/history?limit=2", tok.AccessToken, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"kind":"refund"`) {
		t.Errorf("history: %d %s", rec.Code, rec.Body)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s := newTestServer(t, "prod")
	payload := purchaseEvent(t, "evt_bad", "u1")

	rec := s.webhook(t, payload, "t=1,v1=deadbeef")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid_signature") {
		t.Fatalf("bad signature: %d %s", rec.Code, rec.Body)
	}
	tm := auth.NewTokenManager("a", "r", "resumeforge", time.Minute, time.Hour)
	access, _, _, err := tm.GeneratePair("u1")
	if err != nil {
		t.Fatal(err)
	}
	if got := s.balance(t, access); got != 0 {
		t.Fatalf("balance = %d after rejected webhook", got)
	}
}

func TestStorageOutage(t *testing.T) {
	s := newTestServerWithStore(t, "dev", downStore{memory.New()})
	s.gen.set(models.GenerationResult{TailoredText: "Foo"}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/generate", "dev-u1",
		models.GenerationRequest{JobDescription: "Go engineer", ResumeSection: "Python dev"})
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "storage_unavailable") {
		t.Errorf("generate: %d %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// any non-2xx makes the provider redeliver
	payload := purchaseEvent(t, "evt_down", "u1")
	rec = s.webhook(t, payload, signed(payload))
	if rec.Code < 300 {
		t.Fatalf("webhook during outage: %d %s", rec.Code, rec.Body)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("webhook during outage: %d, want 503", rec.Code)
	}
}

func TestInvalidInputAndAuth(t *testing.T) {
	s := newTestServer(t, "dev")

	rec := s.do(t, http.MethodPost, "/api/v1/generate", "", map[string]string{"jobDescription": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/generate", "dev-u1", map[string]string{"jobDescription": "x", "resumeSection": " "})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "resumeSection") {
		t.Errorf("blank resume: %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/credits/grant", "dev-u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("grant: %d %s", rec.Code, rec.Body)
	}
	if got := s.balance(t, "dev-u1"); got != 5 {
		t.Errorf("balance after grant = %d", got)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/credits/checkout", "dev-u1", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("checkout without stripe: %d", rec.Code)
	}
}

func TestGrantNotRoutedInProd(t *testing.T) {
	s := newTestServer(t, "prod")
	tm := auth.NewTokenManager("a", "r", "resumeforge", time.Minute, time.Hour)
	access, _, _, err := tm.GeneratePair("u1")
	if err != nil {
		t.Fatal(err)
	}
	rec := s.do(t, http.MethodPost, "/api/v1/credits/grant", access, nil)
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("grant in prod: %d", rec.Code)
	}
}

func TestResumeExtract(t *testing.T) {
	s := newTestServer(t, "dev")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "resume.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("Jane Doe\nGo engineer\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resume/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer dev-u1")
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("extract: %d %s", rec.Code, rec.Body)
	}
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["text"] != "Jane Doe\nGo engineer" {
		t.Errorf("text = %q", out["text"])
	}
}
