package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/resumeforge/internal/api/handlers"
	"github.com/baharkarakas/resumeforge/internal/auth"
	"github.com/baharkarakas/resumeforge/internal/config"
	"github.com/baharkarakas/resumeforge/internal/metrics"
	"github.com/baharkarakas/resumeforge/internal/middleware"
	"github.com/baharkarakas/resumeforge/internal/services"
)

type RouterDeps struct {
	Cfg        config.Config
	TM         *auth.TokenManager
	Sessions   *services.SessionService
	Balances   *services.BalanceService
	Generation *services.GenerationService
	Webhooks   *services.WebhookService
	Checkout   *services.CheckoutService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.HTTPMetrics, middleware.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.Cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	// provider callbacks: signature-authenticated, not rate limited
	wh := handlers.NewWebhookHandler(d.Webhooks)
	r.Post("/webhooks/stripe", wh.Stripe)

	authMW := middleware.NewAuthMiddleware(d.TM, d.Cfg.Env)
	ah := handlers.NewAuthHandler(d.Sessions)
	ch := handlers.NewCreditsHandler(d.Balances, d.Checkout)
	gh := handlers.NewGenerateHandler(d.Generation, d.Balances)
	rh := handlers.NewResumeHandler()

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(d.Cfg.RateRPS))
			r.Post("/auth/anonymous", ah.Anonymous)
			r.Post("/auth/refresh", ah.Refresh)
		})

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth, middleware.RateLimit(d.Cfg.RateRPS))

			r.Get("/credits", ch.Get)
			r.Get("/credits/history", ch.History)
			r.Post("/credits/checkout", ch.StartCheckout)
			if d.Cfg.Env == "dev" {
				r.Post("/credits/grant", ch.Grant)
			}

			r.Post("/generate", gh.Generate)
			r.Post("/resume/extract", rh.Extract)
		})
	})

	return r
}
