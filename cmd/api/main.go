package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/baharkarakas/resumeforge/internal/api"
	"github.com/baharkarakas/resumeforge/internal/auth"
	"github.com/baharkarakas/resumeforge/internal/config"
	"github.com/baharkarakas/resumeforge/internal/db"
	"github.com/baharkarakas/resumeforge/internal/events"
	"github.com/baharkarakas/resumeforge/internal/generator"
	"github.com/baharkarakas/resumeforge/internal/logger"
	"github.com/baharkarakas/resumeforge/internal/metrics"
	"github.com/baharkarakas/resumeforge/internal/payment"
	repo "github.com/baharkarakas/resumeforge/internal/repository"
	"github.com/baharkarakas/resumeforge/internal/repository/memory"
	"github.com/baharkarakas/resumeforge/internal/repository/postgres"
	"github.com/baharkarakas/resumeforge/internal/repository/redisstore"
	"github.com/baharkarakas/resumeforge/internal/services"
	"github.com/baharkarakas/resumeforge/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return err
	}

	bus, err := events.New(cfg.BusProvider, cfg.NatsURL, cfg.AMQPURL)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	defer func() { _ = bus.Close() }()

	wp := worker.NewPool(cfg.WorkerCount, 1024)
	defer wp.Stop()
	notifier := events.NewDispatcher(bus, wp)

	var checkout *services.CheckoutService
	if cfg.StripeSecretKey != "" {
		checkout = services.NewCheckoutService(payment.NewCheckout(payment.CheckoutConfig{
			SecretKey:    cfg.StripeSecretKey,
			PriceID:      cfg.StripePriceID,
			SuccessURL:   cfg.CheckoutSuccessURL,
			CancelURL:    cfg.CheckoutCancelURL,
			CreditsToAdd: cfg.CreditsPerPurchase,
		}))
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set, checkout disabled")
	}

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:        cfg,
		TM:         tm,
		Sessions:   services.NewSessionService(tm, store),
		Balances:   services.NewBalanceService(store, notifier, cfg.CreditsPerPurchase),
		Generation: services.NewGenerationService(store, gen, notifier, cfg.GeminiTimeout),
		Webhooks:   services.NewWebhookService(store, payment.NewVerifier(cfg.StripeWebhookSecret, cfg.CreditsPerPurchase), notifier),
		Checkout:   checkout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		// generation calls can take as long as GEMINI_TIMEOUT
		WriteTimeout: cfg.GeminiTimeout + 15*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env,
			"ledger_store", cfg.LedgerStore, "model", cfg.GeminiModel, "bus", cfg.BusProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Config) (repo.Store, func(), error) {
	switch cfg.LedgerStore {
	case "memory":
		slog.Warn("using in-memory ledger, balances are lost on restart")
		return memory.New(), func() {}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return redisstore.NewLedgerRepo(rdb), func() { _ = rdb.Close() }, nil

	default:
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, cfg.DatabaseURL, "up"); err != nil {
				return nil, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		return postgres.NewRepositories(pool).Store(), pool.Close, nil
	}
}

func newGenerator(ctx context.Context, cfg config.Config) (services.Generator, error) {
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, generations will fail and be refunded")
		return generator.Disabled{}, nil
	}
	tmpl, err := generator.LoadTemplate(cfg.PromptTemplatePath)
	if err != nil {
		return nil, err
	}
	return generator.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, tmpl)
}
