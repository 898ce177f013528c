package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gym-membership-billing/internal/config"
	"gym-membership-billing/internal/domain/ports/adapter"
	"gym-membership-billing/internal/domain/ports/repository"
	payAdapters "gym-membership-billing/internal/infra/adapters/payment"
	tele "gym-membership-billing/internal/infra/adapters/telegram"
	"gym-membership-billing/internal/infra/api"
	pg "gym-membership-billing/internal/infra/db/postgres"
	httpserver "gym-membership-billing/internal/infra/http"
	"gym-membership-billing/internal/infra/logging"
	"gym-membership-billing/internal/infra/metrics"
	red "gym-membership-billing/internal/infra/redis"
	"gym-membership-billing/internal/infra/sched"
	"gym-membership-billing/internal/infra/worker"
	"gym-membership-billing/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	counterRepo := pg.NewCounterRepo(pool)
	productRepo := pg.NewProductRepo(pool)
	settingsRepo := pg.NewSettingsRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	memberRepo := pg.NewMemberRepo(pool)
	notifRepo := pg.NewNotificationRepo(pool)
	var planRepo repository.MembershipPlanRepository = pg.NewPlanRepo(pool)

	// ---- Redis (optional) ----
	var limiter api.Limiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		planRepo = pg.NewPlanRepoCacheDecorator(planRepo, redisClient, cfg.Redis.TTL, logger)
		limiter = red.NewRateLimiter(redisClient)
		logger.Info().Msg("redis enabled: plan cache and create-order rate limit")
	} else {
		logger.Warn().Msg("redis.url not set; plan cache and rate limiting disabled")
	}

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Payment.Razorpay.Enabled() {
		gateway, err = payAdapters.NewRazorpayGateway(cfg.Payment.Razorpay.KeyID, cfg.Payment.Razorpay.KeySecret, cfg.Payment.Razorpay.BaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("razorpay gateway")
		}
	} else {
		gateway = payAdapters.NewLocalGateway()
		logger.Warn().Msg("razorpay credentials not set; using local auto-approving gateway")
	}
	logger.Info().Str("gateway", gateway.Name()).Msg("payment gateway selected")

	// ---- Admin messenger ----
	var messenger adapter.Messenger
	if cfg.Telegram.Token != "" {
		messenger, err = tele.NewBotMessenger(cfg.Telegram.Token, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
	} else {
		messenger = tele.NewNoopMessenger(logger)
	}

	// ---- Background workers ----
	workers := worker.NewPool(cfg.Notifications.Workers, logger)
	workers.Start(ctx)

	// ---- Use cases ----
	notifUC := usecase.NewNotificationUseCase(notifRepo, userRepo, memberRepo, messenger, workers, logger)
	effectsUC := usecase.NewEffectsUseCase(payRepo, memberRepo, planRepo, tm, notifUC, logger)
	paymentUC := usecase.NewPaymentUseCase(
		payRepo, memberRepo, planRepo, productRepo, settingsRepo,
		usecase.NewInvoiceAllocator(counterRepo),
		gateway, effectsUC, tm, cfg.Payment.Currency, logger,
	)

	// ---- Effects reconciler ----
	reconciler := sched.NewEffectsReconciler(effectsUC, payRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- DB pool gauges ----
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				st := pool.Stat()
				metrics.ObserveDBPool(st.TotalConns(), st.IdleConns(), st.AcquiredConns(), st.EmptyAcquireCount())
			}
		}
	}()

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.HTTP.JWTSecret, 0)
	apiServer := api.NewServer(paymentUC, notifUC, auth, limiter, api.Options{
		RequestTimeout:       cfg.HTTP.RequestTimeout,
		CreateOrderPerMinute: cfg.RateLimit.CreateOrderPerMinute,
		RateKey:              red.UserRouteKey,
	}, logger)
	server := httpserver.NewServer(cfg.HTTP.Port, apiServer.Routes(), logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// queued notifications finish before the pool context goes away
	workers.Stop()
	cancel()
}
