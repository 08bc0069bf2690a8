package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shadoom/entitlement-server-go/internal/analyzer"
	"github.com/shadoom/entitlement-server-go/internal/config"
	"github.com/shadoom/entitlement-server-go/internal/database"
	"github.com/shadoom/entitlement-server-go/internal/generator"
	"github.com/shadoom/entitlement-server-go/internal/handler"
	"github.com/shadoom/entitlement-server-go/internal/jobs"
	"github.com/shadoom/entitlement-server-go/internal/middleware"
	"github.com/shadoom/entitlement-server-go/internal/processor"
	"github.com/shadoom/entitlement-server-go/internal/redis"
	"github.com/shadoom/entitlement-server-go/internal/repository"
	"github.com/shadoom/entitlement-server-go/internal/service"
	"github.com/shadoom/entitlement-server-go/internal/sse"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	accountRepo := repository.NewAccountRepository(db.DB)
	ideaRepo := repository.NewIdeaRepository(db.DB)
	paymentRepo := repository.NewPaymentRepository(db.DB)
	auditRepo := repository.NewPlanAuditRepository(db.DB)
	adminSessionRepo := repository.NewAdminSessionRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	ledger := service.NewAccountService(db, accountRepo, auditRepo)
	quota := service.NewQuotaService(accountRepo)
	entitlements := service.NewEntitlementService()
	ideaService := service.NewIdeaService(
		ideaRepo, quota, entitlements, generator.NewTemplateGenerator(), broker, cfg.GeneratorIdeaCount,
	)
	paymentService := service.NewPaymentService(
		db, paymentRepo, ledger,
		processor.NewStubCardProcessor(),
		processor.NewHMACAddressDeriver(cfg.CryptoAddressSecret),
		broker, cfg.CardConfirmTimeout(),
	)
	analysisService := service.NewAnalysisService(entitlements, analyzer.NewTemplateAnalyzer())
	adminService := service.NewAdminService(
		adminSessionRepo, accountRepo, ideaRepo, paymentRepo, ledger,
		cfg.AdminPasswordHash, cfg.AdminSessionSecret,
	)

	identityMiddleware := middleware.NewIdentityMiddleware(accountRepo)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	adminSessionMiddleware := middleware.NewAdminSessionMiddleware(
		adminSessionRepo, cfg.AdminPasswordHash, cfg.AdminSessionSecret,
	)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	accountHandler := handler.NewAccountHandler(ledger)
	ideaHandler := handler.NewIdeaHandler(ideaService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	eventsHandler := handler.NewEventsHandler(broker)
	adminHandler := handler.NewAdminHandler(adminService, ledger, adminSessionMiddleware.Handler, isProduction)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Post("/api/accounts", accountHandler.Create)

	r.Route("/api", func(r chi.Router) {
		r.Use(identityMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)

		r.Get("/accounts/{email}", accountHandler.GetByEmail)

		r.Post("/ideas/generate", ideaHandler.Generate)
		r.Get("/ideas", ideaHandler.List)
		r.Delete("/ideas/{id}", ideaHandler.Delete)

		r.Post("/profile/analyze", analysisHandler.Analyze)

		r.Post("/purchase", paymentHandler.Initiate)
		r.Post("/purchase/{id}/confirm", paymentHandler.ConfirmCrypto)
		r.Get("/purchases", paymentHandler.List)

		r.Get("/events", eventsHandler.ServeHTTP)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)
		r.Mount("/", adminHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(
		adminSessionRepo, paymentRepo, accountRepo,
		config.CleanupJobInterval, cfg.StaleCardAttemptAge(), cfg.PeriodResetAge(),
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
