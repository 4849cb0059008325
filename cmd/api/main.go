package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/felixfuego/AppPark-sub000/internal/authn"
	idb "github.com/felixfuego/AppPark-sub000/internal/database"
	"github.com/felixfuego/AppPark-sub000/internal/http/handlers"
	imw "github.com/felixfuego/AppPark-sub000/internal/http/middleware"
	"github.com/felixfuego/AppPark-sub000/internal/mailer"
	"github.com/felixfuego/AppPark-sub000/internal/notify"
	"github.com/felixfuego/AppPark-sub000/internal/qr"
	"github.com/felixfuego/AppPark-sub000/internal/repo/postgres"
	"github.com/felixfuego/AppPark-sub000/internal/scheduler"
	"github.com/felixfuego/AppPark-sub000/internal/service"
	"github.com/felixfuego/AppPark-sub000/pkg/clock"
	"github.com/felixfuego/AppPark-sub000/pkg/config"
	"github.com/felixfuego/AppPark-sub000/pkg/database"
	"github.com/felixfuego/AppPark-sub000/pkg/events"
	"github.com/felixfuego/AppPark-sub000/pkg/logger"
	mw "github.com/felixfuego/AppPark-sub000/pkg/middleware"
)

func main() {
	godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	// Database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := idb.Migrate(ctx, cfg.Database.URL); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Redis backs the per-IP login rate limiter
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	visitRepo := postgres.NewVisitRepo(pool)
	accountRepo := postgres.NewAccountRepo(pool)
	facilityRepo := postgres.NewFacilityRepo(pool)
	auditLog := postgres.NewAuditLog(pool)

	clk := clock.System{}
	signer := qr.NewSigner(qr.SigningConfig{Secret: cfg.QR.SigningSecret})
	notifier := notify.NewBus(eventBus)

	// Services
	guard := authn.NewGuard(authn.LockoutPolicy{
		MaxFailures: cfg.Auth.LockoutThreshold,
		Window:      cfg.Auth.LockoutWindow,
	})
	authService := authn.NewService(accountRepo, guard, cfg, clk)
	visitService := service.NewVisitService(
		visitRepo, accountRepo, facilityRepo, signer, auditLog, notifier, clk)

	// Notification worker
	mail := newMailer(cfg)
	worker := notify.NewWorker(eventBus, mail, facilityRepo)
	if err := worker.Start(); err != nil {
		logger.Error("Failed to start notification worker", "error", err)
		os.Exit(1)
	}

	// Expiry sweep
	expirer := scheduler.NewExpirer(visitService, clk)
	expirer.Start()
	defer expirer.Stop()

	// Handlers
	loginLimiter := imw.NewRateLimiter(rdb, "rl:login", cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)
	authHandler := handlers.NewAuthHandler(authService, loginLimiter, cfg.Auth.JWTSecret)
	visitHandler := handlers.NewVisitHandler(visitService, cfg.Auth.JWTSecret, cfg.QR.ImageSize)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.CORS())
	r.Use(mw.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/visits", visitHandler.Routes())
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down api...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Api shutdown error", "error", err)
		}
	}()

	logger.Info("Starting api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Api server error", "error", err)
		os.Exit(1)
	}
}

func newMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.Dev{}
	}
	m, err := mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	if err != nil {
		logger.Warn("Mailer misconfigured, falling back to dev mailer", "error", err)
		return mailer.Dev{}
	}
	return m
}
