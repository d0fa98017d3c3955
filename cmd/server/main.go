package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ridehail/internal/app"
	"ridehail/internal/auth"
	"ridehail/internal/config"
	"ridehail/internal/gateway"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
	"ridehail/internal/notify"
	"ridehail/internal/pricing"
	internalRedis "ridehail/internal/redis"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/repository/postgres"
	"ridehail/internal/service"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)})))

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database and Redis are instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			slog.Warn("failed to initialize New Relic", "error", err)
		} else {
			slog.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
		}
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	var db *sql.DB
	if cfg.Store.Backend != "memory" {
		var err error
		db, err = app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return err
		}
		closers = append(closers, db)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient)
		slog.Info("connected to Redis", "addr", cfg.Redis.Addr)
	}

	var fbApp *firebase.App
	if cfg.Auth.Mode == "firebase" || cfg.Firebase.PushEnabled {
		var err error
		// Firebase clients keep their context for token refresh.
		fbApp, err = app.NewFirebaseApp(context.Background(), cfg.Firebase)
		if err != nil {
			return err
		}
	}

	var publisher *notify.Publisher
	if cfg.RabbitMQ.URL != "" {
		var err error
		publisher, err = notify.NewPublisher(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return err
		}
		closers = append(closers, publisher)
	}

	server, err := wireServer(context.Background(), cfg, db, redisClient, fbApp, publisher, nrApp)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port, "store", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	slog.Info("server exited")
	return nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	ctx context.Context,
	cfg *config.Config,
	db *sql.DB,
	redisClient *redis.Client,
	fbApp *firebase.App,
	publisher *notify.Publisher,
	nrApp *newrelic.Application,
) (*http.Server, error) {
	policy := repository.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}

	// Initialize the transactional store and inbox.
	var store repository.Store
	var inboxRepo repository.NotificationRepository
	if db != nil {
		store = postgres.NewStore(db, policy)
		inboxRepo = postgres.NewNotificationRepository(db)
	} else {
		slog.Warn("using in-memory store; data is lost on restart")
		store = memory.NewStore(policy)
		inboxRepo = memory.NewNotificationRepository()
	}

	// Initialize Redis stores. Without Redis, proximity fan-out, ride caching
	// and idempotent replay are disabled.
	var (
		proximityFeed service.PresenceFeed
		dedupe        service.DedupeStore
		rideCache     service.RideCache
		responses     middleware.ResponseStore
	)
	if redisClient != nil {
		proximityFeed = internalRedis.NewPresenceStore(redisClient)
		dedupe = internalRedis.NewDedupeStore(redisClient)
		rideCache = internalRedis.NewCacheStore(redisClient)
		responses = middleware.NewRedisResponseStore(redisClient)
	}

	wallets := service.NewWalletService(store)

	// Initialize notification sinks.
	inbox := notify.NewInbox(inboxRepo)
	sinks := []service.Notifier{inbox}
	if publisher != nil {
		sinks = append(sinks, publisher)
	}
	if cfg.Firebase.PushEnabled {
		msgClient, err := app.NewMessagingClient(ctx, fbApp)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, notify.NewPushSender(msgClient, wallets))
	}
	if len(sinks) == 1 {
		sinks = append(sinks, notify.Log{})
	}
	notifications := service.NewNotificationService(notify.NewFanout(sinks...))

	// Initialize the caller identity verifier.
	var verifier auth.Verifier
	switch cfg.Auth.Mode {
	case "jwt":
		if cfg.Auth.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
		verifier = auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	case "firebase":
		fv, err := auth.NewFirebaseVerifier(ctx, fbApp)
		if err != nil {
			return nil, err
		}
		verifier = fv
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.Auth.Mode)
	}

	if cfg.Stripe.SecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	payments := gateway.NewStripe(cfg.Stripe.SecretKey)

	// Initialize services.
	fares, err := pricing.NewCalculator(pricing.Rates{
		BaseFare:  cfg.Fare.BaseCents,
		RatePerKm: cfg.Fare.PerKmCents,
		MinFare:   cfg.Fare.MinCents,
		MaxFare:   cfg.Fare.MaxCents,
	})
	if err != nil {
		return nil, fmt.Errorf("fare config: %w", err)
	}
	var proximity *service.ProximityNotifier
	if proximityFeed != nil {
		proximity = service.NewProximityNotifier(proximityFeed, dedupe, notifications, cfg.Proximity.MaxDrivers)
	}
	requestService := service.NewRequestService(store, proximity)
	matchingService := service.NewMatchingService(store, fares, notifications)
	lifecycleService := service.NewLifecycleService(store, notifications, rideCache)
	rideService := service.NewRideService(store, rideCache)
	topUpService := service.NewTopUpService(store, payments, notifications, service.TopUpConfig{
		MinAmountCents: cfg.Wallet.MinTopUpCents,
		Currency:       cfg.Wallet.Currency,
	})

	router := app.NewRouter(app.RouterDeps{
		RequestHandler:      handler.NewRequestHandler(requestService, matchingService, lifecycleService),
		RideHandler:         handler.NewRideHandler(rideService, lifecycleService),
		WalletHandler:       handler.NewWalletHandler(wallets, topUpService),
		NotificationHandler: handler.NewNotificationHandler(inbox),
		Verifier:            verifier,
		Responses:           responses,
		NewRelicApp:         nrApp,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
