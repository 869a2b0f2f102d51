package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dukerupert/dynamite/internal"
	"github.com/dukerupert/dynamite/internal/billing"
	"github.com/dukerupert/dynamite/internal/cookie"
	"github.com/dukerupert/dynamite/internal/email"
	"github.com/dukerupert/dynamite/internal/handler"
	"github.com/dukerupert/dynamite/internal/handler/storefront"
	"github.com/dukerupert/dynamite/internal/handler/webhook"
	"github.com/dukerupert/dynamite/internal/jobs"
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/repository"
	"github.com/dukerupert/dynamite/internal/router"
	"github.com/dukerupert/dynamite/internal/routes"
	"github.com/dukerupert/dynamite/internal/service"
	"github.com/dukerupert/dynamite/internal/session"
	"github.com/dukerupert/dynamite/internal/telemetry"
	"github.com/dukerupert/dynamite/internal/worker"
)

const (
	metricsNamespace = "dynamite"
	shutdownTimeout  = 15 * time.Second
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Error tracking
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	telemetry.InitBusinessMetrics(metricsNamespace)
	metrics := middleware.NewMetrics(metricsNamespace)

	// Run migrations over database/sql, then switch to the pool
	logger.Info("Running database migrations...")
	if err := migrate(ctx, cfg.DatabaseUrl, logger); err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	store := repository.NewStore(pool)

	// Sessions
	var sessionStore session.Store
	switch cfg.Session.Store {
	case "memory":
		logger.Warn("Using in-memory session store; carts are lost on restart")
		sessionStore = session.NewMemoryStore()
	default:
		sessionStore = session.NewPostgresStore(store)
	}
	sessions := session.NewManager(sessionStore, cookie.NewConfig(cfg.Session.CookieDomain, cfg.Session.CookieSecure), cfg.Session.TTL)

	// Payment provider
	billingProvider, err := billing.NewStripeProvider(billing.StripeConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		MaxRetries:    int(cfg.Stripe.MaxRetries),
		Timeout:       time.Duration(cfg.Stripe.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info("Stripe billing provider initialized", "mode", cfg.Stripe.Mode)

	// Email
	var sender email.Sender
	if cfg.Email.Enabled() {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
		}, logger)
	} else {
		logger.Warn("SMTP not configured, order confirmations are logged only")
		sender = email.NewLogSender(logger)
	}
	mailer := email.NewService(sender, cfg.Email.From, cfg.Email.FromName)

	// Services
	cartService := service.NewCartService(store, logger)
	orderService := service.NewOrderService(store, logger)
	invoiceService := service.NewInvoiceService(store, cfg.Invoice.Prefix, logger)
	checkoutService := service.NewCheckoutService(store, billingProvider, service.CheckoutConfig{
		LockWindow: cfg.Checkout.LockWindow,
		BaseURL:    cfg.BaseURL,
		App:        metricsNamespace,
	}, logger)

	// Post-payment work runs after the transition commits, off the request path
	dispatcher := worker.NewDispatcher(
		jobs.NewOrderPaidHandler(invoiceService, orderService, mailer, logger),
		worker.Config{
			Concurrency: int(cfg.Notify.Concurrency),
			QueueSize:   int(cfg.Notify.QueueSize),
		},
		logger,
	)
	dispatcher.Start()

	paymentService := service.NewPaymentService(store, billingProvider, dispatcher, logger)

	cleanup := jobs.NewSessionCleanup(sessionStore, jobs.DefaultCleanupInterval, logger)
	go func() {
		if err := cleanup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session cleanup stopped", "error", err)
		}
	}()

	// ==========================================================================
	// Middleware and routes
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0
	}

	apiLimiter := middleware.NewRateLimiter(middleware.APIRateLimiterConfig())
	defer apiLimiter.Stop()
	checkoutLimiter := middleware.NewRateLimiter(middleware.CheckoutRateLimiterConfig())
	defer checkoutLimiter.Stop()

	r := router.New(
		middleware.RequestID,
		middleware.WithClientIP(),
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		telemetry.SentryRequestMiddleware(middleware.GetRequestID),
		router.Recovery(logger),
		metrics.Middleware,
		router.Logger(logger),
		middleware.SecurityHeaders(securityConfig),
		middleware.SameOrigin(middleware.OriginConfig{
			AllowedOrigins: []string{cfg.BaseURL},
			SkipPaths:      []string{"/api/webhooks/"},
		}),
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Database: pool,
		Metrics:  metrics.Handler(),
	})
	routes.RegisterStorefrontRoutes(r, routes.StorefrontDeps{
		CartHandler:     storefront.NewCartHandler(cartService, sessions),
		CheckoutHandler: storefront.NewCheckoutHandler(checkoutService, paymentService, cartService, sessions),
		OrdersHandler:   storefront.NewOrdersHandler(orderService),
		APILimiter:      apiLimiter,
		CheckoutLimiter: checkoutLimiter,
	})
	routes.RegisterWebhookRoutes(r, routes.WebhookDeps{
		StripeHandler: webhook.NewStripeHandler(paymentService),
	})
	r.NotFound(handler.NotFoundResponse)

	// ==========================================================================
	// Serve
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown incomplete", "error", err)
	}
	// In-flight webhooks have committed by now; drain their notifications.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error("notification queue not drained", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

func migrate(ctx context.Context, databaseURL string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
