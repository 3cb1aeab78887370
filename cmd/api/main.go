package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"askyaguy/internal/config"
	"askyaguy/internal/database"
	"askyaguy/internal/httpapi"
	"askyaguy/internal/metrics"
	"askyaguy/internal/notify"
	"askyaguy/internal/payment"
	"askyaguy/internal/repository"
	"askyaguy/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host)

	// Initialize database
	log.Println("Initializing database connection...")
	if err := database.Init(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Println("Closing database connections...")
		if err := database.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	// database.Init switches the prefix to [DB]
	log.SetPrefix("[API] ")

	db := database.GetDB()
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to access database pool: %v", err)
	}

	gateway, err := newGateway(&cfg.Payment)
	if err != nil {
		log.Fatalf("Failed to configure payment provider: %v", err)
	}
	sender, err := notify.NewSender(&cfg.Email)
	if err != nil {
		log.Fatalf("Failed to configure email provider: %v", err)
	}

	// Create service instances
	log.Println("Initializing services...")
	questionRepo := repository.NewQuestionRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifier := notify.NewNotifier(sender, questionRepo, notify.NewTemplates(cfg.App.FrontendURL, cfg.Pricing.Currency), cfg.Email.AdminEmail)

	questionSvc := services.NewQuestionService(questionRepo, userRepo, gateway, notifier, cfg.Pricing, cfg.App.FrontendURL)
	authSvc := services.NewAuthService(userRepo, &cfg.Auth)
	healthSvc := services.NewHealthService(cfg.App.Name, sqlDB)

	api := httpapi.New(questionSvc, authSvc, healthSvc)
	apiHandler := api.Handler()

	// Route /metrics to Prometheus and everything else to the API
	metricsHandler := promhttp.Handler()
	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			if stats, err := database.GetStats(); err == nil {
				metrics.UpdateDBConnections(stats.InUse, stats.Idle)
			}
			metricsHandler.ServeHTTP(w, r)
			return
		}
		apiHandler.ServeHTTP(w, r)
	})

	// Setup middleware chain: Security -> CORS -> Logging -> Prometheus -> Handler
	handler := httpapi.SecurityHeaders(cfg.App.Debug)(
		httpapi.CORS(cfg.CORS, cfg.App.Debug)(
			httpapi.RequestLogging(metrics.PrometheusMiddleware(rootHandler)),
		),
	)

	// Create HTTP server with timeouts
	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s (payments=%s, email=%s)", addr, cfg.Payment.Provider, cfg.Email.Provider)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server failed to start: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if err == context.DeadlineExceeded {
			log.Println("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	log.Println("Server shutdown complete")
}

// newGateway picks the payment provider named in the config
func newGateway(cfg *config.PaymentConfig) (payment.Gateway, error) {
	switch cfg.Provider {
	case "stripe":
		if cfg.WebhookSecret == "" {
			log.Println("STRIPE_WEBHOOK_SECRET not set; webhook deliveries will be rejected")
		}
		return payment.NewStripeGateway(cfg.StripeSecretKey, cfg.WebhookSecret), nil
	case "mock":
		log.Printf("Using mock payment gateway (auto_pay=%v)", cfg.MockAutoPay)
		return payment.NewMockGateway(cfg.MockAutoPay), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// validateConfig validates critical configuration values
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.SecretKey == "" || cfg.Auth.SecretKey == "your-256-bit-secret-change-this-in-production" {
		if !cfg.App.Debug {
			return fmt.Errorf("JWT_SECRET must be set and changed from default value")
		}
		log.Println("WARNING: default JWT_SECRET in use (allowed in debug mode only)")
	}
	if len(cfg.Auth.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if cfg.App.FrontendURL == "" {
		return fmt.Errorf("FRONTEND_URL must be set")
	}
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	return nil
}
