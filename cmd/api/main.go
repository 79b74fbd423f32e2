package main

// @title Levrix API
// @version 1.0
// @description Lead management, outreach and AI assistance for real estate teams.
// @termsOfService https://levrix.io/terms

// @contact.name API Support
// @contact.url https://levrix.io/support
// @contact.email support@levrix.io

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/levrixhq/levrix/config"
	"github.com/levrixhq/levrix/pkg/ai/assistant"
	"github.com/levrixhq/levrix/pkg/ai/llm"
	"github.com/levrixhq/levrix/pkg/analytics"
	"github.com/levrixhq/levrix/pkg/api/handlers"
	custommw "github.com/levrixhq/levrix/pkg/api/middleware"
	"github.com/levrixhq/levrix/pkg/auth"
	"github.com/levrixhq/levrix/pkg/billing"
	"github.com/levrixhq/levrix/pkg/cache"
	"github.com/levrixhq/levrix/pkg/calendar"
	"github.com/levrixhq/levrix/pkg/database"
	"github.com/levrixhq/levrix/pkg/email"
	"github.com/levrixhq/levrix/pkg/export"
	"github.com/levrixhq/levrix/pkg/inbound"
	"github.com/levrixhq/levrix/pkg/integrations"
	"github.com/levrixhq/levrix/pkg/jobs"
	"github.com/levrixhq/levrix/pkg/leads"
	"github.com/levrixhq/levrix/pkg/logger"
	"github.com/levrixhq/levrix/pkg/marketing"
	"github.com/levrixhq/levrix/pkg/metrics"
	custommiddleware "github.com/levrixhq/levrix/pkg/middleware"
	"github.com/levrixhq/levrix/pkg/outreach"
	"github.com/levrixhq/levrix/pkg/profile"
	"github.com/levrixhq/levrix/pkg/secrets"
	"github.com/levrixhq/levrix/pkg/storage"
	"github.com/levrixhq/levrix/pkg/team"
	"github.com/levrixhq/levrix/pkg/users"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	if cfg.SecretsBackend != secrets.BackendEnv {
		src, err := secrets.New(secrets.Config{
			Backend:   cfg.SecretsBackend,
			AWSRegion: cfg.AWSRegion,
			SecretID:  cfg.SecretsID,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize secrets backend: %v", err)
		}
		n, err := secrets.Overlay(context.Background(), src, cfg)
		if err != nil {
			log.Fatalf("❌ Failed to load secrets: %v", err)
		}
		log.Printf("✅ Loaded %d secrets from %s", n, cfg.SecretsBackend)
	}

	appLogger := logger.New(cfg.LogLevel)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Database, migrated on open
	db, err := database.NewClientWithPool(cfg.DatabaseDriver, cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: 10 * time.Minute,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis backs the dashboard caches, the token blacklist and job dedup
	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	prometheusMetrics := metrics.Default()
	log.Printf("✅ Prometheus metrics initialized")

	ctx := context.Background()

	// AI provider; a nil client means every assistant call uses its fallback
	llmClient, err := llm.New(ctx, llm.Config{
		Provider:     cfg.AIProvider,
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		TextModel:    cfg.AITextModel,
		ImageModel:   cfg.AIImageModel,
	})
	if err != nil {
		log.Printf("⚠️  AI provider unavailable, using fallbacks: %v", err)
	} else if llmClient == nil {
		log.Printf("ℹ️  AI disabled (no %s API key configured)", cfg.AIProvider)
	} else {
		log.Printf("✅ AI provider ready (%s)", cfg.AIProvider)
	}

	uploader, err := storage.New(ctx, storage.Config{
		AWSAccessKeyID:     cfg.AWSAccessKeyID,
		AWSSecretAccessKey: cfg.AWSSecretAccessKey,
		AWSRegion:          cfg.AWSRegion,
		S3Bucket:           cfg.S3Bucket,
		PublicBaseURL:      cfg.S3PublicBaseURL,
		Endpoint:           cfg.S3Endpoint,
	})
	if err != nil {
		log.Printf("⚠️  S3 unavailable, marketing images will be inlined: %v", err)
		uploader = storage.InlineStore{}
	}

	// Services
	blacklist := auth.NewTokenBlacklist(redisClient)
	emailService := email.NewService(cfg.EmailFrom, cfg.EmailFromName, cfg.FrontendURL, cfg.SendGridAPIKey)
	userService := users.NewService(users.NewRepository(db), blacklist, emailService, cfg.JWTSecret, cfg.JWTExpirationHours, appLogger)
	profiles := profile.NewStore(db)
	catalog := billing.DefaultCatalog()
	limits := billing.NewLimits(profiles, catalog)
	assistantService := assistant.NewService(llmClient, redisClient, cfg.AITimeout, appLogger)

	leadService := leads.NewService(leads.NewSQLRepository(db), assistantService, limits, redisClient, appLogger)
	integrationService := integrations.NewService(profiles, assistantService, assistantService, leadService, appLogger)
	dispatcher := outreach.NewDispatcher(emailService, cfg.TwilioBaseURL, cfg.WhatsAppBaseURL, &http.Client{Timeout: cfg.OutreachTimeout})
	outreachService := outreach.NewService(outreach.NewSQLLogStore(db), leadService, profiles, dispatcher, outreach.Options{
		Concurrency: cfg.OutreachConcurrency,
		Timeout:     cfg.OutreachTimeout,
	}, appLogger)
	analyticsService := analytics.NewService(leadService, redisClient, appLogger)
	calendarService := calendar.NewService(leadService, outreachService)
	teamService := team.NewService(team.NewSQLRepository(db), limits, emailService, profiles, appLogger)
	billingService := billing.NewService(profiles, catalog, &billing.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		SuccessURL:    cfg.StripeSuccessURL,
		CancelURL:     cfg.StripeCancelURL,
	})
	inboundService := inbound.NewService(userService, leadService, cfg.PublicBaseURL, appLogger)
	studio := marketing.NewService(assistantService, uploader, appLogger)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	userRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	authRateLimiter := custommiddleware.NewRateLimiter(5, 2)
	webhookRateLimiter := custommiddleware.NewRateLimiter(100, 20)

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())

	securityHeaders := custommiddleware.DefaultSecurityHeadersConfig()
	securityHeaders.HSTS = cfg.IsProduction()
	e.Use(custommiddleware.SecurityHeaders(securityHeaders))

	e.Use(globalRateLimiter.Middleware())

	// Health check endpoints (public)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"name":        "Levrix API",
			"version":     "1.0.0",
			"status":      "running",
			"environment": cfg.APIEnvironment,
			"timestamp":   time.Now().Unix(),
		})
	})

	e.GET("/health", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"database": "down",
			})
		}
		if _, err := redisClient.Redis.Ping(c.Request().Context()).Result(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]any{
				"status": "unhealthy",
				"redis":  "down",
			})
		}
		prometheusMetrics.UpdateDBConnections(db.Stats().OpenConnections)

		return c.JSON(http.StatusOK, map[string]any{
			"status":   "healthy",
			"database": "up",
			"redis":    "up",
			"ai":       llmClient != nil,
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h := &handlers.Handlers{
		Auth:         handlers.NewAuthHandler(userService),
		Profile:      handlers.NewProfileHandler(profiles, integrationService, catalog),
		Leads:        handlers.NewLeadHandler(leadService, export.NewService(leadService)),
		AI:           handlers.NewAIHandler(leadService, assistantService, analyticsService),
		Outreach:     handlers.NewOutreachHandler(outreachService),
		Analytics:    handlers.NewAnalyticsHandler(analyticsService, calendarService),
		Integrations: handlers.NewIntegrationHandler(integrationService),
		Team:         handlers.NewTeamHandler(teamService),
		Billing:      handlers.NewBillingHandler(billingService),
		Webhooks:     handlers.NewWebhookHandler(inboundService),
		Marketing:    handlers.NewMarketingHandler(studio),
	}
	h.Register(e.Group("/api/v1"), handlers.RouteMiddleware{
		JWT:     custommw.JWTMiddlewareWithBlacklist(cfg.JWTSecret, blacklist),
		Auth:    authRateLimiter.Middleware(),
		Webhook: webhookRateLimiter.Middleware(),
		User:    userRateLimiter.Middleware(),
	})

	// Background jobs
	var cronManager *jobs.CronManager
	if cfg.FeatureCronJobs {
		monitor := jobs.NewMonitor(leadService, profiles, userService, dispatcher, emailService, redisClient, log.Default())
		cronManager = jobs.NewCronManager(outreachService, monitor, log.Default())
		if err := cronManager.SetupJobs(); err != nil {
			log.Fatalf("❌ Failed to schedule jobs: %v", err)
		}
		cronManager.Start()
	} else {
		log.Printf("ℹ️  Cron jobs disabled")
	}

	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 Levrix API starting on %s", address)
	log.Printf("🔐 JWT expiration: %d hours", cfg.JWTExpirationHours)
	log.Printf("🌍 CORS: %v", cfg.CORSAllowedOrigins)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	log.Printf("🔒 Auth endpoints: 5/min, webhooks: 100/min")

	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if cronManager != nil {
		cronManager.Stop()
		log.Println("✅ Cron jobs stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	for _, rl := range []*custommiddleware.RateLimiter{globalRateLimiter, userRateLimiter, authRateLimiter, webhookRateLimiter} {
		rl.Close()
	}

	log.Println("✅ Server gracefully stopped")
}
