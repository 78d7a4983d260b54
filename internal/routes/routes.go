// Package routes wires repositories, services and handlers onto the fiber
// app. It is the composition root: all configuration is read here and
// injected, never inside business logic.
package routes

import (
	"paydesk/internal/config"
	"paydesk/internal/events"
	"paydesk/internal/handlers"
	"paydesk/internal/middleware"
	"paydesk/internal/models"
	"paydesk/internal/processor"
	"paydesk/internal/repositories"
	"paydesk/internal/services/payout"
	"paydesk/internal/services/reconciliation"
	"paydesk/internal/services/scheduler"
	"paydesk/internal/services/webhook"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	transactionRepo := repositories.NewTransactionRepository(db)
	webhookRepo := repositories.NewWebhookEventRepository(db)
	fundAccountRepo := repositories.NewFundAccountRepository(db)

	client := processor.NewHTTPClient(processor.Config{
		BaseURL:       config.GetEnv("PROCESSOR_BASE_URL", "https://api.processor.test"),
		KeyID:         config.GetEnv("PROCESSOR_KEY_ID", ""),
		KeySecret:     config.GetEnv("PROCESSOR_KEY_SECRET", ""),
		AccountNumber: config.GetEnv("PROCESSOR_ACCOUNT_NUMBER", ""),
		WebhookSecret: config.GetEnv("PROCESSOR_WEBHOOK_SECRET", ""),
		Timeout:       config.GetDurationEnv("PROCESSOR_TIMEOUT", 0),
	})

	var publisher events.Publisher = events.NoopPublisher{}
	if broker := config.GetEnv("KAFKA_BROKER", ""); broker != "" {
		publisher = events.NewKafkaPublisher(broker, config.GetEnv("KAFKA_TOPIC", "payout-transitions"))
	}

	metrics := payout.NewPrometheusCollector()

	payoutService := payout.NewService(
		transactionRepo,
		fundAccountRepo,
		client,
		repositories.CacheService,
		publisher,
		metrics,
		payout.Config{
			MaxRetries:        config.GetIntEnv("PAYOUT_MAX_RETRIES", payout.DefaultMaxRetries),
			InitialRetryDelay: config.GetDurationEnv("PAYOUT_INITIAL_RETRY_DELAY", payout.DefaultInitialRetryDelay),
			BackoffMultiplier: payout.DefaultBackoffMultiplier,
			MaxRetryDelay:     config.GetDurationEnv("PAYOUT_MAX_RETRY_DELAY", payout.DefaultMaxRetryDelay),
		},
	)

	webhookService := webhook.NewService(
		transactionRepo,
		webhookRepo,
		client,
		repositories.CacheService,
		publisher,
		metrics,
	)

	schedulerService := scheduler.NewService(
		transactionRepo,
		client,
		repositories.CacheService,
		publisher,
		metrics,
		scheduler.Config{
			BatchSize:         config.GetIntEnv("RETRY_BATCH_SIZE", scheduler.DefaultBatchSize),
			InitialDelay:      config.GetDurationEnv("PAYOUT_INITIAL_RETRY_DELAY", scheduler.DefaultInitialDelay),
			BackoffMultiplier: scheduler.DefaultBackoffMultiplier,
			MaxDelay:          config.GetDurationEnv("PAYOUT_MAX_RETRY_DELAY", scheduler.DefaultMaxDelay),
		},
	)

	reconciliationService := reconciliation.NewService(
		transactionRepo,
		client,
		repositories.CacheService,
		publisher,
		metrics,
		reconciliation.Config{
			BatchSize: config.GetIntEnv("RECONCILIATION_BATCH_SIZE", reconciliation.DefaultBatchSize),
		},
	)

	payoutHandler := handlers.NewPayoutHandler(payoutService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	operationsHandler := handlers.NewOperationsHandler(schedulerService, reconciliationService)

	auth := middleware.NewAuthMiddleware(config.GetEnv("JWT_SECRET", "paydesk"))

	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Webhook ingress authenticates by HMAC signature, not JWT.
	app.Post("/api/webhooks/payouts", webhookHandler.HandlePayoutEvent)

	api := app.Group("/api", auth.Handler)

	payouts := api.Group("/payouts")
	payouts.Post("/", middleware.RequirePermission(models.PermissionPayoutWrite), payoutHandler.Initiate)
	payouts.Get("/stats", middleware.RequirePermission(models.PermissionPayoutRead), payoutHandler.Stats)
	payouts.Get("/:id", middleware.RequirePermission(models.PermissionPayoutRead), payoutHandler.Get)
	payouts.Get("/", middleware.RequirePermission(models.PermissionPayoutRead), payoutHandler.List)
	payouts.Post("/:id/cancel", middleware.RequirePermission(models.PermissionPayoutWrite), payoutHandler.Cancel)

	operations := api.Group("/operations", middleware.RequirePermission(models.PermissionOperationsRun))
	operations.Post("/retries", operationsHandler.RunRetries)
	operations.Post("/reconciliation", operationsHandler.RunReconciliation)
}
