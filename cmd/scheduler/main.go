// Package main runs the periodic payout maintenance loops: the retry tick
// for failed submissions and the reconciliation tick that corrects drift
// against the processor. It is deployed separately from the API server so
// slow batches never compete with request handling.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paydesk/internal/config"
	"paydesk/internal/events"
	"paydesk/internal/processor"
	"paydesk/internal/repositories"
	"paydesk/internal/services/payout"
	"paydesk/internal/services/reconciliation"
	"paydesk/internal/services/scheduler"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	transactionRepo := repositories.NewTransactionRepository(repositories.DB)

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
	defer publisher.Close()

	schedulerService := scheduler.NewService(
		transactionRepo,
		client,
		repositories.CacheService,
		publisher,
		payout.NoopMetricsCollector{},
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
		payout.NoopMetricsCollector{},
		reconciliation.Config{
			BatchSize: config.GetIntEnv("RECONCILIATION_BATCH_SIZE", reconciliation.DefaultBatchSize),
		},
	)

	retryInterval := config.GetDurationEnv("RETRY_TICK_INTERVAL", time.Minute)
	reconcileInterval := config.GetDurationEnv("RECONCILIATION_TICK_INTERVAL", 5*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ticker := time.NewTicker(retryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				summary, err := schedulerService.ProcessRetries(ctx)
				if err != nil {
					log.Printf("retry tick failed: %v", err)
					continue
				}
				if summary.Processed > 0 {
					log.Printf("retry tick: processed=%d succeeded=%d failed=%d",
						summary.Processed, summary.Succeeded, summary.Failed)
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(reconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				summary, err := reconciliationService.ReconcileAllPending(ctx)
				if err != nil {
					log.Printf("reconciliation tick failed: %v", err)
					continue
				}
				if summary.Checked > 0 {
					log.Printf("reconciliation tick: checked=%d reconciled=%d discrepant=%d",
						summary.Checked, summary.Reconciled, summary.Discrepant)
				}
			}
		}
	}()

	log.Printf("scheduler running: retries every %s, reconciliation every %s", retryInterval, reconcileInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")
}
