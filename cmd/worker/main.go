package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fintra/internal/config"
	"fintra/internal/database"
	"fintra/internal/insights"
	"fintra/internal/logger"
	"fintra/internal/mailer"
	"fintra/internal/queue"
	"fintra/internal/scheduler"
	"fintra/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is required for the worker")
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	statsService := services.NewStatsService(db)
	recurringService := services.NewRecurringService(db, accountService)
	sender := mailer.NewSMTPSender(appConfig)
	alertService := services.NewAlertService(db, statsService, sender)
	generator := insights.NewGenerator(insights.NewGeminiClient(appConfig.GeminiAPIKey, appConfig.GeminiModel))
	reportService := services.NewReportService(db, statsService, generator, sender)

	queueClient, err := queue.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
	if err != nil {
		return fmt.Errorf("failed to initialize queue client: %w", err)
	}
	defer queueClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(
		recurringService,
		alertService,
		reportService,
		queueClient,
		appConfig.BudgetAlertInterval,
		appConfig.RecurringTickInterval,
	)

	go func() {
		if err := sched.Run(ctx); err != nil && err != context.Canceled {
			log.Errorw("scheduler stopped", "error", err)
			cancel()
		}
	}()

	throttle := scheduler.NewThrottle(appConfig.RecurringUserConcurrent)
	go func() {
		err := queueClient.Consume(ctx, func(ctx context.Context, item queue.RecurringWorkItem) error {
			if err := throttle.Acquire(ctx, item.UserID); err != nil {
				return err
			}
			defer throttle.Release(item.UserID)
			return recurringService.ApplyRecurrence(ctx, item.TransactionID, item.UserID)
		})
		if err != nil && err != context.Canceled {
			log.Errorw("work item consumption failed", "error", err)
			cancel()
		}
	}()

	log.Info("Fintra worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infow("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	cancel()
	log.Info("Fintra worker stopped")
	return nil
}
