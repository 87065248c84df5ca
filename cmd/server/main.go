// Command server runs the event lifecycle service: the notification
// dispatcher, the scheduled reminder and retention jobs, and the operational
// HTTP endpoints.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventd/internal/api"
	"eventd/internal/config"
	"eventd/internal/jobs"
	"eventd/internal/notify"
	"eventd/internal/platform/logger"
	"eventd/internal/platform/postgres"
	"eventd/internal/scheduler"
	"eventd/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	zone, err := time.LoadLocation(cfg.Association.TimeZone)
	if err != nil {
		return fmt.Errorf("failed to load association time zone: %w", err)
	}

	db, err := openDatabase(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	if err := runMigrations(db, log); err != nil {
		return err
	}

	// Stores
	events := postgres.NewPostgresEventStore(db)
	users := postgres.NewPostgresUserDirectory(db)
	activity := postgres.NewPostgresActivityLogStore(db)
	ledger := postgres.NewPostgresReminderLedger(db)

	// Notification dispatcher
	gateway := notify.NewSMTPGateway(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, log)
	queue := notify.NewQueue(cfg.Notify.QueueSize, log)
	pool := notify.NewWorkerPool(queue, gateway, notify.WorkerPoolConfig{
		WorkerCount: cfg.Notify.Workers,
		SendTimeout: cfg.Notify.SendTimeout,
	}, log)
	pool.Start()

	eventService, err := service.NewEventService(
		events, users, activity, queue, cfg.Association.AdminEmail, log)
	if err != nil {
		return fmt.Errorf("failed to create event service: %w", err)
	}

	// Scheduled jobs
	reminderJob, err := jobs.NewReminderJob(events, users, ledger, queue, zone, log)
	if err != nil {
		return fmt.Errorf("failed to create reminder job: %w", err)
	}
	retentionJob, err := jobs.NewRetentionJob(activity, cfg.Retention.Days, log)
	if err != nil {
		return fmt.Errorf("failed to create retention job: %w", err)
	}

	sched := scheduler.New(zone, cfg.Scheduler.PollInterval, log)
	if err := sched.Register("event_reminder",
		scheduler.Daily{Hour: cfg.Reminder.Hour, Minute: cfg.Reminder.Minute},
		cfg.Reminder.MisfireGrace, reminderJob.Run); err != nil {
		return fmt.Errorf("failed to register reminder job: %w", err)
	}
	if err := sched.Register("activity_retention",
		scheduler.MonthlyOnDay{Day: cfg.Retention.Day, Hour: cfg.Retention.Hour, Minute: cfg.Retention.Minute},
		cfg.Retention.MisfireGrace, retentionJob.Run); err != nil {
		return fmt.Errorf("failed to register retention job: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	router := api.NewRouter(
		api.NewOpsHandler(db, sched, log),
		api.NewEventHandler(eventService, events, log),
	)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server failed", slog.String("error", err.Error()))
	}

	// Shutdown order: stop accepting HTTP, let running jobs drain, then flush
	// the notification queue so late job submissions still go out.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", slog.String("error", err.Error()))
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Scheduler.DrainTimeout)
	defer cancelDrain()
	sched.Stop(drainCtx)

	pool.Stop()

	log.Info("server shutdown completed")
	return nil
}
