package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/config"
	"rentalshop-backend/internal/jobs"
	"rentalshop-backend/internal/lock"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/repository/postgres"
	"rentalshop-backend/internal/scheduler"
	"rentalshop-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'backfill-invoices', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("The cronjob runner needs the postgres driver, got %q", cfg.Database.Driver)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting rental shop cronjob runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString(), cfg.Database.ConnectRetries, cfg.Database.MaxOpenConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Jobs take the same shop lock as the API
	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.Enabled {
		client, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		locker = lock.NewRedis(client, cfg.LockTTL(), cfg.LockTTL())
	}

	// Initialize Services
	loc := cfg.DefaultLocation()
	jobServices := &jobs.Services{
		Bookings: service.NewBookingService(store.Shops, store.Bookings, store.Vehicles, store.Customers, locker, booking.NewMachine(cfg.BackdateWindow()), loc),
		Fleet:    service.NewFleetService(store.Shops, store.Vehicles, store.Bookings, store.Availability, loc),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "backfill-invoices":
		jobRunner.BackfillInvoices()
	case "purge-stale-overrides":
		jobRunner.PurgeStaleOverrides()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - backfill-invoices\n")
		fmt.Printf("  - purge-stale-overrides\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
