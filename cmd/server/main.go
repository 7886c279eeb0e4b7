package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpapi "rentalshop-backend/internal/api/http"
	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/calendar"
	"rentalshop-backend/internal/config"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/jobs"
	"rentalshop-backend/internal/lock"
	"rentalshop-backend/internal/logger"
	"rentalshop-backend/internal/repository"
	"rentalshop-backend/internal/repository/memory"
	"rentalshop-backend/internal/repository/postgres"
	"rentalshop-backend/internal/scheduler"
	"rentalshop-backend/internal/security"
	"rentalshop-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting rental shop backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Repositories
	var (
		store  *repository.Store
		health func(ctx context.Context) error
	)
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		store = memory.NewStore()
		memory.AddShop(store, domain.Shop{ID: 1, Name: "Demo shop", Timezone: cfg.Booking.DefaultTimezone, Currency: "INR"})
	default:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString(), cfg.Database.ConnectRetries, cfg.Database.MaxOpenConns)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Info("Database connection established")

		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				log.Fatalf("Failed to migrate database: %v", err)
			}
			logger.Info("Database migrations applied")
		}
		store = postgres.NewStore(db)
		health = db.PingContext
	}

	// Initialize the per-shop booking lock
	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.Enabled {
		client, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		locker = lock.NewRedis(client, cfg.LockTTL(), cfg.LockTTL())
		logger.Info("Using Redis booking lock", "addr", cfg.Redis.Addr)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Initialize Services
	loc := cfg.DefaultLocation()
	bookingSvc := service.NewBookingService(store.Shops, store.Bookings, store.Vehicles, store.Customers, locker, booking.NewMachine(cfg.BackdateWindow()), loc)
	fleetSvc := service.NewFleetService(store.Shops, store.Vehicles, store.Bookings, store.Availability, loc)
	customerSvc := service.NewCustomerService(store.Customers)
	calendarSvc := service.NewCalendarService(store.Shops, store.Vehicles, store.Bookings,
		calendar.NewBuilder(cfg.Booking.MinSegmentWidthPct, cfg.Booking.MaxVisibleStacks), cfg.Booking.MaxCalendarDays, loc)
	reportSvc := service.NewReportService(store.Shops, store.Bookings, cfg.WeekStart(), loc)

	// Initialize HTTP handlers
	router := httpapi.NewRouter(httpapi.Handlers{
		Bookings:  httpapi.NewBookingHandler(bookingSvc),
		Fleet:     httpapi.NewFleetHandler(fleetSvc),
		Customers: httpapi.NewCustomerHandler(customerSvc),
		Calendar:  httpapi.NewCalendarHandler(calendarSvc, reportSvc),
		Health:    health,
	}, tokenManager)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	// Initialize Scheduler
	var cronScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobRunner := jobs.NewJobRunner(&jobs.Services{Bookings: bookingSvc, Fleet: fleetSvc}, cfg)
		cronScheduler, err = scheduler.NewScheduler(jobRunner)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		if cronScheduler != nil {
			cronScheduler.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped. Goodbye!")
}
