package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pawhaven/service-booking/internal/application"
	"github.com/pawhaven/service-booking/internal/config"
	bookingDomain "github.com/pawhaven/service-booking/internal/domain/booking"
	bookingEvents "github.com/pawhaven/service-booking/internal/events"
	"github.com/pawhaven/service-booking/internal/handler"
	"github.com/pawhaven/service-booking/internal/pkg/auth"
	"github.com/pawhaven/service-booking/internal/pkg/database"
	"github.com/pawhaven/service-booking/internal/pkg/health"
	"github.com/pawhaven/service-booking/internal/pkg/kafka"
	"github.com/pawhaven/service-booking/internal/pkg/logger"
	"github.com/pawhaven/service-booking/internal/pkg/middleware"
	"github.com/pawhaven/service-booking/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Resolve the facility time zone; "today" for availability checks and
	// cancellation cutoffs is anchored here.
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Fatal("invalid timezone", zap.String("timezone", cfg.TimeZone), zap.Error(err))
	}

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.BookingModel{}, &repository.PetModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, 15*time.Minute)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	petRepo := repository.NewGormPetRepository(db)

	// Initialize the domain engines over the static service catalog
	catalog := bookingDomain.DefaultCatalog()
	pricingEngine := bookingDomain.NewPricingEngine(catalog)

	// Initialize application services
	availabilityService := application.NewAvailabilityService(catalog, bookingRepo, loc, log)
	bookingService := application.NewBookingService(
		bookingRepo,
		petRepo,
		catalog,
		pricingEngine,
		availabilityService,
		kafkaProducer,
		log,
	)
	petService := application.NewPetService(petRepo, log)

	// Start the care event consumer in a goroutine; it completes bookings
	// when the care scheduler reports the service delivered.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "service-booking"
	careConsumer := bookingEvents.NewCareEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = careConsumer.Close() }()

	go func() {
		log.Info("starting care event consumer")
		if err := careConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("care event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService, availabilityService)
	petHandler := handler.NewPetHandler(petService)
	adminBookingHandler := handler.NewAdminBookingHandler(bookingService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	petHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminBookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
