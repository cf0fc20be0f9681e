package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cagnotte/api"
	"cagnotte/application"
	"cagnotte/config"
	"cagnotte/database"
	"cagnotte/domain"
	"cagnotte/domain/services"
	"cagnotte/events"
	"cagnotte/infrastructure"
	"cagnotte/infrastructure/observability"
	"cagnotte/repository"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	log.Info("Starting cagnotte service...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics := observability.GetMetrics()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize event bus, optionally bridged to NATS
	eventBus := events.NewBus()
	application.RegisterEventMetrics(eventBus, metrics)
	var (
		publisher  events.Publisher     = eventBus
		feed       domain.PotChangeFeed = eventBus
		natsClient *infrastructure.NATSClient
	)
	if cfg.NATSEnabled {
		log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		mapper := infrastructure.NewEventSubjectMapper()
		if err := natsClient.EnsureCagnotteEventStream(mapper); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}

		publisher = infrastructure.NewNATSEventPublisher(natsClient, mapper, eventBus, metrics)
		feed = infrastructure.NewNATSPotFeed(natsClient, mapper)
		log.Info("NATS event publishing enabled")
	}

	// Initialize unit of work factory and application service
	uowFactory := repository.NewUnitOfWorkFactory(db, publisher)
	app := application.NewCagnotteApp(uowFactory, services.CagnotteServiceConfig{
		PotDuration:                  cfg.PotDuration,
		RequireParticipantsForPayout: cfg.RequireParticipantsForPayout,
		ShareBaseURL:                 cfg.ShareBaseURL,
	}, metrics)

	// Start deadline watcher
	worker := application.NewDeadlineWorker(uowFactory, cfg.DeadlineSweepInterval, time.Now, metrics)
	stopWorker, err := worker.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start deadline worker: %w", err)
	}
	defer stopWorker()

	// Initialize HTTP server
	handler := api.NewHandler(app, feed, cfg.ShareBaseURL)
	handler.AddHealthCheck("database", db.Ping)
	if natsClient != nil {
		handler.AddHealthCheck("nats", func(context.Context) error {
			if !natsClient.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		})
	}
	server := api.NewServer(api.ServerConfig{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.CORSOrigins,
		Production:     cfg.IsProduction(),
	}, handler, api.NewIdentityVerifier(cfg.JWTSecret, cfg.JWTIssuer))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.WithField("environment", cfg.Environment).Info("Cagnotte service is running")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	// Cleanup resources
	log.Info("Shutting down cagnotte service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

func configureLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
