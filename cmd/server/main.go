package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcstatus/internal/config"
	"mcstatus/internal/database"
	"mcstatus/internal/discord"
	"mcstatus/internal/handlers"
	"mcstatus/internal/jobs"
	"mcstatus/internal/logging"
	"mcstatus/internal/preflight"
	"mcstatus/internal/probe"
	"mcstatus/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// storage bundles the stores of the selected backend
type storage struct {
	name     string
	presence services.PresenceStore
	refs     services.ArtifactRefStore
	pinger   services.Pinger
	close    func(ctx context.Context) error
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Minecraft status bot...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Server: %s, Interval: %dm, Retention: %dd, Storage: %s)",
		cfg.ServerAddress, cfg.UpdateIntervalMinutes, cfg.RecentPlayerDays, cfg.StorageBackend)

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open %s storage: %v", cfg.StorageBackend, err)
	}

	discordClient := discord.NewClient(cfg.DiscordAPIURL, cfg.DiscordToken)

	// Run preflight checks
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	checker := preflight.NewChecker(store.pinger, store.name, discordClient, cfg.ChannelID, cfg.CronExpression())
	results := checker.RunAll(startupCtx)
	cancelStartup()

	if preflight.HasFailures(results) {
		log.Println("❌ Pre-flight checks failed. Please fix the issues above before starting the bot.")
		closeStorage(store)
		os.Exit(1)
	}
	log.Println("✅ All pre-flight checks passed")

	// Initialize services
	metrics := services.NewMetrics(prometheus.DefaultRegisterer)
	prober := probe.NewDefaultProber(metrics)
	fetcher := services.NewStatusFetcher(services.NewStatusAPIClient(cfg.StatusAPIURL), prober)
	tracker := services.NewPresenceTracker(store.presence, metrics)
	view := services.NewRecentlySeenCache(tracker, services.DefaultRecentlySeenTTL, time.Now)
	reconciler := services.NewReconciler(
		services.NewDiscordChannel(discordClient, cfg.ChannelID),
		store.refs,
		cfg.ServerAddress,
		metrics,
	)

	statusJob := jobs.NewStatusSyncJob(
		cfg.ServerAddress,
		cfg.RetentionWindow(),
		fetcher,
		tracker,
		view,
		services.NewEmbedRenderer(),
		reconciler,
		metrics,
	)

	schedulerService, err := services.NewSchedulerService(cfg.CronExpression(), statusJob)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	if err := schedulerService.Start(rootCtx); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "mcstatus",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		DisableStartupMessage: cfg.Environment == "production",
	})

	app.Use(recover.New())

	// Prometheus metrics middleware
	fiberMetrics := fiberprometheus.New("mcstatus")
	fiberMetrics.RegisterAt(app, "/metrics")
	app.Use(fiberMetrics.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	healthHandler := handlers.NewHealthHandler(statusJob, schedulerService, cfg.PollInterval())
	statusHandler := handlers.NewStatusHandler(statusJob)

	app.Get("/health", healthHandler.Handle)
	app.Get("/api/status", statusHandler.Get)

	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down...")

		if err := schedulerService.Stop(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}
		cancelRoot()

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ Failed to start server: %v", err)
		_ = schedulerService.Stop()
		closeStorage(store)
		os.Exit(1)
	}

	closeStorage(store)
	log.Println("👋 Stopped")
}

// openStorage connects the configured backend and builds its stores
func openStorage(cfg *config.Config) (*storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cfg.StorageBackend {
	case config.StorageMongo:
		db, err := database.NewMongoDB(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		if err := db.Initialize(ctx); err != nil {
			_ = db.Close(context.Background())
			return nil, err
		}
		return &storage{
			name:     "mongo",
			presence: services.NewMongoPresenceStore(db),
			refs:     services.NewMongoArtifactRefStore(db),
			pinger:   db,
			close:    db.Close,
		}, nil

	case config.StorageRedis:
		redisService, err := services.NewRedisService(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &storage{
			name:     "redis",
			presence: services.NewRedisPresenceStore(redisService),
			refs:     services.NewRedisArtifactRefStore(redisService),
			pinger:   redisService,
			close:    redisService.Close,
		}, nil

	case config.StorageFile:
		db, err := database.NewFileDB(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			name:     "file",
			presence: services.NewFilePresenceStore(db),
			refs:     services.NewFileArtifactRefStore(db),
			pinger:   db,
			close:    db.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func closeStorage(store *storage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.close(ctx); err != nil {
		log.Printf("⚠️ Error closing %s storage: %v", store.name, err)
	}
}
