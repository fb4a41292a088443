package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/cache"
	"github.com/SAP-F-2025/lms-service/internal/config"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/handlers"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/lms-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/storage"
	"github.com/SAP-F-2025/lms-service/internal/utils"
	"github.com/SAP-F-2025/lms-service/internal/validator"
	"github.com/SAP-F-2025/lms-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	identity := casdoor.NewIdentityCasdoor(casdoor.CasdoorConfig{
		Endpoint:         cfg.Casdoor.Endpoint,
		ClientID:         cfg.Casdoor.ClientID,
		ClientSecret:     cfg.Casdoor.ClientSecret,
		Certificate:      cfg.Casdoor.Cert,
		OrganizationName: cfg.Casdoor.Organization,
		ApplicationName:  cfg.Casdoor.Application,
	}, slogLogger)

	blobs, closeBlobs, err := newBlobStore(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	bus, err := newChangeBus(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize change bus: %v", err)
	}

	roles := auth.NewRoleResolver(
		auth.RoleSourceFunc(func(ctx context.Context, userID string) (models.UserRole, error) {
			return repo.User().GetRole(ctx, nil, userID)
		}),
		cache.NewCacheManager(redisClient).Role,
		slogLogger,
	)

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      repo,
		Identity:  identity,
		Blobs:     blobs,
		Changes:   bus,
		Roles:     roles,
		Validator: validator.New(cfg.AllowedEmailDomains),
		Logger:    slogLogger,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, bus, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.CORSOrigins)
	handlerManager.SetupRoutes(router)
	if local, ok := blobs.(*storage.MemoryStore); ok {
		handlerManager.SetupBlobRoutes(router, local)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Closing the bus ends open watch streams so the server can drain.
	if err := bus.Close(); err != nil {
		logger.Error("Failed to close change bus", "error", err)
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := closeBlobs(); err != nil {
		logger.Error("Failed to close blob storage", "error", err)
	}

	// Closes the database and redis connections
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	logger.Info("Server exited")
}

// newBlobStore uses Google Cloud Storage when a bucket is configured and an
// in-memory store otherwise.
func newBlobStore(cfg *config.Config, logger *slog.Logger) (storage.BlobStore, func() error, error) {
	if cfg.Storage.Bucket == "" {
		if cfg.IsProduction() {
			return nil, nil, fmt.Errorf("GCS_BUCKET_NAME is required in production")
		}
		logger.Warn("GCS_BUCKET_NAME not set, uploads are kept in memory")
		baseURL := cfg.Storage.PublicBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%s/blobs", cfg.Port)
		}
		return storage.NewMemoryStore(baseURL), func() error { return nil }, nil
	}

	store, err := storage.NewGCSStore(context.Background(), storage.GCSConfig{
		Bucket:          cfg.Storage.Bucket,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		CredentialsJSON: cfg.Storage.CredentialsJSON,
		EmulatorHost:    cfg.Storage.EmulatorHost,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// newChangeBus uses Kafka when brokers are configured so every instance sees
// every change.
func newChangeBus(cfg *config.Config, logger *slog.Logger) (*events.Bus, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewInProcessBus(logger), nil
	}
	return events.NewKafkaBus(cfg.Kafka.Brokers, logger)
}
