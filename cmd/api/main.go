package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/cardwallet/backend/internal/adapters/cache"
	"github.com/cardwallet/backend/internal/adapters/database"
	"github.com/cardwallet/backend/internal/adapters/events"
	"github.com/cardwallet/backend/internal/adapters/providers/geolocation"
	"github.com/cardwallet/backend/internal/adapters/search"
	"github.com/cardwallet/backend/internal/api/handlers"
	"github.com/cardwallet/backend/internal/api/routes"
	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/domain/providers"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/clients/postgres"
	"github.com/cardwallet/backend/internal/infrastructure/clients/redis"
	"github.com/cardwallet/backend/internal/infrastructure/clients/typesense"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	"github.com/cardwallet/backend/pkg/config"
)

const memoryCacheSize = 10000

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env, cfg.Server.LogLevel)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			observability.EnableOTelLogExport()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := database.InitSchema(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database schema")
	}

	// Redis backs the cache and the event bus. Without it the cache stays
	// in process and no events are published.
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient.Client())
			eventBus = events.NewRedisEventBus(redisClient.Client())
		}
	}
	if cacheProvider == nil {
		memory, err := cache.NewMemoryAdapter(memoryCacheSize)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create in-memory cache")
		}
		cacheProvider = memory
	}

	var searchRepo repositories.CardSearchRepository
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, search falls back to substring matching")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		} else {
			searchRepo = search.NewTypesenseCardIndex(tsClient)
		}
	}

	// Initialize adapters
	cardAdapter := database.NewCachedCardAdapter(database.NewCardAdapter(pgClient), cacheProvider, cfg.Cache.CardListTTL, metrics)
	userAdapter := database.NewUserAdapter(pgClient)
	shareAdapter := database.NewShareAdapter(pgClient)

	positionProvider := geolocation.NewPositionProvider(&cfg.Geolocation, cacheProvider)
	log.Info().Str("provider", positionProvider.Name()).Msg("Position provider configured")

	// Shared lists are only invalidated through events
	sharedListTTL := cfg.Cache.CardListTTL
	if eventBus == nil {
		sharedListTTL = 0
	}

	// Initialize services
	cardService := services.NewCardService(
		cardAdapter,
		shareAdapter,
		searchRepo,
		cacheProvider,
		eventBus,
		positionProvider,
		services.CardServiceConfig{
			DuplicateThresholdMeters: cfg.Geolocation.DuplicateThresholdMeters,
			PositionTimeout:          cfg.Geolocation.Timeout,
			SharedListTTL:            sharedListTTL,
		},
		metrics,
	)
	nearestService := services.NewNearestCardService(cardService, positionProvider, cfg.Geolocation.Timeout, metrics)
	shareService := services.NewShareService(shareAdapter, userAdapter, eventBus)
	profileService := services.NewProfileService(userAdapter, shareAdapter)
	authService := services.NewAuthService(userAdapter, cacheProvider, services.AuthConfig{
		SessionTTL:       cfg.Auth.SessionTTL,
		BcryptCost:       cfg.Auth.BcryptCost,
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockoutWindow:    cfg.Auth.LockoutWindow,
	})

	walletEvents := services.NewWalletEventService(eventBus, shareAdapter)

	var invalidation *services.CacheInvalidationService
	if eventBus != nil {
		invalidation = services.NewCacheInvalidationService(cacheProvider, eventBus, shareAdapter)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
			invalidation = nil
		} else {
			log.Info().Msg("Cache invalidation service started")
		}
	}

	// Set up router
	router := routes.NewRouter(routes.Dependencies{
		AuthHandler:    handlers.NewAuthHandler(authService),
		ProfileHandler: handlers.NewProfileHandler(profileService),
		CardHandler:    handlers.NewCardHandler(cardService),
		NearestHandler: handlers.NewNearestHandler(nearestService),
		ShareHandler:   handlers.NewShareHandler(shareService),
		StreamHandler:  handlers.NewStreamHandler(walletEvents),
		Tokens:         authService,
		CardRepo:       cardAdapter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metrics,
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	// Ends open event streams so Shutdown does not wait on them
	server.RegisterOnShutdown(cancel)

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if invalidation != nil {
		invalidation.Stop()
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
