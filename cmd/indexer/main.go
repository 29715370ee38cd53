package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/cardwallet/backend/internal/adapters/cache"
	"github.com/cardwallet/backend/internal/adapters/database"
	"github.com/cardwallet/backend/internal/adapters/search"
	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/infrastructure/clients/postgres"
	"github.com/cardwallet/backend/internal/infrastructure/clients/redis"
	"github.com/cardwallet/backend/internal/infrastructure/clients/typesense"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	"github.com/cardwallet/backend/pkg/config"
)

const pageSize = 500

func main() {
	var reset bool
	var flushCache bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.BoolVar(&flushCache, "flush-cache", false, "drop cached card lists after reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-indexer", cfg.Server.Env, cfg.Server.LogLevel)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset || os.Getenv("RESET_TYPESENSE") == "true"); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		} else if flushCache {
			if err := flushCardLists(ctx, cfg); err != nil {
				log.Error().Err(err).Msg("Cache flush failed")
			}
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("interval", interval).Msg("Reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset {
		log.Info().Str("collection", typesense.CardsCollection).Msg("Deleting collection before reindex")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}
	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	catalog := database.NewCardCatalog(pgClient)
	index := search.NewTypesenseCardIndex(tsClient)

	indexed, failed := 0, 0
	afterID := ""
	for {
		cards, err := catalog.ListPage(ctx, afterID, pageSize)
		if err != nil {
			return err
		}
		for _, card := range cards {
			if err := index.Index(ctx, card); err != nil {
				failed++
				log.Warn().Err(err).Str("card_id", card.ID).Msg("Failed to index card")
				continue
			}
			indexed++
		}
		if len(cards) < pageSize {
			break
		}
		afterID = cards[len(cards)-1].ID
	}

	log.Info().Int("indexed", indexed).Int("failed", failed).Msg("Indexing complete")
	return nil
}

func flushCardLists(ctx context.Context, cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		return nil
	}
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	invalidation := services.NewCacheInvalidationService(cache.NewRedisAdapter(redisClient.Client()), nil, nil)
	if err := invalidation.InvalidateAll(ctx); err != nil {
		return err
	}
	log.Info().Msg("Cached card lists flushed")
	return nil
}
