package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/cardwallet/backend/pkg/config"
	"github.com/cardwallet/backend/pkg/retry"
)

const (
	CardsCollection = "cards"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(ctx, retry.DefaultConfig(), "Typesense",
		func() error {
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// CardsSchema is the collection layout for wallet cards.
func CardsSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: CardsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "card_id", Type: "string"},
			{Name: "owner_id", Type: "string", Facet: pointer.True()},
			{Name: "store_name", Type: "string"},
			{Name: "barcode_type", Type: "string", Facet: pointer.True()},
			{Name: "locations", Type: "geopoint[]", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}
}

// InitSchema ensures the cards collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == CardsCollection {
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, CardsSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", CardsCollection).Msg("Created Typesense collection")
	return nil
}

// DropSchema removes the cards collection; used by the reindex command
func (c *Client) DropSchema(ctx context.Context) error {
	_, err := c.client.Collection(CardsCollection).Delete(ctx)
	return err
}
