package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/cardwallet/backend/internal/adapters/cache"
	"github.com/cardwallet/backend/internal/adapters/database"
	"github.com/cardwallet/backend/internal/application/services"
	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/infrastructure/clients/postgres"
	"github.com/cardwallet/backend/internal/infrastructure/observability"
	"github.com/cardwallet/backend/pkg/config"
	"github.com/cardwallet/backend/pkg/geo"
)

const demoPassword = "wallet-demo"

type demoWallet struct {
	email string
	cards []services.AddCardInput
}

var demoWallets = []demoWallet{
	{
		email: "anna@example.com",
		cards: []services.AddCardInput{
			{StoreName: "Corner Bakery", Code: "400638133393", BarcodeType: "EAN13", ShopLocations: []geo.Coordinate{
				{Lat: 52.5200, Lng: 13.4050},
				{Lat: 52.5163, Lng: 13.3777},
			}},
			{StoreName: "Green Grocer", Code: "GG-2231-88", BarcodeType: "CODE128", ShopLocations: []geo.Coordinate{
				{Lat: 53.5511, Lng: 9.9937},
			}},
			{StoreName: "City Library", Code: "https://library.example.com/member/1182", BarcodeType: "QRCODE"},
		},
	},
	{
		email: "ben@example.com",
		cards: []services.AddCardInput{
			{StoreName: "Hardware Depot", Code: "HD 7781", BarcodeType: "CODE39", ShopLocations: []geo.Coordinate{
				{Lat: 48.1351, Lng: 11.5820},
			}},
			{StoreName: "Book Nook", Code: "9638507", BarcodeType: "EAN8", ShopLocations: []geo.Coordinate{
				{Lat: 48.8566, Lng: 2.3522},
			}},
		},
	},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Server.Env, cfg.Server.LogLevel)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE shares, cards, users CASCADE`); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}
	if err := database.InitSchema(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}

	memory, err := cache.NewMemoryAdapter(128)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cache")
	}

	users := database.NewUserAdapter(pgClient)
	shares := database.NewShareAdapter(pgClient)
	auth := services.NewAuthService(users, memory, services.AuthConfig{BcryptCost: cfg.Auth.BcryptCost})
	cards := services.NewCardService(database.NewCardAdapter(pgClient), shares, nil, nil, nil, nil, services.CardServiceConfig{
		DuplicateThresholdMeters: cfg.Geolocation.DuplicateThresholdMeters,
	}, nil)
	sharing := services.NewShareService(shares, users, nil)

	owners := make([]*entities.User, 0, len(demoWallets))
	for _, wallet := range demoWallets {
		user, _, err := auth.Register(ctx, wallet.email, demoPassword)
		if err != nil {
			log.Warn().Err(err).Str("email", wallet.email).Msg("Skipping user")
			continue
		}
		owners = append(owners, user)

		for _, input := range wallet.cards {
			if _, err := cards.AddCard(ctx, user.ID, input); err != nil {
				log.Warn().Err(err).Str("store", input.StoreName).Msg("Failed to add card")
			}
		}
		log.Info().Str("email", wallet.email).Int("cards", len(wallet.cards)).Msg("Seeded wallet")
	}

	if len(owners) == 2 {
		if _, err := sharing.AddShare(ctx, owners[0].ID, owners[1].Email); err != nil {
			log.Warn().Err(err).Msg("Failed to share demo wallet")
		}
	}

	log.Info().Str("password", demoPassword).Msg("Seeding complete")
}
