package database

import (
	"context"
	"fmt"

	"github.com/cardwallet/backend/internal/infrastructure/clients/postgres"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id             TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		store_name     TEXT NOT NULL,
		code           TEXT NOT NULL,
		barcode_type   TEXT NOT NULL,
		shop_locations JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_owner_id ON cards(owner_id)`,
	`CREATE TABLE IF NOT EXISTS shares (
		owner_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		target_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		owner_email  TEXT NOT NULL,
		target_email TEXT NOT NULL,
		added_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (owner_id, target_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shares_target_id ON shares(target_id)`,
}

// InitSchema creates the wallet tables if they do not exist
func InitSchema(ctx context.Context, client *postgres.Client) error {
	for _, stmt := range schemaStatements {
		if _, err := client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
