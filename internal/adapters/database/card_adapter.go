package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/cardwallet/backend/pkg/errors"
	"github.com/cardwallet/backend/pkg/geo"
)

var cardColumns = []interface{}{
	"id", "owner_id", "store_name", "code", "barcode_type",
	"shop_locations", "created_at", "updated_at",
}

// CardAdapter implements the CardRepository interface
type CardAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCardAdapter creates a new card adapter
func NewCardAdapter(client *postgres.Client) repositories.CardRepository {
	return &CardAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// NewCardCatalog creates a card adapter for walking the whole table
func NewCardCatalog(client *postgres.Client) repositories.CardCatalog {
	return &CardAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func encodeLocations(locations []geo.Coordinate) ([]byte, error) {
	if locations == nil {
		locations = []geo.Coordinate{}
	}
	return json.Marshal(locations)
}

// Create stores a new card
func (a *CardAdapter) Create(ctx context.Context, card *entities.Card) error {
	locations, err := encodeLocations(card.ShopLocations)
	if err != nil {
		return apperrors.NewInternalError("failed to encode shop locations", err)
	}

	query, args, err := a.db.Insert("cards").Rows(goqu.Record{
		"id":             card.ID,
		"owner_id":       card.OwnerID,
		"store_name":     card.StoreName,
		"code":           card.Code,
		"barcode_type":   string(card.BarcodeType),
		"shop_locations": string(locations),
		"created_at":     card.CreatedAt,
		"updated_at":     card.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build card insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create card", err)
	}
	return nil
}

// GetByID retrieves a card owned by ownerID
func (a *CardAdapter) GetByID(ctx context.Context, ownerID, id string) (*entities.Card, error) {
	query, args, err := a.db.Select(cardColumns...).
		From("cards").
		Where(goqu.Ex{"id": id, "owner_id": ownerID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	card, err := scanCard(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("card with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get card", err)
	}
	return card, nil
}

// ListByOwner retrieves all cards of a user, newest first
func (a *CardAdapter) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Card, error) {
	query, args, err := a.db.Select(cardColumns...).
		From("cards").
		Where(goqu.Ex{"owner_id": ownerID}).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryCards(ctx, query, args)
}

// ListByOwners retrieves the cards of several users keyed by owner id
func (a *CardAdapter) ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]*entities.Card, error) {
	result := make(map[string][]*entities.Card, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return result, nil
	}

	query, args, err := a.db.Select(cardColumns...).
		From("cards").
		Where(goqu.Ex{"owner_id": ownerIDs}).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	cards, err := a.queryCards(ctx, query, args)
	if err != nil {
		return nil, err
	}
	for _, card := range cards {
		result[card.OwnerID] = append(result[card.OwnerID], card)
	}
	return result, nil
}

// UpdateLocations replaces the shop locations of a card
func (a *CardAdapter) UpdateLocations(ctx context.Context, ownerID, id string, locations []geo.Coordinate) error {
	encoded, err := encodeLocations(locations)
	if err != nil {
		return apperrors.NewInternalError("failed to encode shop locations", err)
	}

	query, args, err := a.db.Update("cards").
		Set(goqu.Record{
			"shop_locations": string(encoded),
			"updated_at":     time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id, "owner_id": ownerID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build card update query", err)
	}

	return a.execAffectingOne(ctx, query, args, id, "failed to update card locations")
}

// Delete removes a card
func (a *CardAdapter) Delete(ctx context.Context, ownerID, id string) error {
	query, args, err := a.db.Delete("cards").
		Where(goqu.Ex{"id": id, "owner_id": ownerID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build card delete query", err)
	}

	return a.execAffectingOne(ctx, query, args, id, "failed to delete card")
}

// ListPage returns the next page of cards in id order
func (a *CardAdapter) ListPage(ctx context.Context, afterID string, limit int) ([]*entities.Card, error) {
	if limit <= 0 {
		limit = 500
	}
	ds := a.db.Select(cardColumns...).From("cards")
	if afterID != "" {
		ds = ds.Where(goqu.C("id").Gt(afterID))
	}
	query, args, err := ds.Order(goqu.I("id").Asc()).Limit(uint(limit)).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}
	return a.queryCards(ctx, query, args)
}

func (a *CardAdapter) execAffectingOne(ctx context.Context, query string, args []interface{}, id, failure string) error {
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError(failure, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError(failure, err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("card with id %s not found", id))
	}
	return nil
}

func (a *CardAdapter) queryCards(ctx context.Context, query string, args []interface{}) ([]*entities.Card, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list cards", err)
	}
	defer rows.Close()

	cards := []*entities.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan card", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate cards", err)
	}
	return cards, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCard(row rowScanner) (*entities.Card, error) {
	card := &entities.Card{}
	var barcodeType string
	var locations []byte

	err := row.Scan(
		&card.ID,
		&card.OwnerID,
		&card.StoreName,
		&card.Code,
		&barcodeType,
		&locations,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.BarcodeType = entities.BarcodeType(barcodeType)
	if len(locations) > 0 {
		if err := json.Unmarshal(locations, &card.ShopLocations); err != nil {
			return nil, fmt.Errorf("decode shop_locations: %w", err)
		}
	}
	return card, nil
}
