package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/clients/typesense"
	"github.com/cardwallet/backend/pkg/retry"
)

const defaultSearchLimit = 20

// TypesenseCardIndex implements CardSearchRepository on a Typesense collection
type TypesenseCardIndex struct {
	client *typesense.Client
}

// NewTypesenseCardIndex creates a new card index adapter
func NewTypesenseCardIndex(client *typesense.Client) repositories.CardSearchRepository {
	return &TypesenseCardIndex{client: client}
}

// Index upserts a card document
func (a *TypesenseCardIndex) Index(ctx context.Context, card *entities.Card) error {
	doc := buildCardDocument(card)
	err := retry.Do(ctx, retry.QuickConfig(), func() error {
		_, err := a.client.Client().Collection(typesense.CardsCollection).Documents().Upsert(ctx, doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to index card: %w", err)
	}
	return nil
}

// Delete removes a card document
func (a *TypesenseCardIndex) Delete(ctx context.Context, ownerID, id string) error {
	_, err := a.client.Client().Collection(typesense.CardsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete card from index: %w", err)
	}
	return nil
}

// Search finds cards of the given owners by store name
func (a *TypesenseCardIndex) Search(ctx context.Context, ownerIDs []string, query string, limit int) ([]repositories.CardHit, error) {
	if len(ownerIDs) == 0 {
		return []repositories.CardHit{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q := strings.TrimSpace(query)
	if q == "" {
		q = "*"
	}

	params := &api.SearchCollectionParams{
		Q:        pointer.String(q),
		QueryBy:  pointer.String("store_name"),
		FilterBy: pointer.String(buildOwnerFilter(ownerIDs)),
		PerPage:  pointer.Int(limit),
		Page:     pointer.Int(1),
	}

	result, err := a.client.Client().Collection(typesense.CardsCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to search cards: %w", err)
	}
	return parseHits(result), nil
}

func buildCardDocument(card *entities.Card) map[string]interface{} {
	doc := map[string]interface{}{
		"id":           card.ID,
		"card_id":      card.ID,
		"owner_id":     card.OwnerID,
		"store_name":   card.StoreName,
		"barcode_type": string(card.BarcodeType),
		"created_at":   card.CreatedAt.Unix(),
	}

	valid := card.ValidLocations()
	if len(valid) > 0 {
		points := make([][]float64, 0, len(valid))
		for _, loc := range valid {
			points = append(points, []float64{loc.Lat, loc.Lng})
		}
		doc["locations"] = points
	}
	return doc
}

// buildOwnerFilter backtick-quotes ids so characters like '-' are taken literally.
func buildOwnerFilter(ownerIDs []string) string {
	quoted := make([]string, len(ownerIDs))
	for i, id := range ownerIDs {
		quoted[i] = "`" + strings.ReplaceAll(id, "`", "") + "`"
	}
	return fmt.Sprintf("owner_id:=[%s]", strings.Join(quoted, ","))
}

func parseHits(result *api.SearchResult) []repositories.CardHit {
	hits := []repositories.CardHit{}
	if result == nil || result.Hits == nil {
		return hits
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		ownerID, _ := doc["owner_id"].(string)
		cardID, _ := doc["card_id"].(string)
		if cardID == "" {
			cardID, _ = doc["id"].(string)
		}
		if ownerID == "" || cardID == "" {
			continue
		}
		hits = append(hits, repositories.CardHit{OwnerID: ownerID, CardID: cardID})
	}
	return hits
}
