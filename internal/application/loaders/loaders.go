package loaders

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/repositories"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batches repository reads made while serving one request
type Loaders struct {
	CardsByOwner *dataloader.Loader[string, []*entities.Card]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(cardRepo repositories.CardRepository) *Loaders {
	return &Loaders{
		CardsByOwner: dataloader.NewBatchedLoader(func(ctx context.Context, ownerIDs []string) []*dataloader.Result[[]*entities.Card] {
			results := make([]*dataloader.Result[[]*entities.Card], len(ownerIDs))
			grouped, err := cardRepo.ListByOwners(ctx, ownerIDs)

			for i, id := range ownerIDs {
				if err != nil {
					results[i] = &dataloader.Result[[]*entities.Card]{Error: err}
					continue
				}
				cards := grouped[id]
				if cards == nil {
					cards = []*entities.Card{}
				}
				results[i] = &dataloader.Result[[]*entities.Card]{Data: cards}
			}
			return results
		}),
	}
}

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// LoadCardsByOwners resolves the cards of every owner in one batch.
// The result is keyed by owner id.
func (l *Loaders) LoadCardsByOwners(ctx context.Context, ownerIDs []string) (map[string][]*entities.Card, error) {
	cards, errs := l.CardsByOwner.LoadMany(ctx, ownerIDs)()
	out := make(map[string][]*entities.Card, len(ownerIDs))
	for i, id := range ownerIDs {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		if i < len(cards) {
			out[id] = cards[i]
		}
	}
	return out, nil
}
