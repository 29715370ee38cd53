package middleware

import (
	"net/http"

	"github.com/cardwallet/backend/internal/application/loaders"
	"github.com/cardwallet/backend/internal/domain/repositories"
)

// LoadersMiddleware attaches fresh dataloaders to every request
func LoadersMiddleware(cardRepo repositories.CardRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := loaders.WithLoaders(r.Context(), loaders.NewLoaders(cardRepo))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
