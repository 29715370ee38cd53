package repositories

import (
	"context"

	"github.com/cardwallet/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// Update updates a user's profile fields
	Update(ctx context.Context, user *entities.User) error
}
