package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/cardwallet/backend/internal/domain/entities"
	"github.com/cardwallet/backend/internal/domain/repositories"
	"github.com/cardwallet/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/cardwallet/backend/pkg/errors"
)

// ShareAdapter implements the ShareRepository interface
type ShareAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewShareAdapter creates a new share adapter
func NewShareAdapter(client *postgres.Client) repositories.ShareRepository {
	return &ShareAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Add records a share
func (a *ShareAdapter) Add(ctx context.Context, share *entities.Share) error {
	query, args, err := a.db.Insert("shares").Rows(goqu.Record{
		"owner_id":     share.OwnerID,
		"owner_email":  share.OwnerEmail,
		"target_id":    share.TargetID,
		"target_email": share.TargetEmail,
		"added_at":     share.AddedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build share insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("already sharing with this user")
		}
		return apperrors.NewInternalError("failed to add share", err)
	}
	return nil
}

// Remove deletes a share
func (a *ShareAdapter) Remove(ctx context.Context, ownerID, targetID string) error {
	query, args, err := a.db.Delete("shares").
		Where(goqu.Ex{"owner_id": ownerID, "target_id": targetID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build share delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to remove share", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("not sharing with user %s", targetID))
	}
	return nil
}

// Exists reports whether ownerID already shares with targetID
func (a *ShareAdapter) Exists(ctx context.Context, ownerID, targetID string) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("shares").
		Where(goqu.Ex{"owner_id": ownerID, "target_id": targetID}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check share", err)
	}
	return count > 0, nil
}

// ListSharedWith lists the users ownerID shares with
func (a *ShareAdapter) ListSharedWith(ctx context.Context, ownerID string) ([]*entities.Share, error) {
	return a.list(ctx, goqu.Ex{"owner_id": ownerID})
}

// ListSharingWithMe lists the users sharing their cards with userID
func (a *ShareAdapter) ListSharingWithMe(ctx context.Context, userID string) ([]*entities.Share, error) {
	return a.list(ctx, goqu.Ex{"target_id": userID})
}

func (a *ShareAdapter) list(ctx context.Context, where goqu.Ex) ([]*entities.Share, error) {
	query, args, err := a.db.Select("owner_id", "owner_email", "target_id", "target_email", "added_at").
		From("shares").
		Where(where).
		Order(goqu.I("added_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list shares", err)
	}
	defer rows.Close()

	shares := []*entities.Share{}
	for rows.Next() {
		s := &entities.Share{}
		if err := rows.Scan(&s.OwnerID, &s.OwnerEmail, &s.TargetID, &s.TargetEmail, &s.AddedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan share", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate shares", err)
	}
	return shares, nil
}
