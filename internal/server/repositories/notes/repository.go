// Package notes provides the server-side note repositories: PostgreSQL over
// database/sql (pgx) and MongoDB.
package notes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository persists notes. Every lookup is scoped to the owning user; a
// note of another user is reported as common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, n *models.Note) error
	Get(ctx context.Context, id, userID string) (*models.Note, error)
	// ListByUser returns the user's notes, most recently modified first.
	ListByUser(ctx context.Context, userID string) ([]models.Note, error)
	// Update overwrites the stored note unless the stored copy was modified
	// after n.ModifiedAt, in which case common.ErrVersionConflict is returned.
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, id, userID string) error
}
