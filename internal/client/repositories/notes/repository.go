// Package notes persists notes in the local SQLite store.
package notes

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophnotes/internal/client/models"
)

var ErrNotFound = errors.New("note not found")

// Repository is the note half of the local store.
type Repository interface {
	// Get returns the note or ErrNotFound.
	Get(ctx context.Context, id string) (*models.Note, error)

	// Put inserts or replaces a note by ID.
	Put(ctx context.Context, n models.Note) error

	// PutMany stores all notes atomically.
	PutMany(ctx context.Context, ns []models.Note) error

	// Delete removes the note. Deleting a missing note is not an error.
	Delete(ctx context.Context, id string) error

	// ListByOwner returns the owner's notes, most recently modified first.
	ListByOwner(ctx context.Context, ownerID string, includeArchived, includeDeleted bool) ([]models.Note, error)
}
